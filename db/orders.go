package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/model"
)

// SaveOrder records a completed checkout, assigning the order ID and creation
// timestamp. The line items are stored as a JSON document.
func SaveOrder(ctx context.Context, tx *sql.Tx, order *model.Order) error {
	wrapMsg := "unable to save the order"

	// The user has to exist before we can record an order for them.
	if err := requireUser(ctx, tx, order.UserID); err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Assign the order ID and creation timestamp.
	order.ID = uuid.New().String()
	order.CreatedAt = time.Now().UTC()

	// Marshal the line items.
	items, err := json.Marshal(order.Items)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Build the statement to insert the order.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert("orders").
		Columns("id", "user_id", "items", "total", "created_at").
		Values(order.ID, order.UserID, items, order.Total, order.CreatedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the insert statement.
	_, err = tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// ListOrders returns the user's orders, oldest first.
func ListOrders(ctx context.Context, tx *sql.Tx, userID string) ([]model.Order, error) {
	wrapMsg := fmt.Sprintf("unable to list orders for the user with ID `%s`", userID)

	// The user has to exist before we can list their orders.
	if err := requireUser(ctx, tx, userID); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Build the query.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("id", "user_id", "items", "total", "created_at").
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	defer rows.Close()

	// Scan the results, unmarshalling the line items for each order.
	orders := make([]model.Order, 0)
	for rows.Next() {
		var order model.Order
		var items []byte
		err = rows.Scan(&order.ID, &order.UserID, &items, &order.Total, &order.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		err = json.Unmarshal(items, &order.Items)
		if err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return orders, nil
}
