package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/model"
)

// requireUser verifies that a user exists, returning ErrUserNotFound otherwise.
func requireUser(ctx context.Context, tx *sql.Tx, userID string) error {
	wrapMsg := fmt.Sprintf("unable to verify that the user with ID `%s` exists", userID)

	// Build the query to count matching users.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("count(*)").
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the query.
	var total int64
	err = tx.QueryRowContext(ctx, statement, args...).Scan(&total)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	if total == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SaveNotification appends a single notification to the user's notification list. The
// record is assigned a generated ID and a creation timestamp before it's stored, and
// the stored record is returned to the caller.
func SaveNotification(ctx context.Context, tx *sql.Tx, userID, message string) (*model.Notification, error) {
	wrapMsg := "unable to save notification"

	// The user has to exist before we can record a notification for them.
	if err := requireUser(ctx, tx, userID); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Assign the record identity and creation timestamp.
	notification := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	// Build the statement to insert the notification.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert("notifications").
		Columns("id", "user_id", "message", "time_created").
		Values(notification.ID, notification.UserID, notification.Message, notification.CreatedAt).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Execute the insert statement.
	_, err = tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return notification, nil
}

// ListNotifications returns the user's notifications in append order.
func ListNotifications(ctx context.Context, tx *sql.Tx, userID string) ([]model.Notification, error) {
	wrapMsg := fmt.Sprintf("unable to list notifications for the user with ID `%s`", userID)

	// The user has to exist before we can list their notifications.
	if err := requireUser(ctx, tx, userID); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Build the query. Ordering by the creation timestamp with the ID as a
	// tie-breaker preserves append order.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("id", "user_id", "message", "time_created").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("time_created", "id").
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

	// Scan the results.
	notifications := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		err = rows.Scan(&n.ID, &n.UserID, &n.Message, &n.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return notifications, nil
}

// DeleteNotification removes a single notification by its ID. ErrNotificationNotFound
// is returned if the notification doesn't exist or belongs to a different user.
func DeleteNotification(ctx context.Context, tx *sql.Tx, userID, notificationID string) error {
	wrapMsg := fmt.Sprintf("unable to delete the notification with ID `%s`", notificationID)

	// Build the delete statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Delete("notifications").
		Where(sq.Eq{"id": notificationID}).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the delete statement and verify that a row was removed.
	result, err := tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// DeleteNotificationAt removes the notification at the given position in the user's
// notification list. The position is resolved to a record ID within the transaction,
// so a concurrent removal can't cause the wrong record to be deleted. ErrInvalidIndex
// is returned if the position is outside the current bounds of the list.
func DeleteNotificationAt(ctx context.Context, tx *sql.Tx, userID string, index int) error {
	wrapMsg := fmt.Sprintf("unable to delete the notification at position %d", index)

	// Resolve the position to a record ID.
	notifications, err := ListNotifications(ctx, tx, userID)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	if index < 0 || index >= len(notifications) {
		return ErrInvalidIndex
	}

	return errors.Wrap(DeleteNotification(ctx, tx, userID, notifications[index].ID), wrapMsg)
}

// ClearNotifications removes all of the user's notifications. Clearing an empty
// notification list is not an error.
func ClearNotifications(ctx context.Context, tx *sql.Tx, userID string) error {
	wrapMsg := fmt.Sprintf("unable to clear notifications for the user with ID `%s`", userID)

	// The user has to exist before we can clear their notifications.
	if err := requireUser(ctx, tx, userID); err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Build the delete statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Delete("notifications").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the delete statement. The number of rows removed is irrelevant.
	_, err = tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}
