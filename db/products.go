package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/model"
)

// productColumns lists the columns selected whenever a full product record is loaded.
var productColumns = []string{
	"id",
	"title",
	"description",
	"price",
	"category",
	"images",
	"rating_rate",
	"rating_count",
	"created_at",
}

// scanProduct scans a single product row into a product record.
func scanProduct(row sq.RowScanner) (*model.Product, error) {
	var product model.Product
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.Price,
		&product.Category,
		pq.Array(&product.Images),
		&product.Rating.Rate,
		&product.Rating.Count,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AddProduct adds a product listing, assigning its ID and creation timestamp.
func AddProduct(ctx context.Context, tx *sql.Tx, product *model.Product) error {
	wrapMsg := fmt.Sprintf("unable to add the product `%s`", product.Title)

	// Assign the product ID and creation timestamp.
	product.ID = uuid.New().String()
	product.CreatedAt = time.Now().UTC()

	// Build the statement to insert the product.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert("products").
		Columns(productColumns...).
		Values(
			product.ID,
			product.Title,
			product.Description,
			product.Price,
			product.Category,
			pq.Array(product.Images),
			product.Rating.Rate,
			product.Rating.Count,
			product.CreatedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the statement.
	_, err = tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// GetProduct looks up a product by ID. ErrProductNotFound is returned if the product
// doesn't exist.
func GetProduct(ctx context.Context, tx *sql.Tx, productID string) (*model.Product, error) {
	wrapMsg := fmt.Sprintf("unable to look up the product with ID `%s`", productID)

	// Build the query.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	product, err := scanProduct(tx.QueryRowContext(ctx, statement, args...))
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return product, nil
}

// listProducts runs a product query and scans the results.
func listProducts(ctx context.Context, tx *sql.Tx, builder sq.SelectBuilder, wrapMsg string) ([]model.Product, error) {

	// Finalize the query.
	statement, args, err := builder.ToSql()
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
	products := make([]model.Product, 0)
	for rows.Next() {
		var product model.Product
		err = rows.Scan(
			&product.ID,
			&product.Title,
			&product.Description,
			&product.Price,
			&product.Category,
			pq.Array(&product.Images),
			&product.Rating.Rate,
			&product.Rating.Count,
			&product.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return products, nil
}

// ListProducts returns all product listings, oldest first.
func ListProducts(ctx context.Context, tx *sql.Tx) ([]model.Product, error) {
	builder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(productColumns...).
		From("products").
		OrderBy("created_at", "id")
	return listProducts(ctx, tx, builder, "unable to list products")
}

// SearchProducts returns the product listings whose titles contain the search term,
// ignoring case.
func SearchProducts(ctx context.Context, tx *sql.Tx, term string) ([]model.Product, error) {
	builder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(productColumns...).
		From("products").
		Where(sq.ILike{"title": fmt.Sprintf("%%%s%%", term)}).
		OrderBy("created_at", "id")
	return listProducts(ctx, tx, builder, fmt.Sprintf("unable to search products for `%s`", term))
}

// UpdateProduct stores new values for an existing product listing. Only the mutable
// fields are written; the ID and creation timestamp never change.
func UpdateProduct(ctx context.Context, tx *sql.Tx, product *model.Product) error {
	wrapMsg := fmt.Sprintf("unable to update the product with ID `%s`", product.ID)

	// Build the update statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("products").
		Set("title", product.Title).
		Set("description", product.Description).
		Set("price", product.Price).
		Set("category", product.Category).
		Set("images", pq.Array(product.Images)).
		Set("rating_rate", product.Rating.Rate).
		Set("rating_count", product.Rating.Count).
		Where(sq.Eq{"id": product.ID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the update statement and verify that a row was affected.
	result, err := tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DeleteProduct removes a product listing. ErrProductNotFound is returned if the
// product doesn't exist.
func DeleteProduct(ctx context.Context, tx *sql.Tx, productID string) error {
	wrapMsg := fmt.Sprintf("unable to delete the product with ID `%s`", productID)

	// Build the delete statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Delete("products").
		Where(sq.Eq{"id": productID}).
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
		return ErrProductNotFound
	}

	return nil
}
