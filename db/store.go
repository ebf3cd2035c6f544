package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/model"
)

// Store provides transactional access to the marketplace database. Each call runs in
// its own transaction, so every mutation is persisted before the call returns.
type Store struct {
	db *sql.DB
}

// NewStore creates a new store backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// withTransaction runs a function inside a database transaction, committing if the
// function succeeds and rolling back otherwise.
func (s *Store) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	wrapMsg := "unable to complete the database transaction"

	// Begin the transaction.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Run the function.
	if err := fn(tx); err != nil {
		return err
	}

	// Commit the transaction.
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// GetUser looks up a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user *model.User
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = GetUser(ctx, tx, userID)
		return err
	})
	return user, err
}

// GetUserByEmail looks up a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user *model.User
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = GetUserByEmail(ctx, tx, email)
		return err
	})
	return user, err
}

// AddUser adds a user, returning the ID assigned to the user.
func (s *Store) AddUser(ctx context.Context, user *model.User) (string, error) {
	var id string
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = AddUser(ctx, tx, user)
		return err
	})
	return id, err
}

// UpdatePasswordHash stores a new password hash for the user.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return UpdatePasswordHash(ctx, tx, userID, passwordHash)
	})
}

// UpdatePushToken stores a new push notification token for the user.
func (s *Store) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return UpdatePushToken(ctx, tx, userID, pushToken)
	})
}

// UpdateProfilePhoto stores a new profile photo URL for the user.
func (s *Store) UpdateProfilePhoto(ctx context.Context, userID, photoURL string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return UpdateProfilePhoto(ctx, tx, userID, photoURL)
	})
}

// SaveNotification appends a notification to the user's notification list.
func (s *Store) SaveNotification(ctx context.Context, userID, message string) (*model.Notification, error) {
	var notification *model.Notification
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		notification, err = SaveNotification(ctx, tx, userID, message)
		return err
	})
	return notification, err
}

// ListNotifications returns the user's notifications in append order.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		notifications, err = ListNotifications(ctx, tx, userID)
		return err
	})
	return notifications, err
}

// DeleteNotification removes a single notification by its ID.
func (s *Store) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return DeleteNotification(ctx, tx, userID, notificationID)
	})
}

// DeleteNotificationAt removes the notification at the given position in the user's
// notification list. Resolving the position and removing the record happen in the
// same transaction.
func (s *Store) DeleteNotificationAt(ctx context.Context, userID string, index int) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return DeleteNotificationAt(ctx, tx, userID, index)
	})
}

// ClearNotifications removes all of the user's notifications.
func (s *Store) ClearNotifications(ctx context.Context, userID string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return ClearNotifications(ctx, tx, userID)
	})
}

// AddProduct adds a product listing.
func (s *Store) AddProduct(ctx context.Context, product *model.Product) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return AddProduct(ctx, tx, product)
	})
}

// GetProduct looks up a product by ID.
func (s *Store) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var product *model.Product
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		product, err = GetProduct(ctx, tx, productID)
		return err
	})
	return product, err
}

// ListProducts returns all product listings.
func (s *Store) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		products, err = ListProducts(ctx, tx)
		return err
	})
	return products, err
}

// SearchProducts returns the product listings whose titles contain the search term.
func (s *Store) SearchProducts(ctx context.Context, term string) ([]model.Product, error) {
	var products []model.Product
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		products, err = SearchProducts(ctx, tx, term)
		return err
	})
	return products, err
}

// UpdateProduct stores new values for an existing product listing.
func (s *Store) UpdateProduct(ctx context.Context, product *model.Product) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return UpdateProduct(ctx, tx, product)
	})
}

// DeleteProduct removes a product listing.
func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return DeleteProduct(ctx, tx, productID)
	})
}

// SaveOrder records a completed checkout.
func (s *Store) SaveOrder(ctx context.Context, order *model.Order) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return SaveOrder(ctx, tx, order)
	})
}

// ListOrders returns the user's orders, oldest first.
func (s *Store) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		orders, err = ListOrders(ctx, tx, userID)
		return err
	})
	return orders, err
}
