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

// userColumns lists the columns selected whenever a full user record is loaded.
var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"role",
	"coalesce(push_token, '')",
	"coalesce(profile_photo, '')",
	"created_at",
}

// scanUser scans a single user row into a user record.
func scanUser(row sq.RowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.PushToken,
		&user.ProfilePhoto,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AddUser adds a user to the `users` table, returning the ID assigned to the user. A
// uniqueness violation on the username or email address is reported as ErrDuplicateUser.
func AddUser(ctx context.Context, tx *sql.Tx, user *model.User) (string, error) {
	wrapMsg := fmt.Sprintf("unable to add `%s` to the users table", user.Username)

	// Assign the user ID and creation timestamp.
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC()

	// Build the statement to insert the user.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert("users").
		Columns("id", "username", "email", "password_hash", "role", "push_token", "created_at").
		Values(user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.PushToken, user.CreatedAt).
		ToSql()
	if err != nil {
		return "", errors.Wrap(err, wrapMsg)
	}

	// Execute the statement.
	_, err = tx.ExecContext(ctx, statement, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return "", ErrDuplicateUser
		}
		return "", errors.Wrap(err, wrapMsg)
	}

	return user.ID, nil
}

// GetUser looks up a user by ID. ErrUserNotFound is returned if the user doesn't exist.
func GetUser(ctx context.Context, tx *sql.Tx, userID string) (*model.User, error) {
	wrapMsg := fmt.Sprintf("unable to look up the user with ID `%s`", userID)

	// Build the query.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	user, err := scanUser(tx.QueryRowContext(ctx, statement, args...))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return user, nil
}

// GetUserByEmail looks up a user by email address. ErrUserNotFound is returned if no
// user has registered the address.
func GetUserByEmail(ctx context.Context, tx *sql.Tx, email string) (*model.User, error) {
	wrapMsg := fmt.Sprintf("unable to look up the user with email address `%s`", email)

	// Build the query.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	user, err := scanUser(tx.QueryRowContext(ctx, statement, args...))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return user, nil
}

// updateUserColumn sets a single column for an existing user. ErrUserNotFound is
// returned if the user doesn't exist.
func updateUserColumn(ctx context.Context, tx *sql.Tx, userID, column string, value interface{}) error {
	wrapMsg := fmt.Sprintf("unable to update `%s` for the user with ID `%s`", column, userID)

	// Build the update statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("users").
		Set(column, value).
		Where(sq.Eq{"id": userID}).
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
		return ErrUserNotFound
	}

	return nil
}

// UpdatePasswordHash stores a new password hash for the user.
func UpdatePasswordHash(ctx context.Context, tx *sql.Tx, userID, passwordHash string) error {
	return updateUserColumn(ctx, tx, userID, "password_hash", passwordHash)
}

// UpdatePushToken stores a new push notification token for the user.
func UpdatePushToken(ctx context.Context, tx *sql.Tx, userID, pushToken string) error {
	return updateUserColumn(ctx, tx, userID, "push_token", pushToken)
}

// UpdateProfilePhoto stores a new profile photo URL for the user.
func UpdateProfilePhoto(ctx context.Context, tx *sql.Tx, userID, photoURL string) error {
	return updateUserColumn(ctx, tx, userID, "profile_photo", photoURL)
}
