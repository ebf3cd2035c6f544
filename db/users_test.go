package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/bazario/marketplace-api/model"
)

// userRow returns a mock row for a single user.
func userRow(pushToken string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "role", "push_token", "profile_photo", "created_at",
	}).AddRow(testUserID, "sarahr", "sarahr@example.org", "hash", "buyer", pushToken, "", time.Now().UTC())
}

func TestAddUser(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users \(id,username,email,password_hash,role,push_token,created_at\)`).
		WithArgs(sqlmock.AnyArg(), "sarahr", "sarahr@example.org", "hash", "buyer", "tok-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	// Add the user.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	user := &model.User{
		Username:     "sarahr",
		Email:        "sarahr@example.org",
		PasswordHash: "hash",
		Role:         "buyer",
		PushToken:    "tok-1",
	}
	id, err := AddUser(ctx, tx, user)
	assert.NoError(err, "unexpected error occurred while adding the user")
	assert.NotEmpty(id, "no ID was assigned to the user")
	assert.Equal(id, user.ID, "the assigned ID was not stored in the user record")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestGetUser(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM users WHERE id =`).
		WithArgs(testUserID).
		WillReturnRows(userRow("tok-1"))
	mock.ExpectRollback()

	// Look up the user.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	user, err := GetUser(ctx, tx, testUserID)
	assert.NoError(err, "unexpected error occurred while looking up the user")
	_ = tx.Rollback()

	// Spot-check a couple of fields.
	assert.Equal("sarahr", user.Username)
	assert.Equal("tok-1", user.PushToken)

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestGetUserNotFound(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM users WHERE id =`).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "push_token", "profile_photo", "created_at",
		}))
	mock.ExpectRollback()

	// Attempt to look up a user that doesn't exist.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	_, err = GetUser(ctx, tx, testUserID)
	assert.True(errors.Is(err, ErrUserNotFound), "expected ErrUserNotFound, got: %v", err)
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestUpdatePushToken(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET push_token =`).
		WithArgs("tok-2", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	// Update the push token.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	err = UpdatePushToken(ctx, tx, testUserID, "tok-2")
	assert.NoError(err, "unexpected error occurred while updating the push token")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestUpdatePushTokenUserNotFound(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET push_token =`).
		WithArgs("tok-2", testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// Attempt to update the push token for a user that doesn't exist.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	err = UpdatePushToken(ctx, tx, testUserID, "tok-2")
	assert.True(errors.Is(err, ErrUserNotFound), "expected ErrUserNotFound, got: %v", err)
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}
