package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bazario/marketplace-api/model"
)

// addTestNotifications stores notifications for a user, bypassing the orchestrator.
func addTestNotifications(store *MockStore, userID string, messages ...string) {
	for i, message := range messages {
		store.Notifications[userID] = append(store.Notifications[userID], model.Notification{
			ID:        uuidLike(i + 1),
			UserID:    userID,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		})
	}
}

func TestListNotifications(t *testing.T) {
	assert := assert.New(t)

	store := NewMockStore()
	addTestUser(t, store, "u1", "sarahr", "sarahr@example.org", "correct-horse", "")
	addTestNotifications(store, "u1", "first", "second")
	server := newTestServer(store, &MockNotifier{}, &MockMailer{})

	recorder := doJSON(server, http.MethodGet, "/api/auth/notifications", sessionToken(t, server, "u1"), nil)
	assert.Equal(http.StatusOK, recorder.Code, "unexpected response: %s", recorder.Body.String())

	// Verify that the notifications came back in append order.
	var notifications []model.Notification
	err := json.Unmarshal(recorder.Body.Bytes(), &notifications)
	assert.NoError(err, "unable to parse the response body")
	if len(notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifications))
	}
	assert.Equal("first", notifications[0].Message, "incorrect first message")
	assert.Equal("second", notifications[1].Message, "incorrect second message")
}

func TestDeleteNotificationAtEndpoint(t *testing.T) {
	assert := assert.New(t)

	store := NewMockStore()
	addTestUser(t, store, "u1", "sarahr", "sarahr@example.org", "correct-horse", "")
	addTestNotifications(store, "u1", "first", "second", "third")
	server := newTestServer(store, &MockNotifier{}, &MockMailer{})

	recorder := doJSON(server, http.MethodDelete, "/api/auth/notifications?index=1", sessionToken(t, server, "u1"), nil)
	assert.Equal(http.StatusOK, recorder.Code, "unexpected response: %s", recorder.Body.String())

	// Verify that the middle notification was the one removed.
	remaining := store.Notifications["u1"]
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining notifications, got %d", len(remaining))
	}
	assert.Equal("first", remaining[0].Message, "incorrect first remaining message")
	assert.Equal("third", remaining[1].Message, "incorrect second remaining message")
}

func TestDeleteNotificationAtEndpointInvalidIndex(t *testing.T) {
	assert := assert.New(t)

	store := NewMockStore()
	addTestUser(t, store, "u1", "sarahr", "sarahr@example.org", "correct-horse", "")
	addTestNotifications(store, "u1", "only")
	server := newTestServer(store, &MockNotifier{}, &MockMailer{})
	token := sessionToken(t, server, "u1")

	for _, target := range []string{
		"/api/auth/notifications?index=-1",
		"/api/auth/notifications?index=1",
		"/api/auth/notifications?index=not-a-number",
		"/api/auth/notifications",
	} {
		recorder := doJSON(server, http.MethodDelete, target, token, nil)
		assert.Equal(http.StatusBadRequest, recorder.Code, "unexpected response for %s: %s", target, recorder.Body.String())
	}

	// Verify that nothing was removed.
	assert.Len(store.Notifications["u1"], 1, "a notification was removed")
}

func TestDeleteNotificationEndpoint(t *testing.T) {
	assert := assert.New(t)

	store := NewMockStore()
	addTestUser(t, store, "u1", "sarahr", "sarahr@example.org", "correct-horse", "")
	addTestNotifications(store, "u1", "first", "second")
	server := newTestServer(store, &MockNotifier{}, &MockMailer{})

	target := "/api/auth/notifications/" + store.Notifications["u1"][0].ID
	recorder := doJSON(server, http.MethodDelete, target, sessionToken(t, server, "u1"), nil)
	assert.Equal(http.StatusOK, recorder.Code, "unexpected response: %s", recorder.Body.String())

	remaining := store.Notifications["u1"]
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining notification, got %d", len(remaining))
	}
	assert.Equal("second", remaining[0].Message, "incorrect remaining message")
}

func TestDeleteNotificationEndpointNotFound(t *testing.T) {
	assert := assert.New(t)

	store := NewMockStore()
	addTestUser(t, store, "u1", "sarahr", "sarahr@example.org", "correct-horse", "")
	server := newTestServer(store, &MockNotifier{}, &MockMailer{})

	recorder := doJSON(server, http.MethodDelete, "/api/auth/notifications/no-such-id", sessionToken(t, server, "u1"), nil)
	assert.Equal(http.StatusNotFound, recorder.Code, "unexpected response: %s", recorder.Body.String())
}

func TestClearNotificationsEndpoint(t *testing.T) {
	assert := assert.New(t)

	store := NewMockStore()
	addTestUser(t, store, "u1", "sarahr", "sarahr@example.org", "correct-horse", "")
	addTestNotifications(store, "u1", "first", "second")
	server := newTestServer(store, &MockNotifier{}, &MockMailer{})
	token := sessionToken(t, server, "u1")

	recorder := doJSON(server, http.MethodDelete, "/api/auth/notifications/all", token, nil)
	assert.Equal(http.StatusOK, recorder.Code, "unexpected response: %s", recorder.Body.String())
	assert.Empty(store.Notifications["u1"], "the notifications were not cleared")

	// Clearing an already empty list succeeds.
	recorder = doJSON(server, http.MethodDelete, "/api/auth/notifications/all", token, nil)
	assert.Equal(http.StatusOK, recorder.Code, "unexpected response: %s", recorder.Body.String())
}

func TestNotificationsRequireAuth(t *testing.T) {
	assert := assert.New(t)

	server := newTestServer(NewMockStore(), &MockNotifier{}, &MockMailer{})

	recorder := doJSON(server, http.MethodGet, "/api/auth/notifications", "", nil)
	assert.Equal(http.StatusUnauthorized, recorder.Code, "a request without a token was allowed")
}
