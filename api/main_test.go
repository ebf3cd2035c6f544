package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bazario/marketplace-api/db"
	"github.com/bazario/marketplace-api/messaging"
	"github.com/bazario/marketplace-api/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockStore provides an in-memory implementation of the persistence operations
// that the HTTP handlers need.
type MockStore struct {
	Users         map[string]*model.User
	Notifications map[string][]model.Notification
	Products      map[string]*model.Product
	Orders        map[string][]model.Order
	nextID        int
}

// NewMockStore creates a new mock store for testing.
func NewMockStore() *MockStore {
	return &MockStore{
		Users:         map[string]*model.User{},
		Notifications: map[string][]model.Notification{},
		Products:      map[string]*model.Product{},
		Orders:        map[string][]model.Order{},
	}
}

// AddTestUser stores a user directly, bypassing registration.
func (s *MockStore) AddTestUser(user *model.User) {
	s.Users[user.ID] = user
}

func (s *MockStore) GetUser(_ context.Context, userID string) (*model.User, error) {
	user, ok := s.Users[userID]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return user, nil
}

func (s *MockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range s.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (s *MockStore) AddUser(_ context.Context, user *model.User) (string, error) {
	for _, existing := range s.Users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return "", db.ErrDuplicateUser
		}
	}
	s.nextID++
	user.ID = uuidLike(s.nextID)
	user.CreatedAt = time.Now().UTC()
	s.Users[user.ID] = user
	return user.ID, nil
}

func (s *MockStore) UpdatePasswordHash(_ context.Context, userID, passwordHash string) error {
	user, ok := s.Users[userID]
	if !ok {
		return db.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (s *MockStore) UpdatePushToken(_ context.Context, userID, pushToken string) error {
	user, ok := s.Users[userID]
	if !ok {
		return db.ErrUserNotFound
	}
	user.PushToken = pushToken
	return nil
}

func (s *MockStore) UpdateProfilePhoto(_ context.Context, userID, photoURL string) error {
	user, ok := s.Users[userID]
	if !ok {
		return db.ErrUserNotFound
	}
	user.ProfilePhoto = photoURL
	return nil
}

func (s *MockStore) ListNotifications(_ context.Context, userID string) ([]model.Notification, error) {
	if _, ok := s.Users[userID]; !ok {
		return nil, db.ErrUserNotFound
	}
	return s.Notifications[userID], nil
}

func (s *MockStore) DeleteNotification(_ context.Context, userID, notificationID string) error {
	notifications := s.Notifications[userID]
	for i, notification := range notifications {
		if notification.ID == notificationID {
			s.Notifications[userID] = append(notifications[:i], notifications[i+1:]...)
			return nil
		}
	}
	return db.ErrNotificationNotFound
}

func (s *MockStore) DeleteNotificationAt(_ context.Context, userID string, index int) error {
	if _, ok := s.Users[userID]; !ok {
		return db.ErrUserNotFound
	}
	notifications := s.Notifications[userID]
	if index < 0 || index >= len(notifications) {
		return db.ErrInvalidIndex
	}
	s.Notifications[userID] = append(notifications[:index], notifications[index+1:]...)
	return nil
}

func (s *MockStore) ClearNotifications(_ context.Context, userID string) error {
	if _, ok := s.Users[userID]; !ok {
		return db.ErrUserNotFound
	}
	s.Notifications[userID] = nil
	return nil
}

func (s *MockStore) AddProduct(_ context.Context, product *model.Product) error {
	s.nextID++
	product.ID = uuidLike(s.nextID)
	product.CreatedAt = time.Now().UTC()
	s.Products[product.ID] = product
	return nil
}

func (s *MockStore) GetProduct(_ context.Context, productID string) (*model.Product, error) {
	product, ok := s.Products[productID]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	return product, nil
}

func (s *MockStore) ListProducts(_ context.Context) ([]model.Product, error) {
	products := make([]model.Product, 0, len(s.Products))
	for _, product := range s.Products {
		products = append(products, *product)
	}
	return products, nil
}

func (s *MockStore) SearchProducts(_ context.Context, term string) ([]model.Product, error) {
	return s.ListProducts(context.Background())
}

func (s *MockStore) UpdateProduct(_ context.Context, product *model.Product) error {
	if _, ok := s.Products[product.ID]; !ok {
		return db.ErrProductNotFound
	}
	s.Products[product.ID] = product
	return nil
}

func (s *MockStore) DeleteProduct(_ context.Context, productID string) error {
	if _, ok := s.Products[productID]; !ok {
		return db.ErrProductNotFound
	}
	delete(s.Products, productID)
	return nil
}

func (s *MockStore) SaveOrder(_ context.Context, order *model.Order) error {
	if _, ok := s.Users[order.UserID]; !ok {
		return db.ErrUserNotFound
	}
	s.nextID++
	order.ID = uuidLike(s.nextID)
	order.CreatedAt = time.Now().UTC()
	s.Orders[order.UserID] = append(s.Orders[order.UserID], *order)
	return nil
}

func (s *MockStore) ListOrders(_ context.Context, userID string) ([]model.Order, error) {
	if _, ok := s.Users[userID]; !ok {
		return nil, db.ErrUserNotFound
	}
	return s.Orders[userID], nil
}

// uuidLike turns a counter into a fixed-width fake identifier.
func uuidLike(n int) string {
	const template = "00000000-0000-0000-0000-000000000000"
	suffix := []byte(template)
	for i := len(suffix) - 1; n > 0 && i >= 0; i-- {
		if suffix[i] == '-' {
			continue
		}
		suffix[i] = byte('0' + n%10)
		n /= 10
	}
	return string(suffix)
}

// notifyCall records a single call to the notification orchestrator.
type notifyCall struct {
	UserID    string
	Title     string
	Body      string
	EventName string
}

// MockNotifier records the notifications that were requested.
type MockNotifier struct {
	Calls []notifyCall
}

// Notify records the call.
func (n *MockNotifier) Notify(_ context.Context, userID, title, body, eventName string) {
	n.Calls = append(n.Calls, notifyCall{UserID: userID, Title: title, Body: body, EventName: eventName})
}

// MockMailer records the email requests that were published.
type MockMailer struct {
	PublishedEmailRequest *messaging.EmailRequest
	Err                   error
}

// PublishEmailRequest records a copy of the email request for later inspection.
func (m *MockMailer) PublishEmailRequest(request *messaging.EmailRequest) error {
	m.PublishedEmailRequest = request
	return m.Err
}

// testLogger returns a logger that discards its output.
func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// newTestServer creates a server with mock collaborators for handler tests.
func newTestServer(store Store, notifier Notifier, mailer Mailer) *Server {
	settings := &Settings{
		ListenAddr:      ":0",
		JWTSecret:       "test-secret",
		ResetBaseURL:    "http://localhost:5173",
		ResetRateWindow: 2 * time.Minute,
	}
	return NewServer(settings, store, notifier, mailer, testLogger())
}

// doJSON serves a single JSON request against the server's router.
func doJSON(server *Server, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, target, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, request)
	return recorder
}

// sessionToken issues a session token for the given user.
func sessionToken(t *testing.T, server *Server, userID string) string {
	token, err := server.issueToken(userID, purposeSession, sessionTokenLifetime)
	if err != nil {
		t.Fatalf("unable to issue a session token: %s", err.Error())
	}
	return token
}

// ensure MockStore satisfies the interface the handlers depend on.
var _ Store = NewMockStore()
