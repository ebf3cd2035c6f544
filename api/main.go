// Package api exposes the marketplace HTTP API: account and authentication flows,
// the product catalog, checkout, and the notification list. Handlers that mutate
// state hand the notification side effects to the orchestrator, which never lets a
// delivery failure affect the response.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bazario/marketplace-api/messaging"
	"github.com/bazario/marketplace-api/model"
	"github.com/bazario/marketplace-api/ratelimit"
)

// Store describes the persistence operations that the HTTP handlers need.
type Store interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	AddUser(ctx context.Context, user *model.User) (string, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	UpdatePushToken(ctx context.Context, userID, pushToken string) error
	UpdateProfilePhoto(ctx context.Context, userID, photoURL string) error

	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	DeleteNotification(ctx context.Context, userID, notificationID string) error
	DeleteNotificationAt(ctx context.Context, userID string, index int) error
	ClearNotifications(ctx context.Context, userID string) error

	AddProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, term string) ([]model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, productID string) error

	SaveOrder(ctx context.Context, order *model.Order) error
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)
}

// Notifier describes the notification orchestrator's fire-and-forget contract.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body, eventName string)
}

// Mailer describes the publisher used for outbound email requests.
type Mailer interface {
	PublishEmailRequest(request *messaging.EmailRequest) error
}

// Settings represents the configuration needed to run the HTTP API.
type Settings struct {
	ListenAddr      string
	JWTSecret       string
	ResetBaseURL    string
	ResetRateWindow time.Duration
}

// Server is the marketplace HTTP API server.
type Server struct {
	router       *gin.Engine
	store        Store
	notifier     Notifier
	mailer       Mailer
	resetLimiter *ratelimit.Limiter
	settings     *Settings
	log          *logrus.Entry
}

// NewServer creates the HTTP API server and registers its routes.
func NewServer(settings *Settings, store Store, notifier Notifier, mailer Mailer, log *logrus.Entry) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router:       router,
		store:        store,
		notifier:     notifier,
		mailer:       mailer,
		resetLimiter: ratelimit.New(settings.ResetRateWindow),
		settings:     settings,
		log:          log,
	}
	server.registerRoutes()

	return server
}

// registerRoutes sets up the API routing.
func (s *Server) registerRoutes() {
	auth := s.router.Group("/api/auth")
	{
		auth.POST("/register", s.handleRegister())
		auth.POST("/login", s.handleLogin())
		auth.POST("/forgot-password", s.handleForgotPassword())
		auth.POST("/reset-password", s.handleResetPassword())

		authed := auth.Group("", s.requireAuth())
		{
			authed.GET("/profile", s.handleProfile())
			authed.POST("/push-token", s.handleUpdatePushToken())
			authed.POST("/profile-photo", s.handleUpdateProfilePhoto())

			authed.GET("/notifications", s.handleListNotifications())
			authed.DELETE("/notifications", s.handleDeleteNotificationAt())
			authed.DELETE("/notifications/all", s.handleClearNotifications())
			authed.DELETE("/notifications/:id", s.handleDeleteNotification())
		}
	}

	products := s.router.Group("/api/products")
	{
		products.GET("/getProducts", s.handleListProducts())
		products.GET("/getProductById/:id", s.handleGetProduct())
		products.GET("/search", s.handleSearchProducts())

		authed := products.Group("", s.requireAuth())
		{
			authed.POST("/upload", s.handleCreateProduct())
			authed.PUT("/updateProduct/:id", s.handleUpdateProduct())
			authed.DELETE("/deleteProduct", s.handleDeleteProduct())
			authed.POST("/checkout", s.handleCheckout())
			authed.GET("/orders", s.handleListOrders())
		}
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	return s.router.Run(s.settings.ListenAddr)
}

// Router returns the underlying router. Tests use this to serve requests directly.
func (s *Server) Router() http.Handler {
	return s.router
}
