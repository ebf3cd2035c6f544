package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/db"
	"github.com/bazario/marketplace-api/model"
)

// checkoutRequest represents a checkout for the items in the user's cart.
type checkoutRequest struct {
	Items []model.OrderItem `json:"cart" binding:"required,min=1"`
}

// handleCheckout records an order for the authenticated user and fires an order
// confirmation notification. The order is committed before any delivery is
// attempted, so the checkout succeeds regardless of notification outcomes.
func (s *Server) handleCheckout() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request checkoutRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Total the line items.
		var total float64
		for _, item := range request.Items {
			total += item.Price * float64(item.Quantity)
		}

		// Record the order.
		order := &model.Order{
			UserID: authenticatedUser(c),
			Items:  request.Items,
			Total:  total,
		}
		err := s.store.SaveOrder(c.Request.Context(), order)
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to save the order: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to place the order"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Order placed successfully!", "order": order})

		// The order has already been committed; the notification outcome is only
		// logged.
		s.notifier.Notify(
			c.Request.Context(),
			order.UserID,
			"Order Confirmed",
			"Your order has been placed successfully!",
			"newNotification",
		)
	}
}

// handleListOrders returns the authenticated user's orders, oldest first.
func (s *Server) handleListOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := s.store.ListOrders(c.Request.Context(), authenticatedUser(c))
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to list orders: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list orders"})
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}
