package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/bazario/marketplace-api/db"
)

// handleListNotifications returns the authenticated user's notifications in append
// order.
func (s *Server) handleListNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		notifications, err := s.store.ListNotifications(c.Request.Context(), authenticatedUser(c))
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to list notifications: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list notifications"})
			return
		}

		c.JSON(http.StatusOK, notifications)
	}
}

// handleDeleteNotificationAt removes the notification at the position given by the
// `index` query parameter.
func (s *Server) handleDeleteNotificationAt() gin.HandlerFunc {
	return func(c *gin.Context) {
		indexParam := c.Query("index")
		if indexParam == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Notification index is required"})
			return
		}
		index, err := strconv.Atoi(indexParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification index"})
			return
		}

		err = s.store.DeleteNotificationAt(c.Request.Context(), authenticatedUser(c), index)
		if errors.Is(err, db.ErrInvalidIndex) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification index"})
			return
		}
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to delete the notification: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to delete the notification"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
	}
}

// handleDeleteNotification removes a single notification by its ID.
func (s *Server) handleDeleteNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.store.DeleteNotification(c.Request.Context(), authenticatedUser(c), c.Param("id"))
		if errors.Is(err, db.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to delete the notification: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to delete the notification"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
	}
}

// handleClearNotifications removes all of the authenticated user's notifications.
func (s *Server) handleClearNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.store.ClearNotifications(c.Request.Context(), authenticatedUser(c))
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to clear notifications: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to clear notifications"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "All notifications deleted successfully"})
	}
}
