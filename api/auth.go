package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/bazario/marketplace-api/common"
	"github.com/bazario/marketplace-api/db"
	"github.com/bazario/marketplace-api/messaging"
	"github.com/bazario/marketplace-api/model"
)

// registerRequest represents a request to create a new account.
type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role"`
	PushToken string `json:"pushToken"`
}

// handleRegister creates a new account.
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request registerRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Validate the email address format.
		if err := common.ValidateEmailAddress(request.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address"})
			return
		}

		// An omitted role defaults to buyer.
		if request.Role == "" {
			request.Role = model.RoleBuyer
		}
		if !model.ValidRole(request.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid role: %s", request.Role)})
			return
		}

		// Hash the password.
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			s.log.Errorf("unable to hash the password: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to register the user"})
			return
		}

		// Store the user.
		user := &model.User{
			Username:     request.Username,
			Email:        request.Email,
			PasswordHash: string(passwordHash),
			Role:         request.Role,
			PushToken:    request.PushToken,
		}
		_, err = s.store.AddUser(c.Request.Context(), user)
		if errors.Is(err, db.ErrDuplicateUser) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email address is already in use"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to register the user: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to register the user"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
	}
}

// loginRequest represents a login attempt.
type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin authenticates a user and issues a session token. A successful login
// also fires a login notification; the notification outcome never affects the
// response.
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request loginRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Look up the user.
		user, err := s.store.GetUserByEmail(c.Request.Context(), request.Email)
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to look up the user: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to log in"})
			return
		}

		// Verify the password.
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
			return
		}

		// Issue a session token.
		token, err := s.issueToken(user.ID, purposeSession, sessionTokenLifetime)
		if err != nil {
			s.log.Errorf("unable to issue a session token: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to log in"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":        user.ID,
				"username":  user.Username,
				"email":     user.Email,
				"role":      user.Role,
				"pushToken": user.PushToken,
			},
		})

		// The login has already succeeded; the notification outcome is only logged.
		s.notifier.Notify(
			c.Request.Context(),
			user.ID,
			"Login Notification",
			"You have logged in successfully.",
			"newNotification",
		)
	}
}

// forgotPasswordRequest represents a request for a password reset link.
type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// handleForgotPassword emails a password reset link to the user. Requests for the
// same address are rate limited.
func (s *Server) handleForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request forgotPasswordRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Look up the user.
		user, err := s.store.GetUserByEmail(c.Request.Context(), request.Email)
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to look up the user: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to process the request"})
			return
		}

		// Reset links are delivered by email, so there's nothing we can do without
		// a mail transport.
		if s.mailer == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email delivery is not configured"})
			return
		}

		// Throttle repeated requests for the same address.
		if !s.resetLimiter.Allow(request.Email) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Please wait before requesting another reset link"})
			return
		}

		// Issue a short-lived reset token and build the reset link.
		token, err := s.issueToken(user.ID, purposePasswordReset, resetTokenLifetime)
		if err != nil {
			s.log.Errorf("unable to issue a reset token: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to process the request"})
			return
		}
		resetLink := fmt.Sprintf("%s/ResetPassword?token=%s", s.settings.ResetBaseURL, token)

		// Hand the message to the mail service.
		err = s.mailer.PublishEmailRequest(&messaging.EmailRequest{
			ToAddress: user.Email,
			Subject:   "Password Reset Request",
			Template:  "password_reset",
			Values: map[string]interface{}{
				"username":   user.Username,
				"reset_link": resetLink,
			},
		})
		if err != nil {
			s.log.Errorf("unable to publish the email request: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to send the reset link"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password reset link sent to your email."})
	}
}

// resetPasswordRequest represents a password reset using an emailed token.
type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// handleResetPassword verifies a reset token and stores the new password. A
// successful reset fires a notification; the notification outcome never affects
// the response.
func (s *Server) handleResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request resetPasswordRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Verify the reset token.
		userID, err := s.parseToken(request.Token, purposePasswordReset)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired reset token"})
			return
		}

		// Hash and store the new password.
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			s.log.Errorf("unable to hash the password: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to reset the password"})
			return
		}
		err = s.store.UpdatePasswordHash(c.Request.Context(), userID, string(passwordHash))
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to store the new password: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to reset the password"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})

		// The password change has already been committed; the notification outcome
		// is only logged.
		s.notifier.Notify(
			c.Request.Context(),
			userID,
			"Password Reset",
			"Your password has been changed successfully.",
			"newNotification",
		)
	}
}

// handleProfile returns the authenticated user's profile.
func (s *Server) handleProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.store.GetUser(c.Request.Context(), authenticatedUser(c))
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to look up the user: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load the profile"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// updatePushTokenRequest represents a request to register or refresh a device token.
type updatePushTokenRequest struct {
	PushToken string `json:"pushToken" binding:"required"`
}

// handleUpdatePushToken registers or refreshes the authenticated user's push token.
func (s *Server) handleUpdatePushToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request updatePushTokenRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := s.store.UpdatePushToken(c.Request.Context(), authenticatedUser(c), request.PushToken)
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to store the push token: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to store the push token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Push token updated successfully"})
	}
}

// updateProfilePhotoRequest represents a request to update the profile photo URL.
// The photo itself is uploaded to the image storage service by the client; only the
// resulting URL is recorded here.
type updateProfilePhotoRequest struct {
	PhotoURL string `json:"photoUrl" binding:"required"`
}

// handleUpdateProfilePhoto stores a new profile photo URL and fires a notification.
func (s *Server) handleUpdateProfilePhoto() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request updateProfilePhotoRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID := authenticatedUser(c)
		err := s.store.UpdateProfilePhoto(c.Request.Context(), userID, request.PhotoURL)
		if errors.Is(err, db.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			s.log.Errorf("unable to store the profile photo: %s", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to store the profile photo"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"profilePhoto": request.PhotoURL})

		s.notifier.Notify(
			c.Request.Context(),
			userID,
			"Profile Updated",
			"Your profile photo has been updated successfully!",
			"newNotification",
		)
	}
}
