package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"retail-ops-api/internal/middleware"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/services"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *middleware.AuthService
	users       services.UserService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *middleware.AuthService, users services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo is the user projection returned to clients. Password hashes
// never leave the service layer through this type.
type UserInfo struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Role        models.UserRole `json:"role"`
	Permissions []string        `json:"permissions,omitempty"`
}

func userInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: u.Permissions,
	}
}

// RefreshTokenRequest represents the refresh token request
type RefreshTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Login authenticates a user and returns a signed JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// Uniform answer regardless of whether the username exists.
		logrus.WithField("username", req.Username).Warn("Failed login attempt")
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Unauthorized",
			Message: "invalid username or password",
		})
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to generate token",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.authService.TokenDuration()),
		User:      userInfo(user),
	})
}

// RefreshToken exchanges a valid token for a freshly issued one
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	newToken, err := h.authService.RefreshToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Invalid or expired token",
			Message: err.Error(),
		})
		return
	}

	claims, err := h.authService.ValidateToken(newToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to validate new token",
			Message: err.Error(),
		})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Invalid or expired token",
			Message: "user no longer exists",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     newToken,
		ExpiresAt: time.Now().Add(h.authService.TokenDuration()),
		User:      userInfo(user),
	})
}

// GetCurrentUser returns the authenticated user attached by the
// authentication middleware
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, userInfo(actor))
}

// Logout acknowledges a client-side logout for audit purposes. Tokens are
// stateless and expire on their own.
func (h *AuthHandler) Logout(c *gin.Context) {
	if actor, ok := middleware.Actor(c); ok {
		logrus.WithFields(logrus.Fields{
			"user_id":  actor.ID,
			"username": actor.Username,
		}).Info("User logged out")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
