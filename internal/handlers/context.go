package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retail-ops-api/internal/middleware"
	"retail-ops-api/internal/models"
)

// requireActor returns the authenticated user or answers 401 and aborts
func requireActor(c *gin.Context) (*models.User, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return nil, false
	}
	return actor, true
}
