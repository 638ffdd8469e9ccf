package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tripwise-in/tripwise-api/internal/middleware"
	"github.com/tripwise-in/tripwise-api/internal/models"
)

// claimsFromContext extracts authenticated claims set by the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
