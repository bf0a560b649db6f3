package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jeromwolf/LearnFlow/internal/middleware"
	"github.com/jeromwolf/LearnFlow/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil
// on anonymous requests (public routes behind OptionalJWT).
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

// currentUserID returns the caller's user ID, or "" for anonymous
// viewers. Read paths use it to personalize lesson states without
// branching on authentication.
func currentUserID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}
