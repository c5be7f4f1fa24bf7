package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/middleware"
)

// actorID returns the id of the authenticated caller, or "" on unauthenticated routes.
func actorID(c *gin.Context) string {
	claims := middleware.Claims(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
