package middleware

import (
	"net/http"                // HTTP status codes
	"rentflow/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RequireRole checks the user's role from the database on each request, so a
// stale JWT never grants a revoked capability. Admins pass every gate.
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		if user.Role == domain.RoleAdmin {
			c.Next() // Admins are allowed everywhere
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

// AdminOnlyMiddleware restricts a route group to admins
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RequireRole(db)
}

// ManagerOnlyMiddleware restricts a route group to managers and admins
func ManagerOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RequireRole(db, domain.RoleManager)
}
