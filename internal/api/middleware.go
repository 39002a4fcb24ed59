package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/polideportivo-booking/internal/auth"
	"github.com/nekogravitycat/polideportivo-booking/internal/user"
)

// RequireAdmin ensures the authenticated user is an active admin.
// The role is re-read from the store so revoked admins lose access before
// their token expires. It MUST be used after auth.AuthRequired middleware.
func RequireAdmin(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Check permissions
		u, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil || !u.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if !u.Role.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin access required"})
			return
		}

		auth.SetCaller(c, auth.Caller{UserID: u.ID, Role: u.Role})
		c.Next()
	}
}
