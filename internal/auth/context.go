package auth

import "github.com/gin-gonic/gin"

// Role is the caller's privilege level.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// IsAdmin reports whether r may manage venues, courts and other users' reservations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Caller identifies who issued a request.
type Caller struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller has an administrative role.
func (c Caller) IsAdmin() bool {
	return c.Role.IsAdmin()
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the authenticated user's role or empty string.
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get("userRole"); ok {
		if r, ok := v.(Role); ok {
			return r
		}
	}
	return ""
}

// GetCaller returns the authenticated caller.
func GetCaller(c *gin.Context) Caller {
	return Caller{UserID: GetUserID(c), Role: GetRole(c)}
}

// SetCaller stores the caller in the gin context.
func SetCaller(c *gin.Context, caller Caller) {
	c.Set("userID", caller.UserID)
	c.Set("userRole", caller.Role)
}
