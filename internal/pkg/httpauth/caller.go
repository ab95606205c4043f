// Package httpauth reads the identity the auth middleware stored on the
// request context.
package httpauth

import (
	"github.com/gin-gonic/gin"

	"rentara/internal/domain"
)

type Caller struct {
	UserID int64
	Role   domain.UserRole
}

// CallerFrom extracts the authenticated caller. ok is false when the
// middleware never ran, which means the route was wired without Auth.
func CallerFrom(c *gin.Context) (Caller, bool) {
	idVal, okID := c.Get("user_id")
	roleVal, okRole := c.Get("role")
	if !okID || !okRole {
		return Caller{}, false
	}
	id, okID := idVal.(int64)
	role, okRole := roleVal.(string)
	if !okID || !okRole {
		return Caller{}, false
	}
	return Caller{UserID: id, Role: domain.UserRole(role)}, true
}
