package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/services"
	"github.com/gin-gonic/gin"
)

// Context keys for the authenticated identity
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// Identity is the verified claim set attached to authenticated requests
type Identity struct {
	UserID   string
	Username string
	Role     models.Role
}

// GetIdentity retrieves the authenticated identity from the gin context.
// Returns false when RequireAuth has not run on the route.
func GetIdentity(c *gin.Context) (Identity, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return Identity{}, false
	}
	username, _ := c.Get(ContextUsername)
	role, _ := c.Get(ContextRole)
	return Identity{
		UserID:   userID.(string),
		Username: username.(string),
		Role:     role.(models.Role),
	}, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
	c.Abort()
}

func abortForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{
		"success": false,
		"message": message,
	})
	c.Abort()
}

// RequireAuth extracts and verifies the bearer access token and attaches
// the identity to the request context
func RequireAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Authorization token missing or malformed.")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.VerifyAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				abortUnauthorized(c, "Authentication token has expired.")
				return
			}
			abortUnauthorized(c, "Invalid authentication token.")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRoles rejects authenticated identities whose role is not in the
// allowed set
func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abortUnauthorized(c, "Authentication required.")
			return
		}
		for _, role := range allowed {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		abortForbidden(c, "Access denied: insufficient role.")
	}
}

// RequireOwnerOrAdmin rejects requests unless the path-addressed id equals
// the authenticated user's id, or the identity is an Admin
func RequireOwnerOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abortUnauthorized(c, "Authentication required.")
			return
		}

		resourceID := c.Param("id")
		if identity.UserID == resourceID || identity.Role == models.RoleAdmin {
			c.Next()
			return
		}
		abortForbidden(c, "You can only access your own resources or must be an admin.")
	}
}
