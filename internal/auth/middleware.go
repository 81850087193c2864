package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/model"
)

const (
	// ContextUserIDKey is the gin context key holding the authenticated user ID.
	ContextUserIDKey = "userID"
	// ContextUsernameKey is the gin context key holding the authenticated username.
	ContextUsernameKey = "username"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header,
// falling back to the "token" query parameter used by browser WebSocket clients.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects requests without a valid bearer token and stores the
// verified identity in the gin context.
func Middleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.Request)
		if token == "" {
			abortUnauthorized(c, "Authorization token is missing")
			return
		}

		claims, err := issuer.Validate(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	userID := c.GetString(ContextUserIDKey)
	if userID == "" {
		return model.Identity{}, false
	}
	return model.Identity{UserID: userID, Username: c.GetString(ContextUsernameKey)}, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
