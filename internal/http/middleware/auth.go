// README: Firebase ID-token verification middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"atelier/internal/infra"
)

const UIDKey = "auth_uid"

// Auth verifies the bearer token and stores the Firebase UID on the context.
// Authorization policy (who may approve what) lives outside this service;
// this middleware only establishes identity. A nil verifier disables auth
// for local development.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(UIDKey, token.UID)
		c.Next()
	}
}
