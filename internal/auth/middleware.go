package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// AdminKeyHeader carries the shared admin password.
const AdminKeyHeader = "X-Admin-Key"

// ClaimsKey is the gin context key holding Claims for bearer-authenticated requests.
const ClaimsKey = "claims"

// AdminAuth admits requests that present the admin password in X-Admin-Key
// or a bearer JWT carrying the admin role. Token expiry is judged by now, the
// same clock that issued the token.
func AdminAuth(secret Secret, signingKey, issuer string, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(AdminKeyHeader); key != "" {
			if secret.Verify(key) {
				c.Next()
				return
			}
			unauthorized(c)
			return
		}

		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			unauthorized(c)
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer, now)
		if err != nil || claims.Role != RoleAdmin {
			unauthorized(c)
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
}
