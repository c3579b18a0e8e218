package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"food-marketplace/internal/models"
	"food-marketplace/internal/web"
)

const principalKey = "principal"

// Middleware requires a valid bearer token. When roles are given the
// caller's role must be one of them.
func Middleware(v *Verifier, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			web.WriteStatus(c, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			web.WriteStatus(c, http.StatusUnauthorized, "bearer token required")
			return
		}

		principal, err := v.Verify(tokenString)
		if err != nil {
			web.WriteStatus(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if len(roles) > 0 && !hasRole(principal.Role, roles) {
			web.WriteStatus(c, http.StatusForbidden, "insufficient permissions")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the caller set by Middleware
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

func hasRole(role models.Role, allowed []models.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
