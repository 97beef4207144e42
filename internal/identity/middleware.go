package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxSessionClaims = "edu_session_claims"

// RequireSession returns a Gin middleware that enforces a valid Bearer
// session token and stores its claims in the request context.
func RequireSession(tokens *SessionTokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Please log in first",
			})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session token: " + err.Error(),
			})
			return
		}

		c.Set(ctxSessionClaims, claims)
		c.Next()
	}
}

// SessionClaimsFromCtx returns the claims injected by RequireSession, or nil.
func SessionClaimsFromCtx(c *gin.Context) *SessionClaims {
	v, ok := c.Get(ctxSessionClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*SessionClaims)
	return claims
}
