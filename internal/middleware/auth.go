package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/settlewise/case-service/internal/auth"
)

const ctxActorKey = "auth_actor"

// AuthRequired validates the Bearer token and stores the actor in the
// gin context.
func AuthRequired(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimSpace(h[len("Bearer "):])
		actor, err := jwt.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxActorKey, actor)
		c.Next()
	}
}

// AdminRequired aborts unless the actor from AuthRequired is an admin.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok || !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// GetActor returns the actor stored by AuthRequired.
func GetActor(c *gin.Context) (auth.Actor, bool) {
	v, ok := c.Get(ctxActorKey)
	if !ok {
		return auth.Actor{}, false
	}
	actor, ok := v.(auth.Actor)
	return actor, ok
}
