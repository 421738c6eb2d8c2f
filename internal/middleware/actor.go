package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

const actorContextKey = "vanadhikar.actor"

// ActorMiddleware resolves the acting user for every request. Identity is
// issued by the upstream gateway; this service only needs the subject and
// role, from either explicit headers or the gateway-signed bearer token.
type ActorMiddleware struct {
	log *logger.Logger
}

func NewActorMiddleware(log *logger.Logger) *ActorMiddleware {
	return &ActorMiddleware{log: log.With("Middleware", "ActorMiddleware")}
}

// RequireActor rejects requests that carry no resolvable identity. Every
// mutating route sits behind this; role checks happen in the services.
func (am *ActorMiddleware) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := am.resolveActor(c)
		if actor.ID == "" || actor.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing actor identity",
				"code":  "unauthorized",
			})
			return
		}
		if !actor.Role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unknown actor role",
				"code":  "unauthorized",
			})
			return
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func (am *ActorMiddleware) resolveActor(c *gin.Context) types.Actor {
	if id := c.GetHeader("X-Actor-Id"); id != "" {
		return types.Actor{
			ID:   id,
			Role: types.Role(strings.ToLower(c.GetHeader("X-Actor-Role"))),
		}
	}

	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return am.actorFromToken(authHeader[7:])
	}
	return types.Actor{}
}

// actorFromToken reads sub and role claims. The gateway already verified the
// signature; this hop only decodes, it does not re-verify.
func (am *ActorMiddleware) actorFromToken(tokenString string) types.Actor {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		am.log.Debug("Failed to decode bearer token", "error", err)
		return types.Actor{}
	}
	actor := types.Actor{}
	if sub, err := claims.GetSubject(); err == nil {
		actor.ID = sub
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = types.Role(strings.ToLower(role))
	}
	return actor
}

// ActorFrom returns the actor stored by RequireActor.
func ActorFrom(c *gin.Context) (types.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return types.Actor{}, false
	}
	actor, ok := value.(types.Actor)
	return actor, ok
}
