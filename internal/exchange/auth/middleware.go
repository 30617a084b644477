package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
)

// Blacklist reports revoked token ids.
type Blacklist interface {
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type contextKey string

const (
	actorContextKey  contextKey = "actor"
	claimsContextKey contextKey = "claims"
)

// WithActor stores the caller on the context.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the caller set by the middleware or interceptor.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	return actor, ok
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// Authenticate validates the bearer token against the secret and the
// blacklist and puts the actor on the request context.
func Authenticate(jwtSecret string, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractBearer(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		ctx, err := authenticate(c.Request.Context(), tokenString, jwtSecret, blacklist)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func authenticate(ctx context.Context, tokenString, secret string, blacklist Blacklist) (context.Context, error) {
	claims, err := ParseToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if blacklist != nil {
		revoked, err := blacklist.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errors.New("token revoked")
		}
	}
	actor, err := claims.Actor()
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return WithActor(ctx, actor), nil
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": err.Error(),
	})
}

func extractBearer(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("invalid authorization format: missing Bearer prefix")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" {
		return "", e.ErrUnauthorized
	}
	return tokenString, nil
}
