package middlewares

import (
	"context"
	"strings"

	"github.com/geocoder89/authhub/internal/actorctx"
	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (user.Profile, error)
}

// AuthMiddleware resolves the bearer token into a profile. Failures are
// handed to onError, which owns the status mapping and must abort.
type AuthMiddleware struct {
	sessions SessionResolver
	onError  func(*gin.Context, error)
}

func NewAuthMiddleware(sessions SessionResolver, onError func(*gin.Context, error)) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, onError: onError}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// a missing header resolves like any other malformed token
		p, err := m.sessions.ResolveSession(c.Request.Context(), BearerToken(c))
		if err != nil {
			m.onError(c, err)
			c.Abort()
			return
		}

		c.Set(CtxProfile, p)
		c.Request = c.Request.WithContext(actorctx.WithProfile(c.Request.Context(), p))

		c.Next()
	}
}

// BearerToken returns the token from "Authorization: Bearer <token>", or "".
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")

	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func ProfileFromContext(c *gin.Context) (user.Profile, bool) {
	v, ok := c.Get(CtxProfile)
	if !ok {
		return user.Profile{}, false
	}
	p, ok := v.(user.Profile)
	return p, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	p, ok := ProfileFromContext(c)
	return p.ID, ok && p.ID != ""
}
