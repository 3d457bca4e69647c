package actorctx

import (
	"context"

	"github.com/geocoder89/authhub/internal/domain/user"
)

type ctxKey struct{}

// WithProfile stores the resolved caller on a request context so code below
// the HTTP layer can tell who is acting without depending on gin.
func WithProfile(ctx context.Context, p user.Profile) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func ProfileFrom(ctx context.Context) (user.Profile, bool) {
	p, ok := ctx.Value(ctxKey{}).(user.Profile)

	return p, ok && p.ID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	p, ok := ProfileFrom(ctx)
	return p.ID, ok
}
