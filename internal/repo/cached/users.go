package cached

import (
	"context"
	"time"

	"github.com/geocoder89/authhub/internal/cache"
	"github.com/geocoder89/authhub/internal/domain/user"
)

type Store interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Ping(ctx context.Context) error
}

// UsersRepo puts a short-lived read-through cache in front of GetByID, which
// every authenticated request hits. Email lookups feed signin and always go
// to the store so a fresh hash is compared.
type UsersRepo struct {
	next Store
	byID *cache.Cache[user.User]
}

func NewUsersRepo(next Store, ttl time.Duration) *UsersRepo {
	return &UsersRepo{next: next, byID: cache.New[user.User](ttl)}
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	u, err := r.next.Create(ctx, email, passwordHash, name)
	if err != nil {
		return user.User{}, err
	}
	r.byID.Set(u.ID, u)
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.next.GetByEmail(ctx, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if u, ok := r.byID.Get(id); ok {
		return u, nil
	}

	u, err := r.next.GetByID(ctx, id)
	if err != nil {
		// misses are not cached; a record created later must become visible
		return user.User{}, err
	}

	r.byID.Set(id, u)
	return u, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}
