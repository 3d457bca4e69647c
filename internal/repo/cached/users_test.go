package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/repo/memory"
)

type countingStore struct {
	*memory.UsersRepo
	byIDCalls int
}

func (s *countingStore) GetByID(ctx context.Context, id string) (user.User, error) {
	s.byIDCalls++
	return s.UsersRepo.GetByID(ctx, id)
}

func TestUsersRepo_GetByIDReadThrough(t *testing.T) {
	inner := &countingStore{UsersRepo: memory.NewUsersRepo()}
	ctx := context.Background()

	seeded, err := inner.UsersRepo.Create(ctx, "ann@example.com", "h", "Ann")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := NewUsersRepo(inner, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := r.GetByID(ctx, seeded.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Email != "ann@example.com" {
			t.Fatalf("unexpected record: %+v", got)
		}
	}

	if inner.byIDCalls != 1 {
		t.Fatalf("expected 1 store lookup, got %d", inner.byIDCalls)
	}
}

func TestUsersRepo_MissesAreNotCached(t *testing.T) {
	inner := &countingStore{UsersRepo: memory.NewUsersRepo()}
	r := NewUsersRepo(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := r.GetByID(ctx, "missing"); !errors.Is(err, user.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if inner.byIDCalls != 2 {
		t.Fatalf("expected every miss to reach the store, got %d calls", inner.byIDCalls)
	}
}

func TestUsersRepo_CreateWarmsCache(t *testing.T) {
	inner := &countingStore{UsersRepo: memory.NewUsersRepo()}
	r := NewUsersRepo(inner, time.Minute)
	ctx := context.Background()

	u, err := r.Create(ctx, "bob@example.com", "h", "Bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.GetByID(ctx, u.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if inner.byIDCalls != 0 {
		t.Fatalf("expected cached hit after create, got %d store calls", inner.byIDCalls)
	}

	if _, err := r.Create(ctx, "BOB@example.com", "h", "Bob"); !errors.Is(err, user.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}
