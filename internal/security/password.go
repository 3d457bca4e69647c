package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrHashing is returned when bcrypt cannot produce a hash for the input
// (oversized password, invalid cost).
var ErrHashing = errors.New("password hashing failed")

// Hasher hashes and verifies passwords with bcrypt. The output embeds the
// algorithm version, cost and a fresh salt, so stored hashes survive cost changes.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher builds a Hasher. concurrency bounds how many bcrypt computations run
// at once; values <= 0 default to GOMAXPROCS.
func NewHasher(cost, concurrency int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

// Hash password hashes a plain text password with bcrypt.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}

	return string(hash), nil
}

// Verify compares a bcrypt hash with a plaintext password in constant time.
// A mismatch or a hash that does not parse reports false with a nil error;
// only a cancelled context is an error.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return false, nil
	}

	return true, nil
}
