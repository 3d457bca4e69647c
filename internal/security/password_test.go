package security

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Hasher {
	return NewHasher(bcrypt.MinCost, 2)
}

func TestHash_ProducesSelfDescribingSaltedHash(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	first, err := h.Hash(ctx, "Pass123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	second, err := h.Hash(ctx, "Pass123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if first == "Pass123!" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if first == second {
		t.Fatalf("same password should produce different hashes due to salt")
	}
	if !strings.HasPrefix(first, "$2a$04$") {
		t.Fatalf("expected bcrypt prefix with cost 04, got %q", first[:7])
	}
}

func TestVerify(t *testing.T) {
	h := newTestHasher()
	ctx := context.Background()

	hash, err := h.Hash(ctx, "Pass123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	tests := []struct {
		name  string
		plain string
		hash  string
		want  bool
	}{
		{name: "match", plain: "Pass123!", hash: hash, want: true},
		{name: "wrong password", plain: "Pass123?", hash: hash, want: false},
		{name: "empty password", plain: "", hash: hash, want: false},
		{name: "malformed hash", plain: "Pass123!", hash: "not-a-bcrypt-hash", want: false},
		{name: "empty hash", plain: "Pass123!", hash: "", want: false},
		{name: "bad cost field", plain: "Pass123!", hash: "$2a$xx$" + strings.Repeat("a", 53), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Verify(ctx, tt.plain, tt.hash)
			if err != nil {
				t.Fatalf("Verify returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Verify()=%v want %v", got, tt.want)
			}
		})
	}
}

func TestHash_TooLongIsHashingError(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash(context.Background(), strings.Repeat("a", 73))
	if !errors.Is(err, ErrHashing) {
		t.Fatalf("expected ErrHashing, got %v", err)
	}
}

func TestHash_RespectsCancelledContextWhenSaturated(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)

	// hold the only slot
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := h.Hash(ctx, "Pass123!"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, err := h.Verify(ctx, "Pass123!", "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
