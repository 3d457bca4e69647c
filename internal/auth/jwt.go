package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrEmptySecret    = errors.New("jwt secret must not be empty")
)

// Status is the outcome of verifying a session token.
type Status int

const (
	StatusValid Status = iota
	StatusMalformed
	StatusExpired
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusMalformed:
		return "malformed"
	case StatusExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Verification is the result of Manager.Verify. Subject is only set when
// Status is StatusValid.
type Verification struct {
	Status  Status
	Subject string
}

func (v Verification) Authenticated() bool {
	return v.Status == StatusValid
}

// Err maps the status onto the package sentinel errors; nil when valid.
func (v Verification) Err() error {
	switch v.Status {
	case StatusValid:
		return nil
	case StatusMalformed:
		return ErrTokenMalformed
	case StatusExpired:
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock swaps the time source used for issuing and expiry checks.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs an HS256 token whose only identity claim is sub.
func (m *Manager) Issue(subjectID string) (string, error) {
	now := m.now().UTC()

	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, algorithm and expiry. It never returns an error;
// callers branch on the returned status.
func (m *Manager) Verify(tokenStr string) Verification {
	claims := &jwt.RegisteredClaims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		// strict decoding rejects non-canonical base64, so edits to the unused
		// trailing bits of a segment still break verification
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Verification{Status: StatusMalformed}
	case errors.Is(err, jwt.ErrTokenExpired):
		return Verification{Status: StatusExpired}
	default:
		return Verification{Status: StatusInvalid}
	}

	if !token.Valid || claims.Subject == "" {
		return Verification{Status: StatusInvalid}
	}

	return Verification{Status: StatusValid, Subject: claims.Subject}
}
