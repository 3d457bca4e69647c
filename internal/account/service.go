package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Store interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, hash string) (bool, error)
}

type TokenService interface {
	Issue(subjectID string) (string, error)
	Verify(token string) auth.Verification
}

// Service implements signup, signin and session resolution on top of a
// credential store. All cross-request state lives in the store.
type Service struct {
	store  Store
	hasher PasswordHasher
	tokens TokenService
	log    *slog.Logger
	prom   *observability.Prom
	tracer trace.Tracer

	dummyOnce sync.Once
	dummyHash string
}

func NewService(store Store, hasher PasswordHasher, tokens TokenService, log *slog.Logger, prom *observability.Prom) *Service {
	if log == nil {
		log = observability.NopLogger()
	}

	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		prom:   prom,
		tracer: observability.Tracer("account"),
	}
}

// Signup creates an identity and returns its public profile. No session is
// created; the caller signs in separately.
func (s *Service) Signup(ctx context.Context, email, name, password string) (user.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "account.signup")
	defer span.End()

	email = user.NormalizeEmail(email)

	_, err := s.store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.outcome(ctx, span, "signup", "duplicate_email")
		return user.Profile{}, ErrDuplicateEmail
	case !errors.Is(err, user.ErrNotFound):
		s.fail(ctx, span, "signup", err)
		return user.Profile{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hash(ctx, password)
	if err != nil {
		s.fail(ctx, span, "signup", err)
		return user.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	// a concurrent signup can still win between the pre-check and the insert;
	// the store's uniqueness rejection reports the same ErrDuplicateEmail
	u, err := s.store.Create(ctx, email, hash, name)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			s.outcome(ctx, span, "signup", "duplicate_email")
			return user.Profile{}, ErrDuplicateEmail
		}
		s.fail(ctx, span, "signup", err)
		return user.Profile{}, fmt.Errorf("create user: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", u.ID))
	s.outcome(ctx, span, "signup", "ok")

	return u.Profile(), nil
}

// Signin checks credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Signin(ctx context.Context, email, password string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "account.signin")
	defer span.End()

	u, err := s.store.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.fail(ctx, span, "signin", err)
			return "", fmt.Errorf("lookup email: %w", err)
		}

		// spend the same bcrypt time as a real compare
		if _, verr := s.verify(ctx, password, s.dummy()); verr != nil {
			s.fail(ctx, span, "signin", verr)
			return "", verr
		}
		s.outcome(ctx, span, "signin", "invalid_credentials")
		return "", ErrInvalidCredentials
	}

	ok, err := s.verify(ctx, password, u.PasswordHash)
	if err != nil {
		s.fail(ctx, span, "signin", err)
		return "", err
	}
	if !ok {
		s.outcome(ctx, span, "signin", "invalid_credentials")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.fail(ctx, span, "signin", err)
		return "", fmt.Errorf("issue token: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", u.ID))
	s.outcome(ctx, span, "signin", "ok")

	return token, nil
}

// ResolveSession maps a bearer token to the profile it identifies. Every
// token failure wraps ErrUnauthenticated together with the token subtype.
func (s *Service) ResolveSession(ctx context.Context, token string) (user.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "account.resolve")
	defer span.End()

	v := s.tokens.Verify(token)
	if !v.Authenticated() {
		s.outcome(ctx, span, "resolve", "token_"+v.Status.String())
		return user.Profile{}, fmt.Errorf("%w: %w", ErrUnauthenticated, v.Err())
	}

	u, err := s.store.GetByID(ctx, v.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.outcome(ctx, span, "resolve", "unknown_subject")
			return user.Profile{}, ErrUnknownSubject
		}
		s.fail(ctx, span, "resolve", err)
		return user.Profile{}, fmt.Errorf("lookup subject: %w", err)
	}

	s.outcome(ctx, span, "resolve", "ok")
	return u.Profile(), nil
}

func (s *Service) hash(ctx context.Context, plain string) (string, error) {
	start := time.Now()
	defer func() { s.prom.ObserveHash("hash", time.Since(start)) }()

	return s.hasher.Hash(ctx, plain)
}

func (s *Service) verify(ctx context.Context, plain, hash string) (bool, error) {
	start := time.Now()
	defer func() { s.prom.ObserveHash("verify", time.Since(start)) }()

	return s.hasher.Verify(ctx, plain, hash)
}

// fallbackDummyHash is a well-formed cost 10 bcrypt hash, compared against
// when the hasher cannot produce a dummy. Its result is never used.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// dummy lazily produces a real hash at the configured cost for the
// unknown-email path.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(context.Background(), "not-a-real-password-1!")
		if err != nil {
			s.log.Error("dummy hash failed, using fallback", "err", err)
			h = fallbackDummyHash
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) outcome(ctx context.Context, span trace.Span, op, result string) {
	s.prom.AuthEvent(op, result)
	span.SetAttributes(attribute.String("auth.result", result))
	s.log.InfoContext(ctx, "auth event", "op", op, "result", result)
}

func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) {
	s.prom.AuthEvent(op, "error")
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	s.log.ErrorContext(ctx, "auth operation failed", "op", op, "err", err)
}
