// Package session holds the client-side view of who is signed in.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/geocoder89/authhub/internal/client/api"
	"github.com/geocoder89/authhub/internal/domain/user"
)

// ErrSuperseded is returned by Signin when a Logout or a newer Signin landed
// while it was in flight. The newer state is kept.
var ErrSuperseded = errors.New("signin superseded")

type Status int

const (
	StatusResolving Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot. User is set only when Authenticated.
type State struct {
	Status    Status
	Token     string
	User      *user.Profile
	IsLoading bool
}

func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Authenticator is the subset of the API client the store drives.
type Authenticator interface {
	Signup(ctx context.Context, data api.SignupData) (user.Profile, error)
	Signin(ctx context.Context, creds api.Credentials) (string, error)
	Me(ctx context.Context, token string) (user.Profile, error)
}

type Store struct {
	api    Authenticator
	tokens TokenStore
	log    *slog.Logger

	mu        sync.Mutex
	state     State
	persisted string // mirror of what tokens holds
	epoch     uint64 // bumped by Logout and every Signin
	subs      map[int]func(State)
	nextSub   int

	notifyMu sync.Mutex
}

type Option func(*Store)

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(a Authenticator, tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		api:    a,
		tokens: tokens,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:  State{Status: StatusResolving, IsLoading: true},
		subs:   make(map[int]func(State)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every state change and returns a func that
// removes it. fn must not call back into Subscribe.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Mount resolves the persisted token, if any. A missing token settles to
// Unauthenticated with no network call. Resolution failures are silent: the
// token is dropped and the state becomes Unauthenticated.
func (s *Store) Mount(ctx context.Context) {
	if err := s.load(ctx, true); err != nil && !errors.Is(err, ErrSuperseded) {
		s.log.Debug("session resolution failed", "err", err)
	}
}

// MountAsync runs Mount in a goroutine; the returned channel closes when it
// has settled.
func (s *Store) MountAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Mount(ctx)
	}()
	return done
}

// CheckAuth re-runs resolution against whatever token is persisted now. The
// current state stays visible until the result is in.
func (s *Store) CheckAuth(ctx context.Context) {
	if err := s.load(ctx, false); err != nil && !errors.Is(err, ErrSuperseded) {
		s.log.Debug("session re-check failed", "err", err)
	}
}

// load reads the persisted token and resolves it. A Logout or Signin that
// lands while the token is being read wins; the load is then abandoned.
func (s *Store) load(ctx context.Context, initial bool) error {
	s.mu.Lock()
	mine := s.epoch
	s.mu.Unlock()

	tok, err := s.tokens.Load()
	if err != nil {
		s.log.Warn("load persisted token", "err", err)
		tok = ""
	}

	s.mu.Lock()
	if s.epoch != mine {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.persisted = tok

	if tok == "" {
		changed := initial || s.state.Status != StatusUnauthenticated
		if changed {
			s.state = State{Status: StatusUnauthenticated}
		}
		s.mu.Unlock()
		if changed {
			s.notify()
		}
		return nil
	}

	if !initial {
		s.mu.Unlock()
		return s.resolve(ctx, tok)
	}

	s.state = State{Status: StatusResolving, Token: tok, IsLoading: true}
	s.mu.Unlock()
	s.notify()

	return s.resolve(ctx, tok)
}

// Signin exchanges credentials for a token, persists it and resolves the
// profile. On failure nothing from this attempt is kept.
func (s *Store) Signin(ctx context.Context, creds api.Credentials) error {
	s.mu.Lock()
	s.epoch++
	mine := s.epoch
	s.state.IsLoading = true
	s.mu.Unlock()
	s.notify()

	tok, err := s.api.Signin(ctx, creds)

	s.mu.Lock()
	if s.epoch != mine {
		s.mu.Unlock()
		if err != nil {
			return err
		}
		return ErrSuperseded
	}
	if err != nil {
		s.state.IsLoading = false
		s.mu.Unlock()
		s.notify()
		return err
	}

	if err := s.tokens.Save(tok); err != nil {
		s.state.IsLoading = false
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.persisted = tok
	s.mu.Unlock()

	return s.resolve(ctx, tok)
}

// Signup registers an account. It never changes session state.
func (s *Store) Signup(ctx context.Context, data api.SignupData) (user.Profile, error) {
	return s.api.Signup(ctx, data)
}

// Logout drops the token and settles to Unauthenticated immediately. Any
// resolution still in flight is ignored when it returns.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.epoch++
	s.persisted = ""
	err := s.tokens.Clear()
	s.state = State{Status: StatusUnauthenticated}
	s.mu.Unlock()
	s.notify()

	return err
}

// resolve calls Me for tok and applies the result only if tok is still the
// persisted token.
func (s *Store) resolve(ctx context.Context, tok string) error {
	p, err := s.api.Me(ctx, tok)

	s.mu.Lock()
	if s.persisted != tok {
		s.mu.Unlock()
		return ErrSuperseded
	}

	if err != nil {
		s.persisted = ""
		if cerr := s.tokens.Clear(); cerr != nil {
			s.log.Warn("clear persisted token", "err", cerr)
		}
		s.state = State{Status: StatusUnauthenticated}
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.state = State{Status: StatusAuthenticated, Token: tok, User: &p}
	s.mu.Unlock()
	s.notify()
	return nil
}

// notify delivers the current state to every subscriber. notifyMu keeps
// deliveries ordered; a listener may see the same state twice, never an
// older one after a newer one.
func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	st := s.state
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
