// Package guard decides what a protected view shows for a session state.
package guard

import (
	"sync"

	"github.com/geocoder89/authhub/internal/client/session"
)

// SigninPath is where unauthenticated visitors are sent.
const SigninPath = "/signin"

type Outcome int

const (
	Loading Outcome = iota
	Redirect
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

type Decision struct {
	Outcome Outcome
	// Target is set for Redirect.
	Target string
	// User is set for Render.
	User string
}

// Evaluate is a pure function of the session state. Nothing protected is
// admitted until the state is Authenticated and settled.
func Evaluate(st session.State) Decision {
	switch {
	case st.Status == session.StatusResolving || st.IsLoading:
		return Decision{Outcome: Loading}
	case st.Authenticated():
		return Decision{Outcome: Render, User: st.User.ID}
	default:
		return Decision{Outcome: Redirect, Target: SigninPath}
	}
}

// Source is what Watch needs from a session store.
type Source interface {
	State() session.State
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// Watch calls fn with the current decision and again after every state
// change. The initial decision is dropped if a change was already delivered,
// so fn never sees an older decision after a newer one. The returned func
// stops watching.
func Watch(src Source, fn func(Decision)) (stop func()) {
	var (
		mu   sync.Mutex
		seen bool
	)

	unsubscribe := src.Subscribe(func(st session.State) {
		mu.Lock()
		defer mu.Unlock()
		seen = true
		fn(Evaluate(st))
	})

	initial := Evaluate(src.State())

	mu.Lock()
	if !seen {
		fn(initial)
	}
	mu.Unlock()

	return unsubscribe
}
