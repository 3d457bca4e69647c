package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/authhub/internal/account"
	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type fakeAccounts struct {
	signupErr  error
	signinErr  error
	resolveErr error
	profile    user.Profile
	token      string

	signupCalls int
}

func (f *fakeAccounts) Signup(_ context.Context, email, name, _ string) (user.Profile, error) {
	f.signupCalls++
	if f.signupErr != nil {
		return user.Profile{}, f.signupErr
	}
	return user.Profile{ID: "u1", Email: email, Name: name}, nil
}

func (f *fakeAccounts) Signin(context.Context, string, string) (string, error) {
	return f.token, f.signinErr
}

func (f *fakeAccounts) ResolveSession(context.Context, string) (user.Profile, error) {
	return f.profile, f.resolveErr
}

func authRouter(t *testing.T, accounts *fakeAccounts) *gin.Engine {
	t.Helper()
	setupRules(t)

	h := handlers.NewAuthHandler(accounts, observability.NopLogger())
	mw := middlewares.NewAuthMiddleware(accounts, h.Fail)

	r := gin.New()
	r.Use(middlewares.RequestID())
	r.POST("/auth/signup", h.SignUp)
	r.POST("/auth/signin", h.SignIn)
	r.GET("/auth/me", mw.RequireAuth(), h.Me)
	return r
}

type errorBody struct {
	Error handlers.APIError `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.APIError {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
	return body.Error
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"created", nil, http.StatusCreated, ""},
		{"duplicate", account.ErrDuplicateEmail, http.StatusConflict, handlers.MsgEmailExists},
		{"wrapped store failure", fmt.Errorf("create user: %w", errors.New("db down")), http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(t, &fakeAccounts{signupErr: tt.err})

			w := postJSON(r, "/auth/signup", `{"email":"u@x.com","name":"Ann","password":"Pass123!"}`)
			if w.Code != tt.wantStatus {
				t.Fatalf("got %d want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantMsg == "" {
				var p user.Profile
				if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if p != (user.Profile{ID: "u1", Email: "u@x.com", Name: "Ann"}) {
					t.Fatalf("unexpected profile: %+v", p)
				}
				return
			}

			apiErr := decodeError(t, w)
			if apiErr.Message != tt.wantMsg {
				t.Fatalf("message: got %q want %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.RequestID == "" {
				t.Fatalf("expected request id in error envelope")
			}
		})
	}
}

func TestSignUp_InvalidBodyNeverReachesService(t *testing.T) {
	accounts := &fakeAccounts{}
	r := authRouter(t, accounts)

	w := postJSON(r, "/auth/signup", `{"email":"u@x.com","name":"Ann","password":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d", w.Code)
	}
	if accounts.signupCalls != 0 {
		t.Fatalf("service must not be called for invalid input")
	}
}

func TestSignIn(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := authRouter(t, &fakeAccounts{token: "a.b.c"})

		w := postJSON(r, "/auth/signin", `{"email":"u@x.com","password":"anything"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("got %d body=%s", w.Code, w.Body.String())
		}

		var resp map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["access_token"] != "a.b.c" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		r := authRouter(t, &fakeAccounts{signinErr: account.ErrInvalidCredentials})

		w := postJSON(r, "/auth/signin", `{"email":"u@x.com","password":"wrong"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got %d", w.Code)
		}
		if msg := decodeError(t, w).Message; msg != handlers.MsgInvalidCredentials {
			t.Fatalf("got %q", msg)
		}
	})

	t.Run("missing password", func(t *testing.T) {
		r := authRouter(t, &fakeAccounts{})

		w := postJSON(r, "/auth/signin", `{"email":"u@x.com"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got %d", w.Code)
		}
	})
}

func TestMe(t *testing.T) {
	tests := []struct {
		name       string
		resolveErr error
		wantStatus int
	}{
		{"ok", nil, http.StatusOK},
		{"malformed", fmt.Errorf("%w: %w", account.ErrUnauthenticated, auth.ErrTokenMalformed), http.StatusUnauthorized},
		{"expired", fmt.Errorf("%w: %w", account.ErrUnauthenticated, auth.ErrTokenExpired), http.StatusUnauthorized},
		{"invalid", fmt.Errorf("%w: %w", account.ErrUnauthenticated, auth.ErrTokenInvalid), http.StatusUnauthorized},
		{"unknown subject", account.ErrUnknownSubject, http.StatusUnauthorized},
		{"store down", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &fakeAccounts{
				profile:    user.Profile{ID: "u1", Email: "u@x.com", Name: "Ann"},
				resolveErr: tt.resolveErr,
			}
			r := authRouter(t, accounts)

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.Header.Set("Authorization", "Bearer a.b.c")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got %d want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusUnauthorized {
				// every token failure looks the same to the caller
				if msg := decodeError(t, w).Message; msg != handlers.MsgUnauthorized {
					t.Fatalf("got %q", msg)
				}
			}
		})
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := handlers.NewHealthHandler(
		handlers.ReadinessCheck{Name: "store", Check: func(context.Context) error { return nil }},
		handlers.ReadinessCheck{Name: "redis", Check: func(context.Context) error { return errors.New("down") }},
	)

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz: got %d body=%s", w.Code, w.Body.String())
	}
}
