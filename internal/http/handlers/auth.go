package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Signup(ctx context.Context, email, name, password string) (user.Profile, error)
	Signin(ctx context.Context, email, password string) (string, error)
	ResolveSession(ctx context.Context, token string) (user.Profile, error)
}

type AuthHandler struct {
	accounts AccountService
	log      *slog.Logger
	timeout  time.Duration
}

func NewAuthHandler(accounts AccountService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		log:      log,
		// bcrypt dominates; leave room for queueing behind the hash limiter
		timeout: 5 * time.Second,
	}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignupRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.accounts.Signup(cctx, req.Email, req.Name, req.Password)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req user.SigninRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	token, err := h.accounts.Signin(cctx, req.Email, req.Password)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user.TokenResponse{AccessToken: token})
}

// Me handles GET /auth/me behind RequireAuth.
func (h *AuthHandler) Me(ctx *gin.Context) {
	p, ok := middlewares.ProfileFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", MsgUnauthorized)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// Fail is the AuthMiddleware error hook.
func (h *AuthHandler) Fail(ctx *gin.Context, err error) {
	h.fail(ctx, err)
}

func (h *AuthHandler) fail(ctx *gin.Context, err error) {
	RespondAccountError(ctx, h.log, err)
}
