package handlers

import (
	"errors"
	"log/slog"

	"github.com/geocoder89/authhub/internal/account"
	"github.com/gin-gonic/gin"
)

const (
	MsgEmailExists        = "Email already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUnauthorized       = "Unauthorized"
)

// RespondAccountError is the one place account errors become HTTP statuses.
// Token subtypes and unknown subjects all collapse into the same 401.
func RespondAccountError(ctx *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, account.ErrDuplicateEmail):
		RespondConflict(ctx, "email_exists", MsgEmailExists)
	case errors.Is(err, account.ErrInvalidCredentials):
		RespondUnauthorized(ctx, "invalid_credentials", MsgInvalidCredentials)
	case errors.Is(err, account.ErrUnauthenticated), errors.Is(err, account.ErrUnknownSubject):
		RespondUnauthorized(ctx, "unauthorized", MsgUnauthorized)
	default:
		log.ErrorContext(ctx.Request.Context(), "request failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Something went wrong")
	}
}
