package account

import (
	"errors"

	"github.com/geocoder89/authhub/internal/domain/user"
)

var (
	// ErrDuplicateEmail is the same sentinel the stores return, so a
	// uniqueness rejection from the database needs no translation.
	ErrDuplicateEmail = user.ErrDuplicateEmail

	// ErrInvalidCredentials never says whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated wraps one of the auth token errors.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnknownSubject means the token was valid but its identity is gone.
	ErrUnknownSubject = errors.New("unknown subject")
)
