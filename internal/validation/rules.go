// Package validation holds the field rules shared by the API boundary and the
// client pre-validation. Both sides keep their own validator instance but read
// every constant and message from here so the rules cannot drift.
package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinNameLength     = 3
	MinPasswordLength = 8
	// bcrypt only looks at the first 72 bytes and rejects longer input.
	MaxPasswordBytes = 72

	PasswordSpecialChars = "@$!%*#?&"

	// PasswordTag is the validator tag registered by Register.
	PasswordTag = "password"
)

const (
	MsgInvalidEmail     = "Invalid email format"
	MsgNameTooShort     = "Name must be at least 3 characters"
	MsgPasswordTooShort = "Password must be at least 8 characters"
	MsgPasswordTooLong  = "Password must be at most 72 characters"
	MsgPasswordRequired = "Password is required"
	MsgPasswordRules    = "Password must contain at least one letter, one number, and one special character (@$!%*#?&)"
)

var (
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*#?&]+$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`\d`)
)

// ValidPassword reports whether p only uses the allowed charset and contains
// at least one letter, one digit and one special character. Length is checked
// separately by the min/max tags.
func ValidPassword(p string) bool {
	return passwordCharset.MatchString(p) &&
		hasLetter.MatchString(p) &&
		hasDigit.MatchString(p) &&
		strings.ContainsAny(p, PasswordSpecialChars)
}

// Register adds the password rule to a validator instance.
func Register(v *validator.Validate) error {
	return v.RegisterValidation(PasswordTag, func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
}

// Message returns the human readable message for a failed rule on a field
// (field is the JSON name). ok is false when no specific message exists.
func Message(field, rule string) (msg string, ok bool) {
	switch field {
	case "email":
		return MsgInvalidEmail, true
	case "name":
		return MsgNameTooShort, true
	case "password":
		switch rule {
		case "required":
			return MsgPasswordRequired, true
		case "min":
			return MsgPasswordTooShort, true
		case "max":
			return MsgPasswordTooLong, true
		case PasswordTag:
			return MsgPasswordRules, true
		}
	}
	return "", false
}
