package api

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/geocoder89/authhub/internal/validation"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		// the rule is a fixed function; registration only fails on an empty tag
		_ = validation.Register(v)
		validate = v
	})
	return validate
}

// ValidateSignup checks data with the same rules the server applies. It saves
// a round trip; the server still validates.
func ValidateSignup(data SignupData) error {
	return check(data)
}

func ValidateSignin(creds Credentials) error {
	return check(creds)
}

func check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &APIError{Status: 0, Code: "invalid_request", Message: "Invalid request body"}
	for _, fe := range verrs {
		msg, ok := validation.Message(fe.Field(), fe.Tag())
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out.Messages = append(out.Messages, msg)
	}
	return out
}
