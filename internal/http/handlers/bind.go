package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/geocoder89/authhub/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationDetails is the details payload of a 400. Messages repeats the
// field messages in order so clients can display them without walking Fields.
type ValidationDetails struct {
	Fields   []FieldError `json:"fields"`
	Messages []string     `json:"messages"`
}

// BindJSON decodes and validates the body into out. Unknown JSON fields are
// dropped. On failure a 400 has already been written and false is returned.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, out))

		return false
	}

	return true
}

func parseBindError(err error, out interface{}) interface{} {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)
	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		details := ValidationDetails{
			Fields:   make([]FieldError, 0, len(validatorError)),
			Messages: make([]string, 0, len(validatorError)),
		}

		for _, fieldError := range validatorError {
			field := jsonFieldName(rootType, fieldError.StructField())
			rule := fieldError.Tag()
			param := fieldError.Param()
			msg := validationMessage(field, rule, param)

			details.Fields = append(details.Fields, FieldError{
				Field:   field,
				Rule:    rule,
				Param:   param,
				Message: msg,
			})
			details.Messages = append(details.Messages, msg)
		}
		return details
	}

	// in the event of bad json
	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		return gin.H{
			"json":     "invalid_json_syntax",
			"messages": []string{"Request body is not valid JSON"},
		}
	}

	// in the event of a type mismatch
	var typeError *json.UnmarshalTypeError

	if errors.As(err, &typeError) {
		field := jsonFieldName(rootType, typeError.Field)
		msg := fmt.Sprintf("%s must be of type %s", field, typeError.Type.String())

		return ValidationDetails{
			Fields:   []FieldError{{Field: field, Rule: "type", Message: msg}},
			Messages: []string{msg},
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return gin.H{
			"json":     "body_too_large",
			"messages": []string{fmt.Sprintf("Request body must be at most %d bytes", tooLarge.Limit)},
		}
	}

	if errors.Is(err, io.EOF) {
		return gin.H{
			"json":     "empty_body",
			"messages": []string{"Request body is required"},
		}
	}

	return gin.H{"messages": []string{"Request body could not be read"}}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonFieldName maps a Go field name of a flat request struct to its JSON name.
func jsonFieldName(rootType reflect.Type, goName string) string {
	goName = strings.TrimSpace(goName)
	if rootType == nil || goName == "" {
		return goName
	}

	sf, ok := rootType.FieldByName(goName)
	if !ok {
		return goName
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func validationMessage(field, rule, param string) string {
	if msg, ok := validation.Message(field, rule); ok {
		return msg
	}

	switch rule {
	case "required":
		return field + " is required"
	case "email":
		return validation.MsgInvalidEmail
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	default:
		if param != "" {
			return fmt.Sprintf("%s failed %s validation (%s)", field, rule, param)
		}
		return field + " failed " + rule + " validation"
	}
}
