package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// APIError is a non-2xx response. Status is 0 for transport failures and for
// input rejected by local pre-validation.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Messages  []string
	Err       error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Display()
	}
	return http.StatusText(e.Status) + ": " + e.Display()
}

func (e *APIError) Unwrap() error { return e.Err }

// Display is the single line shown to a user. Field messages win over the
// generic envelope message.
func (e *APIError) Display() string {
	if len(e.Messages) > 0 {
		return strings.Join(e.Messages, ", ")
	}
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

type envelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
		Details   struct {
			Messages []string `json:"messages"`
			Fields   []struct {
				Message string `json:"message"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decodeAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		e.Message = strings.TrimSpace(string(raw))
		return e
	}

	e.Code = env.Error.Code
	e.Message = env.Error.Message
	e.RequestID = env.Error.RequestID
	e.Messages = env.Error.Details.Messages

	if len(e.Messages) == 0 {
		for _, f := range env.Error.Details.Fields {
			if f.Message != "" {
				e.Messages = append(e.Messages, f.Message)
			}
		}
	}

	return e
}
