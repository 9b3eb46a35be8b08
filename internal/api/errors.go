package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

const (
	msgRequestFailed = "Request failed"
	msgGeneric       = "Something went wrong"
)

// Error is returned for every non-2xx response. Message is suitable for
// showing to the user.
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func newError(method, path string, status int, body []byte) *Error {
	return &Error{Status: status, Method: method, Path: path, Message: errorMessage(body)}
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return msgRequestFailed
	}
	if payload.Message == "" {
		return msgGeneric
	}
	return payload.Message
}
