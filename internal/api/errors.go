package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/seplag/discoteca/internal/domain"
)

// Messages shown when the response carries nothing usable
const (
	ConnectionErrorMessage = "Connection error. Check your network and try again."
	SessionExpiredMessage  = "Your session has expired. Please sign in again."
)

// Error is a non-2xx response from the backend
type Error struct {
	Status int
	Method string
	Path   string
	Body   []byte

	// Message is the human-readable text extracted from Body, if any
	Message string

	// Surfaced is set when the client already showed this error to the user
	Surfaced bool
}

func newError(req *request, resp *response) *Error {
	return &Error{
		Status:  resp.status,
		Method:  req.method,
		Path:    req.path,
		Body:    resp.body,
		Message: extractMessage(resp.body),
	}
}

func (e *Error) Error() string {
	text := e.Message
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, text)
}

// Is maps status codes onto the domain sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// IsSurfaced reports whether err was already shown to the user by the client
func IsSurfaced(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Surfaced
}

// StatusCode returns the HTTP status behind err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ErrorMessage returns the text to show for err. Backend messages win,
// then the connectivity and session messages, then fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if fallback != "" {
			return fallback
		}
		return apiErr.Error()
	}

	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return SessionExpiredMessage
	case errors.Is(err, domain.ErrServerOffline):
		return ConnectionErrorMessage
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// extractMessage reads a message from the known error body shapes: a plain
// string, or an object with message, error, detail or errors[0], in that order.
func extractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		text := string(trimmed)
		if strings.HasPrefix(text, "<") {
			return "" // HTML error page
		}
		return text
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, field := range []string{"message", "error", "detail"} {
			if s, ok := t[field].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		if list, ok := t["errors"].([]any); ok && len(list) > 0 {
			return itemMessage(list[0])
		}
	}
	return ""
}

func itemMessage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, field := range []string{"message", "defaultMessage"} {
			if s, ok := t[field].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
