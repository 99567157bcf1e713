package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seplag/discoteca/internal/domain"
)

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "", want: ""},
		{name: "plain text", body: "Artist not found", want: "Artist not found"},
		{name: "json string", body: `"Album not found"`, want: "Album not found"},
		{name: "message first", body: `{"error":"Bad Request","message":"Title is required"}`, want: "Title is required"},
		{name: "error second", body: `{"error":"Forbidden","detail":"no access"}`, want: "Forbidden"},
		{name: "detail third", body: `{"message":"","detail":"Photo too large"}`, want: "Photo too large"},
		{name: "errors string", body: `{"errors":["nome: required","tipo: invalid"]}`, want: "nome: required"},
		{name: "errors object", body: `{"errors":[{"field":"titulo","defaultMessage":"must not be blank"}]}`, want: "must not be blank"},
		{name: "html page", body: "<html><body>502</body></html>", want: ""},
		{name: "no known field", body: `{"status":500}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMessage([]byte(tt.body)))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	withBody := &Error{Status: http.StatusConflict, Method: "POST", Path: "/artistas", Message: "Artist already exists"}
	noBody := &Error{Status: http.StatusInternalServerError, Method: "GET", Path: "/albuns"}

	assert.Equal(t, "", ErrorMessage(nil, "fallback"))
	assert.Equal(t, "Artist already exists", ErrorMessage(fmt.Errorf("create: %w", withBody), "fallback"))
	assert.Equal(t, "Could not load albums", ErrorMessage(noBody, "Could not load albums"))
	assert.Equal(t, "GET /albuns: 500 Internal Server Error", ErrorMessage(noBody, ""))
	assert.Equal(t, ConnectionErrorMessage, ErrorMessage(fmt.Errorf("%w: refused", domain.ErrServerOffline), ""))
	assert.Equal(t, SessionExpiredMessage, ErrorMessage(domain.ErrSessionExpired, "fallback"))
	assert.Equal(t, "fallback", ErrorMessage(errors.New("weird"), "fallback"))
}

func TestErrorIsMapsStatus(t *testing.T) {
	assert.ErrorIs(t, &Error{Status: 404}, domain.ErrNotFound)
	assert.ErrorIs(t, &Error{Status: 401}, domain.ErrUnauthorized)
	assert.ErrorIs(t, &Error{Status: 429}, domain.ErrRateLimited)
	assert.NotErrorIs(t, &Error{Status: 500}, domain.ErrNotFound)
	assert.Equal(t, 404, StatusCode(fmt.Errorf("wrap: %w", &Error{Status: 404})))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}
