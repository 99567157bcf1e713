package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrServerOffline indicates the backend is unreachable
	ErrServerOffline = errors.New("backend is unreachable")

	// ErrUnauthorized indicates the request was rejected for missing or bad credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired indicates the refresh flow failed and the session was dropped
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken indicates a refresh was needed but none is stored
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// ErrRateLimited indicates the backend kept answering 429 after all retries
	ErrRateLimited = errors.New("rate limit exceeded")
)
