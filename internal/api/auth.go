package api

import (
	"context"
	"net/http"

	"github.com/seplag/discoteca/internal/domain"
)

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{creds.Username, creds.Password}
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its token pair
func (c *Client) Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/register", nil, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the session on the backend
func (c *Client) Logout(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// GetProfile returns the signed-in user
func (c *Client) GetProfile(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.getJSON(ctx, "/usuarios/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetProfileWithToken returns the user behind accessToken without touching
// the stored session
func (c *Client) GetProfileWithToken(ctx context.Context, accessToken string) (*domain.User, error) {
	req, err := newJSONRequest(http.MethodGet, "/usuarios/me", nil, nil)
	if err != nil {
		return nil, err
	}
	req.token = accessToken
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := decode(body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	var u domain.User
	if err := c.sendJSON(ctx, http.MethodPut, "/usuarios/me", nil, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ChangePassword(ctx context.Context, in domain.PasswordChange) error {
	return c.sendJSON(ctx, http.MethodPut, "/usuarios/me/senha", nil, in, nil)
}
