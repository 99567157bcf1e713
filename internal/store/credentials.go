package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/seplag/discoteca/internal/domain"
)

// Session keys
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "usuario"
)

// Credentials keeps the session tokens and profile in a key-value store.
// Token pairs are written and cleared together.
type Credentials struct {
	mu sync.RWMutex
	kv domain.KeyValueStore
}

func NewCredentials(kv domain.KeyValueStore) *Credentials {
	return &Credentials{kv: kv}
}

func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, _ := c.kv.Get(KeyAccessToken)
	return v
}

func (c *Credentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, _ := c.kv.Get(KeyRefreshToken)
	return v
}

// SaveTokens stores both tokens. An empty refresh token removes the stored one.
func (c *Credentials) SaveTokens(access, refresh string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(KeyAccessToken, access); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if refresh == "" {
		if err := c.kv.Delete(KeyRefreshToken); err != nil {
			return fmt.Errorf("failed to clear refresh token: %w", err)
		}
		return nil
	}
	if err := c.kv.Set(KeyRefreshToken, refresh); err != nil {
		c.kv.Delete(KeyAccessToken)
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// User returns the stored profile. A present but unreadable profile is
// reported as an error.
func (c *Credentials) User() (*domain.User, error) {
	c.mu.RLock()
	raw, ok := c.kv.Get(KeyUser)
	c.mu.RUnlock()
	if !ok || raw == "" {
		return nil, nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("failed to parse stored user: %w", err)
	}
	return &u, nil
}

func (c *Credentials) SaveUser(u *domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u == nil {
		return c.kv.Delete(KeyUser)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.kv.Set(KeyUser, string(data))
}

// Clear removes every session key. All deletes are attempted.
func (c *Credentials) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(
		c.kv.Delete(KeyAccessToken),
		c.kv.Delete(KeyRefreshToken),
		c.kv.Delete(KeyUser),
	)
}
