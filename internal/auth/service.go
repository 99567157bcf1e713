package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/observable"
)

// SessionStore persists the session tokens and profile
type SessionStore interface {
	AccessToken() string
	RefreshToken() string
	SaveTokens(access, refresh string) error
	User() (*domain.User, error)
	SaveUser(u *domain.User) error
	Clear() error
}

// Service holds the session. Stored credentials and the authenticated flag
// always change together.
type Service struct {
	client domain.AuthRepository
	store  SessionStore
	logger *slog.Logger

	mu            sync.Mutex // guards session transitions; never held across network calls
	epoch         uint64     // bumped on every clear
	user          *observable.Value[*domain.User]
	authenticated *observable.Value[bool]
	loading       *observable.Value[bool]
}

// NewService creates the auth service and restores any persisted session.
func NewService(client domain.AuthRepository, store SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		client:        client,
		store:         store,
		logger:        logger,
		user:          observable.NewValue[*domain.User](nil),
		authenticated: observable.NewValue(false),
		loading:       observable.NewValue(false),
	}
	s.restore()
	return s
}

func (s *Service) restore() {
	if s.store.AccessToken() == "" {
		return
	}
	u, err := s.store.User()
	if err != nil {
		s.logger.Warn("ignoring unreadable stored user", "error", err)
		u = nil
	}
	s.user.Set(u)
	s.authenticated.Set(true)
	s.logger.Debug("session restored", "hasUser", u != nil)
}

func (s *Service) User() *observable.Value[*domain.User]  { return s.user }
func (s *Service) Authenticated() *observable.Value[bool] { return s.authenticated }
func (s *Service) Loading() *observable.Value[bool]       { return s.loading }

func (s *Service) IsAuthenticated() bool     { return s.authenticated.Get() }
func (s *Service) CurrentUser() *domain.User { return s.user.Get() }
func (s *Service) AccessToken() string       { return s.store.AccessToken() }
func (s *Service) HasRole(role string) bool  { return s.user.Get().HasRole(role) }

// Login exchanges credentials for a session and loads the profile.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	return s.start(ctx, "login", creds, s.client.Login)
}

// Register creates an account and signs in with it.
func (s *Service) Register(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	return s.start(ctx, "register", creds, s.client.Register)
}

func (s *Service) start(
	ctx context.Context,
	op string,
	creds domain.Credentials,
	exchange func(context.Context, domain.Credentials) (*domain.AuthResponse, error),
) (*domain.User, error) {
	s.loading.Set(true)
	defer s.loading.Set(false)

	resp, err := exchange(ctx, creds)
	if err != nil {
		s.logger.Error("authentication failed", "op", op, "username", creds.Username, "error", err)
		return nil, err
	}
	if resp.AccessToken == "" {
		err := fmt.Errorf("%s: response has no access token", op)
		s.logger.Error("authentication failed", "op", op, "error", err)
		return nil, err
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	// Nothing is stored until the profile is known
	user, err := s.client.GetProfileWithToken(ctx, resp.AccessToken)
	if err != nil {
		if resp.User == nil {
			s.logger.Error("failed to load profile", "op", op, "error", err)
			return nil, err
		}
		s.logger.Warn("profile fetch failed, using auth response user", "error", err)
		user = resp.User
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// The session was dropped while the profile was loading
		return nil, domain.ErrSessionExpired
	}
	// The user goes first: restore keys off the access token
	if err := s.store.SaveUser(user); err != nil {
		s.logger.Error("failed to persist user", "error", err)
		s.clearLocked()
		return nil, err
	}
	if err := s.store.SaveTokens(resp.AccessToken, resp.RefreshToken); err != nil {
		s.logger.Error("failed to persist tokens", "error", err)
		s.clearLocked()
		return nil, err
	}
	s.user.Set(user)
	s.authenticated.Set(true)
	s.logger.Info("signed in", "op", op, "username", user.Username)
	return user, nil
}

// Logout asks the backend to drop the session, then always clears it locally.
func (s *Service) Logout(ctx context.Context) {
	if s.store.AccessToken() != "" {
		if err := s.client.Logout(ctx); err != nil {
			s.logger.Warn("server logout failed, clearing local session anyway", "error", err)
		}
	}
	s.clear()
	s.logger.Info("signed out")
}

// HandleSessionExpired clears local state after the HTTP client gave up on
// refreshing. The client has already cleared the stored tokens.
func (s *Service) HandleSessionExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.logger.Warn("session expired")
}

func (s *Service) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Service) clearLocked() {
	s.epoch++
	if err := s.store.Clear(); err != nil {
		s.logger.Error("failed to clear stored session", "error", err)
	}
	s.user.Set(nil)
	s.authenticated.Set(false)
}

// RefreshProfile reloads the profile from the backend
func (s *Service) RefreshProfile(ctx context.Context) (*domain.User, error) {
	user, err := s.client.GetProfile(ctx)
	if err != nil {
		s.logger.Error("failed to refresh profile", "error", err)
		return nil, err
	}
	return user, s.storeUser(user)
}

func (s *Service) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.client.UpdateProfile(ctx, in)
	if err != nil {
		s.logger.Error("failed to update profile", "error", err)
		return nil, err
	}
	return user, s.storeUser(user)
}

func (s *Service) storeUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated.Get() {
		return nil
	}
	if err := s.store.SaveUser(user); err != nil {
		s.logger.Error("failed to persist user", "error", err)
		return err
	}
	s.user.Set(user)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, in domain.PasswordChange) error {
	if in.NewPassword == "" {
		return errors.New("new password must not be empty")
	}
	if err := s.client.ChangePassword(ctx, in); err != nil {
		s.logger.Error("failed to change password", "error", err)
		return err
	}
	s.logger.Info("password changed")
	return nil
}
