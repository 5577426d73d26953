// Package auth owns the login lifecycle: it keeps the API client's bearer
// token and the persisted session in step.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/session"
	"ai-shopping-list/internal/validation"

	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned by calls that need a valid session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client is the subset of the API client the auth service needs.
type Client interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	GetProfile(ctx context.Context) (*api.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (bool, error)
	SetToken(token string)
	ClearToken()
}

type UserInfo struct {
	UserID   int64
	UserName string
}

// Service is safe for concurrent use.
type Service struct {
	client Client
	store  session.Store
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *session.Session
}

// NewService restores a stored session: a valid one puts its token on the
// client, an expired or unreadable one is cleared.
func NewService(ctx context.Context, client Client, store session.Store, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		client: client,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) restore(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return nil
	case err != nil:
		s.logger.Warn("discarding unreadable session", zap.Error(err))
		return s.clear(ctx)
	case !sess.Valid(s.now()):
		s.logger.Info("stored session expired", zap.Time("expires_at", sess.ExpiresAt))
		return s.clear(ctx)
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	s.client.SetToken(sess.AccessToken)
	s.logger.Debug("session restored", zap.Int64("user_id", sess.UserID))
	return nil
}

func (s *Service) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	if err := validation.ValidateRegister(req); err != nil {
		return nil, err
	}
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	if err := validation.ValidateLogin(req); err != nil {
		return nil, err
	}
	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) establish(ctx context.Context, resp *api.AuthResponse) error {
	sess, err := session.FromAuthResponse(resp)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	s.client.SetToken(sess.AccessToken)
	s.logger.Info("logged in", zap.Int64("user_id", sess.UserID), zap.Time("expires_at", sess.ExpiresAt))
	return nil
}

// Logout clears the token and every stored session key together.
func (s *Service) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

func (s *Service) clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.client.ClearToken()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Valid(s.now())
}

func (s *Service) UserInfo() (UserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.current.Valid(s.now()) {
		return UserInfo{}, false
	}
	return UserInfo{UserID: s.current.UserID, UserName: s.current.UserName}, true
}

// ExpiresAt returns the current session expiry, or the zero time.
func (s *Service) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return time.Time{}
	}
	return s.current.ExpiresAt
}

func (s *Service) GetUserProfile(ctx context.Context) (*api.UserProfileResponse, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	profile, err := s.client.GetProfile(ctx)
	if err != nil {
		s.HandleUnauthorized(ctx, err)
		return nil, err
	}
	return profile, nil
}

func (s *Service) UpdateUserProfile(ctx context.Context, req api.UpdateProfileRequest) error {
	if err := validation.ValidateProfile(req); err != nil {
		return err
	}
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	ok, err := s.client.UpdateProfile(ctx, req)
	if err != nil {
		s.HandleUnauthorized(ctx, err)
		return err
	}
	if !ok {
		return fmt.Errorf("profile update was rejected")
	}
	return nil
}

// HandleUnauthorized logs the user out when err is a 401 and reports
// whether it did.
func (s *Service) HandleUnauthorized(ctx context.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	s.logger.Info("session rejected by server, logging out")
	if cerr := s.clear(ctx); cerr != nil {
		s.logger.Warn("failed to clear session", zap.Error(cerr))
	}
	return true
}
