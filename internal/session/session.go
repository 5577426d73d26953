// Package session persists the authenticated user's token between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-shopping-list/internal/api"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned by Load when nothing is stored.
var ErrNoSession = errors.New("no session stored")

// Session is the persisted authentication state.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	UserID      int64
	UserName    string
}

// Valid reports whether the session can still authenticate requests.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Before(s.ExpiresAt)
}

// Store loads, saves and clears the session. Token, expiry and user info
// are always written and removed together.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// FromAuthResponse converts a login/register response into a Session. When
// the server omits expiresAt the token's exp claim is used instead.
func FromAuthResponse(resp *api.AuthResponse) (Session, error) {
	if resp == nil || resp.AccessToken == "" {
		return Session{}, fmt.Errorf("auth response carries no access token")
	}

	s := Session{
		AccessToken: resp.AccessToken,
		UserID:      resp.UserID,
		UserName:    resp.UserName,
	}

	if resp.ExpiresAt != "" {
		for _, layout := range expiryLayouts {
			// Zone-less timestamps from the server are UTC.
			if t, err := time.ParseInLocation(layout, resp.ExpiresAt, time.UTC); err == nil {
				s.ExpiresAt = t.UTC()
				return s, nil
			}
		}
	}

	exp, err := ExpiryFromToken(resp.AccessToken)
	if err != nil {
		return Session{}, fmt.Errorf("failed to determine session expiry: %w", err)
	}
	s.ExpiresAt = exp
	return s, nil
}

// ExpiryFromToken reads the exp claim of a JWT without verifying it. The
// server is the only party that can verify; the client only needs to know
// when to stop sending the token.
func ExpiryFromToken(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.UTC(), nil
}
