package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// User is the admin profile returned by the login endpoint and cached next to the tokens.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Session reads and writes the admin credentials through a Store.
type Session struct {
	Store Store
}

// NewSession is the constructor for Session.
func NewSession(store Store) *Session {
	return &Session{Store: store}
}

// AccessToken returns the stored access token, or "" when there is none.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when there is none.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

// SaveTokens stores a new access token. The refresh token is only overwritten
// when the server handed out a new one.
func (s *Session) SaveTokens(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.Store.Set(ctx, KeyAccessToken, accessToken); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if refreshToken == "" {
		return nil
	}
	if err := s.Store.Set(ctx, KeyRefreshToken, refreshToken); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// SaveUser caches the admin profile as JSON.
func (s *Session) SaveUser(ctx context.Context, user *User) error {
	if user == nil {
		return s.Store.Remove(ctx, KeyUser)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}
	if err := s.Store.Set(ctx, KeyUser, string(data)); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

// User returns the cached admin profile, or nil when nobody is logged in.
func (s *Session) User(ctx context.Context) (*User, error) {
	raw, err := s.get(ctx, KeyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("cached user profile is corrupt: %w", err)
	}
	return &user, nil
}

// Clear removes the tokens and the cached profile. It attempts every key even
// when one removal fails.
func (s *Session) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := s.Store.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	value, found, err := s.Store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return "", nil
	}
	return value, nil
}
