package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/habedi/meterctl/auth"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what a successful Login persisted.
type LoginResult struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         *auth.User `json:"user,omitempty"`
}

// Login authenticates an operator and checks that the account holds admin
// privileges. Credentials are only persisted when both steps succeed.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	log.Debug().Str("email", email).Msg("Logging in")
	status, body, err := c.send(ctx, http.MethodPost, loginPath, nil, payload, "")
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, loginError(status)
	}

	var result LoginResult
	if err := json.Unmarshal(body, &result); err != nil || result.AccessToken == "" {
		return nil, &APIError{Status: http.StatusBadGateway, Message: MsgServerUnavailable}
	}

	// Authentication alone does not grant access; the account must pass the admin check.
	verifyStatus, _, err := c.send(ctx, http.MethodGet, verifyPath, nil, nil, result.AccessToken)
	if err != nil || !isSuccess(verifyStatus) {
		log.Debug().Int("status", verifyStatus).Err(err).Msg("Admin verification failed")
		if clearErr := c.session.Clear(ctx); clearErr != nil {
			log.Debug().Err(clearErr).Msg("Failed to clear session after verification failure")
		}
		return nil, &APIError{Status: http.StatusForbidden, Message: MsgAccessDenied}
	}

	// Drop whatever a previous session left behind before storing the new pair.
	if err := c.session.Clear(ctx); err != nil {
		return nil, err
	}
	if err := c.session.SaveTokens(ctx, result.AccessToken, result.RefreshToken); err != nil {
		return nil, err
	}
	if err := c.session.SaveUser(ctx, result.User); err != nil {
		return nil, err
	}
	log.Debug().Msg("Login succeeded")
	return &result, nil
}

// Logout forgets the stored credentials and the cached profile.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

// CurrentUser returns the cached profile of the logged-in operator, or nil.
func (c *Client) CurrentUser(ctx context.Context) (*auth.User, error) {
	return c.session.User(ctx)
}
