package client

import (
	"context"
	"net/http"
	"net/url"
)

// ListAPIKeys returns the API keys owned by a user.
func (c *Client) ListAPIKeys(ctx context.Context, userID string) ([]APIKey, error) {
	var keys []APIKey
	path := "/v1/admin/users/" + url.PathEscape(userID) + "/api-keys"
	if err := c.Do(ctx, http.MethodGet, path, nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// RotateAPIKey replaces a key's secret. The returned key carries the new secret,
// which the backend will not show again.
func (c *Client) RotateAPIKey(ctx context.Context, keyID string) (*APIKey, error) {
	var key APIKey
	if err := c.Do(ctx, http.MethodPost, "/v1/admin/api-keys/"+url.PathEscape(keyID)+"/rotate", nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// RevokeAPIKey permanently disables a key.
func (c *Client) RevokeAPIKey(ctx context.Context, keyID string) error {
	return c.Do(ctx, http.MethodDelete, "/v1/admin/api-keys/"+url.PathEscape(keyID), nil, nil)
}
