package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refreshAccessToken obtains a new access token after staleToken was rejected.
// Concurrent callers share one refresh. An empty result means no usable token could
// be obtained; the reason has already been handled (session cleared or left as is).
func (c *Client) refreshAccessToken(ctx context.Context, staleToken string) string {
	ch := c.refresh.DoChan("refresh", func() (any, error) {
		// The refresh outlives any single caller so a cancelled request cannot
		// abort it for the others waiting on the same result.
		return c.performRefresh(context.WithoutCancel(ctx), staleToken), nil
	})
	select {
	case res := <-ch:
		token, _ := res.Val.(string)
		return token
	case <-ctx.Done():
		return ""
	}
}

func (c *Client) performRefresh(ctx context.Context, staleToken string) string {
	// Another caller may already have rotated the pair while this one was waiting on
	// its own 401. Reuse that token instead of spending the refresh token again.
	current, err := c.session.AccessToken(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Could not read access token before refresh")
		return ""
	}
	if current != "" && current != staleToken {
		log.Debug().Msg("Access token already rotated, skipping refresh")
		return current
	}

	refreshToken, err := c.session.RefreshToken(ctx)
	if err != nil || refreshToken == "" {
		log.Debug().Err(err).Msg("No refresh token available")
		return ""
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return ""
	}
	status, body, err := c.send(ctx, http.MethodPost, refreshPath, nil, payload, "")
	if err != nil {
		log.Debug().Err(err).Msg("Token refresh failed to reach the server")
		return ""
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		log.Debug().Int("status", status).Msg("Refresh token rejected, clearing session")
		if err := c.session.Clear(ctx); err != nil {
			log.Debug().Err(err).Msg("Failed to clear session after rejected refresh")
		}
		return ""
	case !isSuccess(status):
		log.Debug().Int("status", status).Msg("Token refresh failed, keeping session")
		return ""
	}

	var pair tokenPair
	if err := json.Unmarshal(body, &pair); err != nil || pair.AccessToken == "" {
		log.Debug().Msg("Token refresh returned an unusable body")
		return ""
	}
	if err := c.session.SaveTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		log.Debug().Err(err).Msg("Failed to persist refreshed tokens")
		return ""
	}
	log.Debug().Msg("Access token refreshed")
	return pair.AccessToken
}
