package client

import (
	"context"
	"net/http"
	"net/url"
)

// ListFeedback returns user feedback, optionally filtered by status.
func (c *Client) ListFeedback(ctx context.Context, status string) ([]Feedback, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var items []Feedback
	if err := c.Do(ctx, http.MethodGet, withQuery("/v1/admin/feedback", q), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RespondToFeedback posts an administrator's reply to a feedback entry.
func (c *Client) RespondToFeedback(ctx context.Context, id, message string) (*Feedback, error) {
	body := map[string]string{"response": message}
	var item Feedback
	if err := c.Do(ctx, http.MethodPut, "/v1/admin/feedback/"+url.PathEscape(id)+"/response", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
