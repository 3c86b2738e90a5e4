package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// User status filters accepted by ListUsers.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// ListUsersOptions filters and paginates ListUsers. Zero values are omitted.
type ListUsersOptions struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

func (o ListUsersOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}

// ListUsers returns one page of platform users.
func (c *Client) ListUsers(ctx context.Context, opts ListUsersOptions) (*Page[AdminUser], error) {
	var page Page[AdminUser]
	if err := c.Do(ctx, http.MethodGet, withQuery("/v1/admin/users", opts.query()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetUser fetches a single user by ID.
func (c *Client) GetUser(ctx context.Context, id string) (*AdminUser, error) {
	var user AdminUser
	if err := c.Do(ctx, http.MethodGet, "/v1/admin/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserActive enables or disables a user account and returns the updated user.
func (c *Client) SetUserActive(ctx context.Context, id string, active bool) (*AdminUser, error) {
	body := map[string]bool{"is_active": active}
	var user AdminUser
	if err := c.Do(ctx, http.MethodPatch, "/v1/admin/users/"+url.PathEscape(id), body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
