package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const auditLogsPath = "/v1/admin/audit-logs"

type AuditLogOptions struct {
	Page     int
	PageSize int
	UserID   string
	Action   string
}

func (o AuditLogOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.UserID != "" {
		q.Set("user_id", o.UserID)
	}
	if o.Action != "" {
		q.Set("action", o.Action)
	}
	return q
}

// ListAuditLogs returns the basic audit view.
func (c *Client) ListAuditLogs(ctx context.Context, opts AuditLogOptions) (*Page[AuditLog], error) {
	var page Page[AuditLog]
	if err := c.Do(ctx, http.MethodGet, withQuery(auditLogsPath, opts.query()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListEnhancedAuditLogs reads the same endpoint as ListAuditLogs but decodes the
// enhanced shape, with actor details and change sets.
func (c *Client) ListEnhancedAuditLogs(ctx context.Context, opts AuditLogOptions) (*EnhancedAuditLogPage, error) {
	var page EnhancedAuditLogPage
	if err := c.Do(ctx, http.MethodGet, withQuery(auditLogsPath, opts.query()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UsageStats returns platform usage over the last days days. Zero uses the
// backend's default window.
func (c *Client) UsageStats(ctx context.Context, days int) (*UsageStats, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var stats UsageStats
	if err := c.Do(ctx, http.MethodGet, withQuery("/v1/admin/stats/usage", q), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
