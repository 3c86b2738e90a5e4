package client

import (
	"context"
	"net/http"
)

func (c *Client) ListPricing(ctx context.Context) ([]PricingEntry, error) {
	var entries []PricingEntry
	if err := c.Do(ctx, http.MethodGet, "/v1/admin/pricing", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SyncPricing asks the backend to pull current model prices from the providers.
func (c *Client) SyncPricing(ctx context.Context) (*PricingSyncResult, error) {
	var result PricingSyncResult
	if err := c.Do(ctx, http.MethodPost, "/v1/admin/pricing/sync", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
