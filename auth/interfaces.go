package auth

import "context"

// Keys under which the admin session is persisted.
const (
	KeyAccessToken  = "admin_access_token"
	KeyRefreshToken = "admin_refresh_token"
	KeyUser         = "admin_user"
)

// Store defines the contract for any component that can keep the admin credentials.
// Get reports found=false for a missing key; that is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
