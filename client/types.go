package client

// Page is the {items, total} envelope used by the paginated admin endpoints.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Timestamps are kept as the strings the backend sends; some of them carry no zone.

// AdminUser is a platform account as seen by an administrator.
type AdminUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name,omitempty"`
	Role        string `json:"role,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at,omitempty"`
	LastLoginAt string `json:"last_login_at,omitempty"`
	APIKeyCount int    `json:"api_key_count,omitempty"`
}

// APIKey is a user's key. Key is only populated right after a rotation.
type APIKey struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Prefix     string `json:"prefix,omitempty"`
	Key        string `json:"key,omitempty"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at,omitempty"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

// PricingEntry is the per-model price the metering pipeline bills with.
type PricingEntry struct {
	Model            string  `json:"model"`
	Provider         string  `json:"provider,omitempty"`
	InputPricePer1K  float64 `json:"input_price_per_1k"`
	OutputPricePer1K float64 `json:"output_price_per_1k"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

// PricingSyncResult summarizes a pricing sync against the upstream providers.
type PricingSyncResult struct {
	Added     int    `json:"added"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Message   string `json:"message,omitempty"`
}

// Feedback statuses accepted by ListFeedback.
const (
	FeedbackOpen      = "open"
	FeedbackResponded = "responded"
	FeedbackClosed    = "closed"
)

type Feedback struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id,omitempty"`
	UserEmail   string `json:"user_email,omitempty"`
	Category    string `json:"category,omitempty"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	Response    string `json:"response,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	RespondedAt string `json:"responded_at,omitempty"`
}

// AuditLog is the basic audit-log row.
type AuditLog struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	Action    string `json:"action"`
	Resource  string `json:"resource,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	CreatedAt string `json:"created_at"`
}

type AuditActor struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// EnhancedAuditLog is the richer audit-log row served by the same endpoint.
type EnhancedAuditLog struct {
	ID           string         `json:"id"`
	Actor        *AuditActor    `json:"actor,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

// EnhancedAuditLogPage is the envelope of the enhanced audit view.
type EnhancedAuditLogPage struct {
	Logs     []EnhancedAuditLog `json:"logs"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type DailyUsage struct {
	Date     string  `json:"date"`
	Requests int64   `json:"requests"`
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
}

// UsageStats aggregates platform usage over the requested window.
type UsageStats struct {
	PeriodDays    int          `json:"period_days"`
	TotalRequests int64        `json:"total_requests"`
	TotalTokens   int64        `json:"total_tokens"`
	TotalCost     float64      `json:"total_cost"`
	ActiveUsers   int          `json:"active_users"`
	Daily         []DailyUsage `json:"daily,omitempty"`
}
