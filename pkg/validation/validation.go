package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	MinThreads = 1
	MaxThreads = 20

	// APIPrefix is the versioned prefix every admin API path lives under.
	APIPrefix = "/v1/"
)

func ValidateThreadCount(threads int) error {
	if threads < MinThreads || threads > MaxThreads {
		return fmt.Errorf("thread count must be between %d and %d, got %d", MinThreads, MaxThreads, threads)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateAPIPath checks that path is a relative API path under APIPrefix.
func ValidateAPIPath(path string) error {
	if !strings.HasPrefix(path, APIPrefix) {
		return fmt.Errorf("path must start with %s, got %q", APIPrefix, path)
	}
	route, _, _ := strings.Cut(path, "?")
	for _, segment := range strings.Split(route, "/") {
		if segment == ".." {
			return fmt.Errorf("path must not contain '..' segments: %q", path)
		}
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address: %s", email)
	}
	return nil
}

func ValidateFeedbackStatus(status string) error {
	validStatuses := map[string]bool{
		"":          true,
		"open":      true,
		"responded": true,
		"closed":    true,
	}
	if !validStatuses[status] {
		return fmt.Errorf("invalid feedback status: %s (must be one of: open, responded, closed)", status)
	}
	return nil
}

func ValidateUserStatus(status string) error {
	validStatuses := map[string]bool{
		"":         true,
		"active":   true,
		"inactive": true,
	}
	if !validStatuses[status] {
		return fmt.Errorf("invalid user status: %s (must be one of: active, inactive)", status)
	}
	return nil
}

func ValidateDays(days int) error {
	if days < 1 || days > 365 {
		return fmt.Errorf("days must be between 1 and 365, got %d", days)
	}
	return nil
}
