package config

import (
	"encoding/json"
	"fmt"
)

// RedactedString holds a secret that must not end up in logs or printed config.
type RedactedString string

func (r RedactedString) String() string {
	if r == "" {
		return ""
	}
	return fmt.Sprintf("<redacted-%d-chars>", len(r))
}

func (r RedactedString) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r RedactedString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
