package db

import "time"

// Credential is one persisted session value, keyed by the auth store key.
type Credential struct {
	Key       string `gorm:"primaryKey;column:name"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}
