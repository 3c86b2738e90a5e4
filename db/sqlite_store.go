package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SQLiteStore keeps the admin session in the local SQLite database so it survives
// between CLI invocations. It implements auth.Store.
type SQLiteStore struct {
	repo CredentialRepository
}

// NewSQLiteStore wraps an open database. Pass GetDB() after InitDB.
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{repo: NewCredentialRepository(db)}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	cred, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to load credential %s: %w", key, err)
	}
	if cred == nil {
		return "", false, nil
	}
	return cred.Value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to store credential %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete credential %s: %w", key, err)
	}
	return nil
}
