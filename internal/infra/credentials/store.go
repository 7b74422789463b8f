package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"

	"contentstudio/internal/infra"
	"contentstudio/internal/sqlinline"
)

const ProviderGemini = "gemini"

// Store is the process-wide credential source. Providers read the key once
// per call; absence is a recoverable condition the caller surfaces to the
// user, never a crash.
type Store interface {
	APIKey(ctx context.Context) (string, error)
	SetAPIKey(ctx context.Context, key string) error
	ClearAPIKey(ctx context.Context) error
}

// MemoryStore keeps the credential in process memory. It is the default when
// no database is configured and mirrors the original deployment where the
// key lived in the user's browser session.
type MemoryStore struct {
	mu  sync.RWMutex
	key string
}

// NewMemoryStore seeds the store with an optional initial key.
func NewMemoryStore(initial string) *MemoryStore {
	return &MemoryStore{key: strings.TrimSpace(initial)}
}

func (s *MemoryStore) APIKey(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, nil
}

func (s *MemoryStore) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is required")
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearAPIKey(ctx context.Context) error {
	s.mu.Lock()
	s.key = ""
	s.mu.Unlock()
	return nil
}

// SQLStore persists the credential in Postgres so it survives restarts and
// is shared across replicas.
type SQLStore struct {
	sql infra.SQLExecutor
}

func NewSQLStore(sql infra.SQLExecutor) *SQLStore {
	return &SQLStore{sql: sql}
}

func (s *SQLStore) APIKey(ctx context.Context) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectAPIKey, ProviderGemini)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *SQLStore) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertAPIKey, ProviderGemini, key)
	return err
}

func (s *SQLStore) ClearAPIKey(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteAPIKey, ProviderGemini)
	return err
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
