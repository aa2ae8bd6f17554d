package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the setting key has no stored or default value.
var ErrNotFound = errors.New("settings: not found")

// Known keys with storefront defaults. Unknown keys resolve only when an
// admin has stored a value for them.
const (
	KeySiteLogo     = "site_logo"
	KeySiteWhatsApp = "site_whatsapp"
)

var defaults = map[string]string{
	KeySiteLogo:     "/static/logo.png",
	KeySiteWhatsApp: "",
}

// Setting is one key/value pair of site configuration.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store abstracts settings persistence.
type Store interface {
	Get(ctx context.Context, key string) (Setting, error)
	Put(ctx context.Context, key, value string) (Setting, error)
}

// PGStore implements Store over Postgres with fallback to the built-in
// defaults when a key has never been written.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs the Postgres-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Get returns the stored value or the built-in default for known keys.
func (s *PGStore) Get(ctx context.Context, key string) (Setting, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if def, ok := defaults[key]; ok {
				return Setting{Key: key, Value: def}, nil
			}
			return Setting{}, fmt.Errorf("setting %s: %w", key, ErrNotFound)
		}
		return Setting{}, fmt.Errorf("get setting: %w", err)
	}
	return Setting{Key: key, Value: value}, nil
}

// Put upserts the value for a key.
func (s *PGStore) Put(ctx context.Context, key, value string) (Setting, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return Setting{}, fmt.Errorf("put setting: %w", err)
	}
	return Setting{Key: key, Value: value}, nil
}
