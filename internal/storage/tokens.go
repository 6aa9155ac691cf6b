package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/credentials"
)

// TokenBackend persists credential tokens in their own table, apart from the kv snapshot.
type TokenBackend struct {
	db *DB
}

func NewTokenBackend(db *DB) *TokenBackend {
	return &TokenBackend{db: db}
}

func (b *TokenBackend) LoadTokens(ctx context.Context) (credentials.Tokens, bool, error) {
	var t credentials.Tokens
	err := b.db.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM secure_tokens WHERE id = 1`,
	).Scan(&t.Access, &t.Refresh)
	if errors.Is(err, sql.ErrNoRows) {
		return credentials.Tokens{}, false, nil
	}
	if err != nil {
		return credentials.Tokens{}, false, fmt.Errorf("failed to read tokens: %w", err)
	}
	return t, true, nil
}

func (b *TokenBackend) SaveTokens(ctx context.Context, t credentials.Tokens) error {
	query := `
		INSERT INTO secure_tokens (id, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := b.db.db.ExecContext(ctx, query, t.Access, t.Refresh); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	return nil
}

func (b *TokenBackend) ClearTokens(ctx context.Context) error {
	if _, err := b.db.db.ExecContext(ctx, `DELETE FROM secure_tokens`); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}
