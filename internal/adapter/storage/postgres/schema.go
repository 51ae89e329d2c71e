package postgres

import (
	"context"
	"fmt"
)

// schema is applied in order at startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS vault_codes (
		id         BIGSERIAL PRIMARY KEY,
		pool_key   TEXT NOT NULL,
		position   BIGINT NOT NULL,
		code_enc   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vault_codes_pool_position ON vault_codes (pool_key, position)`,
	`CREATE TABLE IF NOT EXISTS checkout_attempts (
		tx_ref      TEXT PRIMARY KEY,
		shopper_id  UUID NOT NULL,
		amount      BIGINT NOT NULL CHECK (amount > 0),
		currency    TEXT NOT NULL,
		status      TEXT NOT NULL,
		provider_tx TEXT,
		created_at  TIMESTAMPTZ NOT NULL,
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_checkout_attempts_shopper ON checkout_attempts (shopper_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            UUID PRIMARY KEY,
		shopper_id    UUID,
		action        TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id   TEXT,
		details       JSONB,
		ip_address    TEXT,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_shopper ON audit_logs (shopper_id, created_at DESC)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
