package postgres

import (
	"context"
	"fmt"
)

// HealthCheck implements ports.HealthChecker for PostgreSQL. Besides
// connectivity it checks that the vault table exists, which catches a
// database that was reset after startup.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping runs a catalog lookup for the vault table.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var present bool
	if err := h.pool.QueryRow(ctx, `SELECT to_regclass('vault_codes') IS NOT NULL`).Scan(&present); err != nil {
		return fmt.Errorf("postgres probe: %w", err)
	}
	if !present {
		return fmt.Errorf("postgres probe: vault_codes table missing")
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
