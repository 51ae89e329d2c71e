package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"giftcard-storefront/internal/core/domain"
)

// DocumentStore persists the shopper's JSON documents (cart, wallet).
// Get returns nil, nil when the key does not exist.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SaveAll writes every document or none of them.
	SaveAll(ctx context.Context, docs map[string][]byte) error
}

// VaultRepository holds the FIFO code pools keyed by domain.PoolKey.
// Draw must claim and remove the front code in a single step so that a
// code is never issued twice.
type VaultRepository interface {
	// Draw pops the front code. ok is false when the pool is depleted.
	Draw(ctx context.Context, poolKey string) (code string, ok bool, err error)
	// Push appends codes to the back of the pool, in order.
	Push(ctx context.Context, poolKey string, codes []string) error
	// Return puts codes back at the front of the pool, in order.
	Return(ctx context.Context, poolKey string, codes []string) error
	Stock(ctx context.Context) ([]domain.PoolStock, error)
}

// AttemptRepository persists checkout attempts.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *domain.CheckoutAttempt) error
	GetByTxRef(ctx context.Context, txRef string) (*domain.CheckoutAttempt, error)
	// Resolve moves a PENDING attempt to a terminal status.
	// Returns false if the attempt was no longer pending.
	Resolve(ctx context.Context, txRef string, status domain.AttemptStatus, providerTx string, at time.Time) (bool, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
