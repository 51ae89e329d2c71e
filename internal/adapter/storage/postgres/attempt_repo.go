package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftcard-storefront/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AttemptRepo implements ports.AttemptRepository.
type AttemptRepo struct {
	pool Pool
}

// NewAttemptRepo creates a new AttemptRepo.
func NewAttemptRepo(pool Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Create inserts a new checkout attempt.
func (r *AttemptRepo) Create(ctx context.Context, a *domain.CheckoutAttempt) error {
	query := `INSERT INTO checkout_attempts (tx_ref, shopper_id, amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		a.TxRef, a.ShopperID, a.Amount, a.Currency, string(a.Status), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout attempt: %w", err)
	}
	return nil
}

// GetByTxRef fetches an attempt by its tx_ref. Returns nil, nil if absent.
func (r *AttemptRepo) GetByTxRef(ctx context.Context, txRef string) (*domain.CheckoutAttempt, error) {
	query := `SELECT tx_ref, shopper_id, amount, currency, status, provider_tx, created_at, resolved_at
		FROM checkout_attempts WHERE tx_ref = $1`

	a := &domain.CheckoutAttempt{}
	var status string
	var providerTx *string
	err := r.pool.QueryRow(ctx, query, txRef).Scan(
		&a.TxRef, &a.ShopperID, &a.Amount, &a.Currency, &status,
		&providerTx, &a.CreatedAt, &a.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkout attempt: %w", err)
	}
	a.Status = domain.AttemptStatus(status)
	if providerTx != nil {
		a.ProviderTx = *providerTx
	}
	return a, nil
}

// Resolve moves a pending attempt to status. It returns false when the
// attempt is missing or already resolved.
func (r *AttemptRepo) Resolve(ctx context.Context, txRef string, status domain.AttemptStatus, providerTx string, at time.Time) (bool, error) {
	query := `UPDATE checkout_attempts
		SET status = $2, provider_tx = NULLIF($3, ''), resolved_at = $4
		WHERE tx_ref = $1 AND status = $5`

	tag, err := r.pool.Exec(ctx, query,
		txRef, string(status), providerTx, at, string(domain.AttemptStatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("resolve checkout attempt: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
