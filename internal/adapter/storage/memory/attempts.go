package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"giftcard-storefront/internal/core/domain"
)

// AttemptRepo implements ports.AttemptRepository in process memory.
type AttemptRepo struct {
	mu       sync.RWMutex
	attempts map[string]domain.CheckoutAttempt
}

// NewAttemptRepo creates an empty AttemptRepo.
func NewAttemptRepo() *AttemptRepo {
	return &AttemptRepo{attempts: make(map[string]domain.CheckoutAttempt)}
}

// Create stores a new attempt. tx_ref must be unique.
func (r *AttemptRepo) Create(_ context.Context, attempt *domain.CheckoutAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attempts[attempt.TxRef]; exists {
		return fmt.Errorf("duplicate tx_ref %s", attempt.TxRef)
	}
	r.attempts[attempt.TxRef] = *attempt
	return nil
}

// GetByTxRef returns a copy of the attempt, or nil if unknown.
func (r *AttemptRepo) GetByTxRef(_ context.Context, txRef string) (*domain.CheckoutAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.attempts[txRef]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// Resolve moves a pending attempt to status.
func (r *AttemptRepo) Resolve(_ context.Context, txRef string, status domain.AttemptStatus, providerTx string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[txRef]
	if !ok || a.Status != domain.AttemptStatusPending {
		return false, nil
	}
	a.Status = status
	a.ProviderTx = providerTx
	a.ResolvedAt = &at
	r.attempts[txRef] = a
	return true, nil
}
