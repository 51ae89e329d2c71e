package memory

import (
	"context"
	"sort"
	"sync"

	"giftcard-storefront/internal/core/domain"
)

// VaultRepo implements ports.VaultRepository with one FIFO slice per pool.
// Contents live as long as the process.
type VaultRepo struct {
	mu    sync.Mutex
	pools map[string][]string
}

// NewVaultRepo creates an empty VaultRepo.
func NewVaultRepo() *VaultRepo {
	return &VaultRepo{pools: make(map[string][]string)}
}

// Draw pops the front code of the pool.
func (r *VaultRepo) Draw(_ context.Context, poolKey string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := r.pools[poolKey]
	if len(q) == 0 {
		return "", false, nil
	}
	code := q[0]
	r.pools[poolKey] = q[1:]
	return code, true, nil
}

// Push appends codes to the back of the pool.
func (r *VaultRepo) Push(_ context.Context, poolKey string, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pools[poolKey] = append(r.pools[poolKey], codes...)
	return nil
}

// Return puts codes back at the front of the pool, keeping their order.
func (r *VaultRepo) Return(_ context.Context, poolKey string, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := make([]string, 0, len(codes)+len(r.pools[poolKey]))
	q = append(q, codes...)
	r.pools[poolKey] = append(q, r.pools[poolKey]...)
	return nil
}

// Stock lists every known pool, sorted by key.
func (r *VaultRepo) Stock(_ context.Context) ([]domain.PoolStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.pools))
	for k := range r.pools {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stock := make([]domain.PoolStock, 0, len(keys))
	for _, k := range keys {
		productID, amount, err := domain.ParsePoolKey(k)
		if err != nil {
			continue
		}
		stock = append(stock, domain.PoolStock{
			ProductID: productID,
			Amount:    amount,
			Remaining: int64(len(r.pools[k])),
		})
	}
	return stock, nil
}

// Snapshot returns a copy of one pool's queue.
func (r *VaultRepo) Snapshot(poolKey string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.pools[poolKey]...)
}
