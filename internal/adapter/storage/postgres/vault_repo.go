package postgres

import (
	"context"
	"errors"
	"fmt"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// VaultRepo implements ports.VaultRepository. Each pool is the set of
// vault_codes rows sharing a pool_key, ordered by position. Codes are
// stored AES-GCM encrypted.
type VaultRepo struct {
	pool   Pool
	encSvc ports.EncryptionService
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(pool Pool, encSvc ports.EncryptionService) *VaultRepo {
	return &VaultRepo{pool: pool, encSvc: encSvc}
}

// Draw claims and deletes the front row of the pool in one statement.
// SKIP LOCKED lets concurrent draws take the next code instead of waiting.
func (r *VaultRepo) Draw(ctx context.Context, poolKey string) (string, bool, error) {
	query := `DELETE FROM vault_codes WHERE id = (
			SELECT id FROM vault_codes WHERE pool_key = $1
			ORDER BY position LIMIT 1
			FOR UPDATE SKIP LOCKED
		) RETURNING code_enc`

	var codeEnc string
	if err := r.pool.QueryRow(ctx, query, poolKey).Scan(&codeEnc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("draw vault code: %w", err)
	}

	code, err := r.encSvc.Decrypt(codeEnc)
	if err != nil {
		return "", false, fmt.Errorf("decrypt vault code: %w", err)
	}
	return code, true, nil
}

// Push appends codes at the back of the pool, in order.
func (r *VaultRepo) Push(ctx context.Context, poolKey string, codes []string) error {
	return r.insert(ctx, poolKey, codes,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM vault_codes WHERE pool_key = $1`, 0)
}

// Return puts codes back at the front of the pool, keeping their order.
func (r *VaultRepo) Return(ctx context.Context, poolKey string, codes []string) error {
	return r.insert(ctx, poolKey, codes,
		`SELECT COALESCE(MIN(position), 1) FROM vault_codes WHERE pool_key = $1`, int64(len(codes)))
}

// insert writes codes at positions start-shift, start-shift+1, ...
// where start comes from startQuery. The pool's advisory lock keeps
// concurrent writers from picking the same positions.
func (r *VaultRepo) insert(ctx context.Context, poolKey string, codes []string, startQuery string, shift int64) error {
	if len(codes) == 0 {
		return nil
	}

	encrypted := make([]string, len(codes))
	for i, c := range codes {
		enc, err := r.encSvc.Encrypt(c)
		if err != nil {
			return fmt.Errorf("encrypt vault code: %w", err)
		}
		encrypted[i] = enc
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin vault tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, poolKey); err != nil {
		return fmt.Errorf("lock vault pool: %w", err)
	}

	var start int64
	if err := tx.QueryRow(ctx, startQuery, poolKey).Scan(&start); err != nil {
		return fmt.Errorf("vault pool position: %w", err)
	}
	start -= shift

	for i, enc := range encrypted {
		_, err := tx.Exec(ctx,
			`INSERT INTO vault_codes (pool_key, position, code_enc) VALUES ($1, $2, $3)`,
			poolKey, start+int64(i), enc,
		)
		if err != nil {
			return fmt.Errorf("insert vault code: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit vault tx: %w", err)
	}
	return nil
}

// Stock counts the remaining codes of every pool.
func (r *VaultRepo) Stock(ctx context.Context) ([]domain.PoolStock, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pool_key, COUNT(*) FROM vault_codes GROUP BY pool_key ORDER BY pool_key`)
	if err != nil {
		return nil, fmt.Errorf("vault stock: %w", err)
	}
	defer rows.Close()

	stock := make([]domain.PoolStock, 0)
	for rows.Next() {
		var key string
		var remaining int64
		if err := rows.Scan(&key, &remaining); err != nil {
			return nil, fmt.Errorf("scan vault stock: %w", err)
		}
		productID, amount, err := domain.ParsePoolKey(key)
		if err != nil {
			return nil, err
		}
		stock = append(stock, domain.PoolStock{ProductID: productID, Amount: amount, Remaining: remaining})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vault stock: %w", err)
	}
	return stock, nil
}
