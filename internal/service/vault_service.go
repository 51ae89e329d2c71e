package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	placeholderAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	placeholderLength   = 10
)

// VaultServiceImpl implements ports.VaultService.
type VaultServiceImpl struct {
	repo    ports.VaultRepository
	catalog ports.CatalogService
	policy  domain.DepletionPolicy
	log     zerolog.Logger
}

// NewVaultService creates a new VaultServiceImpl.
func NewVaultService(repo ports.VaultRepository, catalog ports.CatalogService, policy domain.DepletionPolicy, log zerolog.Logger) *VaultServiceImpl {
	return &VaultServiceImpl{
		repo:    repo,
		catalog: catalog,
		policy:  policy,
		log:     log,
	}
}

// Draw pops the front code of the (productID, amount) pool.
// On a depleted pool it either synthesizes a placeholder or fails,
// depending on the configured policy.
func (s *VaultServiceImpl) Draw(ctx context.Context, productID string, amount int64) (string, bool, error) {
	key := domain.PoolKey(productID, amount)

	code, ok, err := s.repo.Draw(ctx, key)
	if err != nil {
		return "", false, apperror.ErrDatabaseError(fmt.Errorf("draw %s: %w", key, err))
	}
	if ok {
		return code, false, nil
	}

	if s.policy == domain.DepletionFail {
		s.log.Warn().Str("pool", key).Msg("pool depleted, draw rejected")
		return "", false, apperror.ErrPoolDepleted(key)
	}

	code, err = placeholderCode()
	if err != nil {
		return "", false, apperror.InternalError(fmt.Errorf("placeholder code: %w", err))
	}
	s.log.Warn().Str("pool", key).Msg("pool depleted, placeholder code issued")
	return code, true, nil
}

// Return puts drawn codes back at the front of their pool, keeping their
// order. Callers pass only codes that came out of the pool: whether a code
// is synthetic is known from Draw, not from its text.
func (s *VaultServiceImpl) Return(ctx context.Context, productID string, amount int64, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	key := domain.PoolKey(productID, amount)
	if err := s.repo.Return(ctx, key, codes); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("return %s: %w", key, err))
	}
	return nil
}

// ImportBatch appends the non-blank lines of rawText to the pool.
// Codes are not de-duplicated.
func (s *VaultServiceImpl) ImportBatch(ctx context.Context, productID string, amount int64, rawText string) (int, error) {
	if _, err := s.catalog.Validate(productID, amount); err != nil {
		return 0, err
	}

	codes := domain.SplitBatch(rawText)
	if len(codes) == 0 {
		return 0, apperror.ErrEmptyBatch()
	}

	key := domain.PoolKey(productID, amount)
	if err := s.repo.Push(ctx, key, codes); err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("import %s: %w", key, err))
	}

	s.log.Info().Str("pool", key).Int("count", len(codes)).Msg("vault batch imported")
	return len(codes), nil
}

// Stock reports the remaining codes per pool.
func (s *VaultServiceImpl) Stock(ctx context.Context) ([]domain.PoolStock, error) {
	stock, err := s.repo.Stock(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("vault stock: %w", err))
	}
	return stock, nil
}

// Seed loads an initial inventory when the vault is empty.
// It returns the number of codes added.
func (s *VaultServiceImpl) Seed(ctx context.Context, seed map[string][]string) (int, error) {
	stock, err := s.repo.Stock(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking vault stock: %w", err)
	}
	for _, p := range stock {
		if p.Remaining > 0 {
			return 0, nil
		}
	}

	added := 0
	for key, codes := range seed {
		if err := s.repo.Push(ctx, key, codes); err != nil {
			return added, fmt.Errorf("seeding %s: %w", key, err)
		}
		added += len(codes)
	}
	return added, nil
}

// placeholderCode synthesizes "SIM-" followed by random base-36 characters.
func placeholderCode() (string, error) {
	buf := make([]byte, placeholderLength)
	base := big.NewInt(int64(len(placeholderAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		buf[i] = placeholderAlphabet[n.Int64()]
	}
	return domain.PlaceholderPrefix + string(buf), nil
}
