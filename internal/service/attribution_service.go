package service

import (
	"context"
	"fmt"
	"time"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AttributionServiceImpl implements ports.AttributionService.
type AttributionServiceImpl struct {
	vault  ports.VaultService
	encSvc ports.EncryptionService
	docs   documents
	locks  *KeyedMutex
	log    zerolog.Logger
	now    func() time.Time
}

// NewAttributionService creates a new AttributionServiceImpl.
func NewAttributionService(
	vault ports.VaultService,
	encSvc ports.EncryptionService,
	store ports.DocumentStore,
	locks *KeyedMutex,
	log zerolog.Logger,
) *AttributionServiceImpl {
	return &AttributionServiceImpl{
		vault:  vault,
		encSvc: encSvc,
		docs:   documents{store: store, log: log},
		locks:  locks,
		log:    log,
		now:    time.Now,
	}
}

// drawnLine holds the pool codes drawn for one cart line. Synthetic
// codes are left out since they have no pool to go back to.
type drawnLine struct {
	line  domain.CartLine
	codes []string
}

// Checkout draws one code per unit for every line, in cart order, then
// prepends the batch to the wallet and clears the cart in one write.
// Either every line is attributed or nothing changes: on any failure the
// codes drawn so far go back to the front of their pools.
func (s *AttributionServiceImpl) Checkout(ctx context.Context, shopperID uuid.UUID, expectedTotal int64) ([]domain.WalletEntry, error) {
	unlock := s.locks.Lock(shopperID.String())
	defer unlock()

	cart, err := s.docs.loadCart(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperror.ErrCartEmpty()
	}
	if expectedTotal > 0 && cart.Total() != expectedTotal {
		return nil, apperror.ErrAmountMismatch(expectedTotal, cart.Total())
	}

	wallet, err := s.docs.loadWallet(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	batch := make([]domain.WalletEntry, 0, cart.Count())
	drawn := make([]drawnLine, 0, len(cart.Lines))

	for _, line := range cart.Lines {
		dl := drawnLine{line: line, codes: make([]string, 0, line.Qty)}
		for i := 0; i < line.Qty; i++ {
			code, synthetic, err := s.vault.Draw(ctx, line.ProductID, line.Amount)
			if err != nil {
				s.rollback(ctx, append(drawn, dl))
				return nil, err
			}
			if !synthetic {
				dl.codes = append(dl.codes, code)
			}

			codeEnc, err := s.encSvc.Encrypt(code)
			if err != nil {
				s.rollback(ctx, append(drawn, dl))
				return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt code: %w", err))
			}

			batch = append(batch, domain.WalletEntry{
				ID:         uuid.New(),
				ProductID:  line.ProductID,
				Brand:      line.Brand,
				Amount:     line.Amount,
				MaskedCode: domain.Mask(code),
				FullCode:   code,
				CodeEnc:    codeEnc,
				Synthetic:  synthetic,
				CreatedAt:  now,
			})
		}
		drawn = append(drawn, dl)
	}

	wallet.Prepend(batch)
	if err := s.docs.saveCheckout(ctx, shopperID, wallet, &domain.Cart{}); err != nil {
		s.rollback(ctx, drawn)
		return nil, err
	}

	s.log.Info().
		Str("shopper_id", shopperID.String()).
		Int("entries", len(batch)).
		Int64("total", cart.Total()).
		Msg("checkout attributed")

	return batch, nil
}

// rollback returns drawn codes to their pools. It runs even if ctx was
// cancelled, since the codes would otherwise be lost.
func (s *AttributionServiceImpl) rollback(ctx context.Context, drawn []drawnLine) {
	ctx = context.WithoutCancel(ctx)
	for i := len(drawn) - 1; i >= 0; i-- {
		dl := drawn[i]
		if len(dl.codes) == 0 {
			continue
		}
		if err := s.vault.Return(ctx, dl.line.ProductID, dl.line.Amount, dl.codes); err != nil {
			s.log.Error().Err(err).
				Str("pool", domain.PoolKey(dl.line.ProductID, dl.line.Amount)).
				Int("codes", len(dl.codes)).
				Msg("failed to return drawn codes to vault")
		}
	}
}
