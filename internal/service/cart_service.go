package service

import (
	"context"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartServiceImpl implements ports.CartService.
type CartServiceImpl struct {
	catalog ports.CatalogService
	docs    documents
	locks   *KeyedMutex
	log     zerolog.Logger
}

// NewCartService creates a new CartServiceImpl. locks must be shared with
// the attribution service so a checkout never races a cart edit.
func NewCartService(catalog ports.CatalogService, store ports.DocumentStore, locks *KeyedMutex, log zerolog.Logger) *CartServiceImpl {
	return &CartServiceImpl{
		catalog: catalog,
		docs:    documents{store: store, log: log},
		locks:   locks,
		log:     log,
	}
}

// Get loads the shopper's cart.
func (s *CartServiceImpl) Get(ctx context.Context, shopperID uuid.UUID) (*domain.Cart, error) {
	return s.docs.loadCart(ctx, shopperID)
}

// AddLine adds one unit of (productID, amount), merging with an existing line.
func (s *CartServiceImpl) AddLine(ctx context.Context, shopperID uuid.UUID, productID string, amount int64) (*domain.Cart, error) {
	product, err := s.catalog.Validate(productID, amount)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(shopperID.String())
	defer unlock()

	cart, err := s.docs.loadCart(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	cart.Add(product, amount)
	if err := s.docs.saveCart(ctx, shopperID, cart); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("shopper_id", shopperID.String()).
		Str("product_id", productID).
		Int64("amount", amount).
		Int("count", cart.Count()).
		Msg("cart line added")

	return cart, nil
}

// Clear empties the shopper's cart.
func (s *CartServiceImpl) Clear(ctx context.Context, shopperID uuid.UUID) error {
	unlock := s.locks.Lock(shopperID.String())
	defer unlock()

	return s.docs.saveCart(ctx, shopperID, &domain.Cart{})
}
