package service

import (
	"context"
	"encoding/json"
	"fmt"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	cartKeyPrefix   = "gc_demo_cart:"
	walletKeyPrefix = "gc_demo_wallet:"
)

// CartKey is the document key of a shopper's cart.
func CartKey(shopperID uuid.UUID) string {
	return cartKeyPrefix + shopperID.String()
}

// WalletKey is the document key of a shopper's wallet.
func WalletKey(shopperID uuid.UUID) string {
	return walletKeyPrefix + shopperID.String()
}

// documents reads and writes the typed cart and wallet documents.
// A missing or undecodable document reads as its empty value.
type documents struct {
	store ports.DocumentStore
	log   zerolog.Logger
}

func (d documents) load(ctx context.Context, key string, v interface{}) error {
	raw, err := d.store.Get(ctx, key)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("load %s: %w", key, err))
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("discarding undecodable document")
	}
	return nil
}

func (d documents) loadCart(ctx context.Context, shopperID uuid.UUID) (*domain.Cart, error) {
	var cart domain.Cart
	if err := d.load(ctx, CartKey(shopperID), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (d documents) loadWallet(ctx context.Context, shopperID uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := d.load(ctx, WalletKey(shopperID), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (d documents) saveCart(ctx context.Context, shopperID uuid.UUID, cart *domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("encode cart: %w", err))
	}
	if err := d.store.Set(ctx, CartKey(shopperID), raw); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("save cart: %w", err))
	}
	return nil
}

func (d documents) saveWallet(ctx context.Context, shopperID uuid.UUID, w *domain.Wallet) error {
	w.StripFullCodes()
	raw, err := json.Marshal(w)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("encode wallet: %w", err))
	}
	if err := d.store.Set(ctx, WalletKey(shopperID), raw); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("save wallet: %w", err))
	}
	return nil
}

// saveCheckout writes the wallet and the cart in one atomic step.
func (d documents) saveCheckout(ctx context.Context, shopperID uuid.UUID, w *domain.Wallet, cart *domain.Cart) error {
	w.StripFullCodes()
	walletRaw, err := json.Marshal(w)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("encode wallet: %w", err))
	}
	cartRaw, err := json.Marshal(cart)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("encode cart: %w", err))
	}
	err = d.store.SaveAll(ctx, map[string][]byte{
		WalletKey(shopperID): walletRaw,
		CartKey(shopperID):   cartRaw,
	})
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("save checkout: %w", err))
	}
	return nil
}
