package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const checkoutResultTTL = 24 * time.Hour

// PaymentServiceImpl implements ports.PaymentAdapter.
type PaymentServiceImpl struct {
	keys        ports.KeyProvider
	loader      ports.CapabilityLoader
	registry    ports.CallbackRegistry
	carts       ports.CartService
	attribution ports.AttributionService
	attempts    ports.AttemptRepository
	lock        ports.AttemptLock
	idempCache  ports.IdempotencyCache
	currency    string
	attemptTTL  time.Duration
	txLocks     *KeyedMutex
	log         zerolog.Logger
	now         func() time.Time
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	keys ports.KeyProvider,
	loader ports.CapabilityLoader,
	registry ports.CallbackRegistry,
	carts ports.CartService,
	attribution ports.AttributionService,
	attempts ports.AttemptRepository,
	lock ports.AttemptLock,
	idempCache ports.IdempotencyCache,
	currency string,
	attemptTTL time.Duration,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		keys:        keys,
		loader:      loader,
		registry:    registry,
		carts:       carts,
		attribution: attribution,
		attempts:    attempts,
		lock:        lock,
		idempCache:  idempCache,
		currency:    currency,
		attemptTTL:  attemptTTL,
		txLocks:     NewKeyedMutex(),
		log:         log,
		now:         time.Now,
	}
}

// Readiness reports whether a checkout can be started right now.
// It triggers the key fetch and capability load if they have not
// succeeded yet.
func (s *PaymentServiceImpl) Readiness(ctx context.Context) domain.Readiness {
	if _, err := s.keys.PublicKey(ctx); err != nil {
		return domain.Readiness{Ready: false, Reason: "payment key unavailable"}
	}
	if _, err := s.loader.Load(ctx); err != nil {
		return domain.Readiness{Ready: false, Reason: "checkout unavailable, retry later"}
	}
	return domain.Readiness{Ready: true}
}

// Begin opens the external checkout for the shopper's current cart.
func (s *PaymentServiceImpl) Begin(ctx context.Context, shopperID uuid.UUID, customer domain.Customer) (*domain.CheckoutSession, error) {
	key, err := s.keys.PublicKey(ctx)
	if err != nil {
		return nil, apperror.ErrPaymentKeyUnavailable(err)
	}

	capability, err := s.loader.Load(ctx)
	if err != nil {
		return nil, apperror.ErrCapabilityUnavailable(err)
	}

	cart, err := s.carts.Get(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperror.ErrCartEmpty()
	}

	now := s.now().UTC()
	txRef, err := newTxRef(now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("tx_ref: %w", err))
	}

	acquired, err := s.lock.Acquire(ctx, shopperID, txRef, s.attemptTTL)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("acquire checkout lock: %w", err))
	}
	if !acquired {
		return nil, apperror.ErrCheckoutInProgress()
	}

	attempt := &domain.CheckoutAttempt{
		TxRef:     txRef,
		ShopperID: shopperID,
		Amount:    cart.Total(),
		Currency:  s.currency,
		Status:    domain.AttemptStatusPending,
		CreatedAt: now,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.releaseLock(ctx, shopperID, txRef)
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create attempt: %w", err))
	}

	payload := domain.CheckoutPayload{
		PublicKey:      key,
		Amount:         attempt.Amount,
		Currency:       attempt.Currency,
		TxRef:          txRef,
		Customer:       customer.WithDefaults(),
		Customizations: domain.DefaultCustomizations,
	}

	session, err := capability.Open(ctx, payload, s.callbacksFor(txRef))
	if err != nil {
		if ferr := s.finish(ctx, attempt, domain.AttemptStatusFailed, ""); ferr != nil {
			s.log.Warn().Err(ferr).Str("tx_ref", txRef).Msg("failed to close unopened attempt")
		}
		return nil, apperror.ErrCapabilityUnavailable(err)
	}

	s.log.Info().
		Str("tx_ref", txRef).
		Str("shopper_id", shopperID.String()).
		Int64("amount", attempt.Amount).
		Str("provider", capability.Name()).
		Msg("checkout opened")

	return session, nil
}

// HandleProviderResponse routes a provider delivery to the attempt's
// callbacks. Only a "successful" status reaches the success slot.
func (s *PaymentServiceImpl) HandleProviderResponse(ctx context.Context, resp domain.ProviderResponse) (*domain.CheckoutResult, error) {
	if resp.TxRef == "" {
		return nil, apperror.Validation("tx_ref is required")
	}

	// The registry holds whatever the capability registered at Open, which
	// may wrap the service callbacks. A miss means redelivery or a restart
	// since Open; the attempt row is enough to rebuild the plain callbacks.
	cb, ok := s.registry.Take(resp.TxRef)
	if !ok {
		cb = s.callbacksFor(resp.TxRef)
	}

	if resp.Succeeded() {
		return cb.OnSuccess(ctx, resp)
	}

	status := domain.AttemptStatusFailed
	if resp.Status == "cancelled" {
		status = domain.AttemptStatusCancelled
	}
	return s.close(ctx, resp.TxRef, status, resp.TransactionID)
}

// Cancel fires the close slot of the shopper's attempt.
func (s *PaymentServiceImpl) Cancel(ctx context.Context, shopperID uuid.UUID, txRef string) (*domain.CheckoutResult, error) {
	if _, err := s.GetAttempt(ctx, shopperID, txRef); err != nil {
		return nil, err
	}

	// Same routing as HandleProviderResponse: Take also empties the slot so
	// a late provider delivery cannot fire the capability's callbacks again.
	cb, ok := s.registry.Take(txRef)
	if !ok {
		cb = s.callbacksFor(txRef)
	}
	return cb.OnClose(ctx)
}

// GetAttempt returns an attempt owned by shopperID.
func (s *PaymentServiceImpl) GetAttempt(ctx context.Context, shopperID uuid.UUID, txRef string) (*domain.CheckoutAttempt, error) {
	attempt, err := s.attempts.GetByTxRef(ctx, txRef)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get attempt: %w", err))
	}
	if attempt == nil || attempt.ShopperID != shopperID {
		return nil, apperror.ErrNotFound("checkout attempt")
	}
	return attempt, nil
}

func (s *PaymentServiceImpl) callbacksFor(txRef string) ports.CheckoutCallbacks {
	return ports.CheckoutCallbacks{
		OnSuccess: func(ctx context.Context, resp domain.ProviderResponse) (*domain.CheckoutResult, error) {
			return s.complete(ctx, txRef, resp)
		},
		OnClose: func(ctx context.Context) (*domain.CheckoutResult, error) {
			return s.close(ctx, txRef, domain.AttemptStatusCancelled, "")
		},
	}
}

// complete runs attribution for a successful payment.
func (s *PaymentServiceImpl) complete(ctx context.Context, txRef string, resp domain.ProviderResponse) (*domain.CheckoutResult, error) {
	unlock := s.txLocks.Lock(txRef)
	defer unlock()

	if cached := s.cachedResult(ctx, txRef); cached != nil {
		return cached, nil
	}

	attempt, err := s.pendingAttempt(ctx, txRef)
	if err != nil {
		return nil, err
	}

	if resp.Amount > 0 && resp.Amount != attempt.Amount {
		s.log.Warn().
			Str("tx_ref", txRef).
			Int64("expected", attempt.Amount).
			Int64("got", resp.Amount).
			Msg("provider amount mismatch")
		if ferr := s.finish(ctx, attempt, domain.AttemptStatusFailed, resp.TransactionID); ferr != nil {
			s.log.Warn().Err(ferr).Str("tx_ref", txRef).Msg("failed to resolve attempt")
		}
		return nil, apperror.ErrAmountMismatch(attempt.Amount, resp.Amount)
	}

	entries, err := s.attribution.Checkout(ctx, attempt.ShopperID, attempt.Amount)
	if err != nil {
		s.log.Error().Err(err).Str("tx_ref", txRef).Msg("attribution failed")
		if ferr := s.finish(ctx, attempt, domain.AttemptStatusFailed, resp.TransactionID); ferr != nil {
			s.log.Warn().Err(ferr).Str("tx_ref", txRef).Msg("failed to resolve attempt")
		}
		return nil, err
	}

	if err := s.finish(ctx, attempt, domain.AttemptStatusSucceeded, resp.TransactionID); err != nil {
		// The wallet is already written; the codes belong to the shopper.
		s.log.Error().Err(err).Str("tx_ref", txRef).Msg("failed to mark attempt succeeded")
	}

	for i := range entries {
		entries[i].FullCode = ""
	}
	result := &domain.CheckoutResult{Attempt: *attempt, Entries: entries}
	s.cacheResult(ctx, txRef, result)

	s.log.Info().
		Str("tx_ref", txRef).
		Str("provider_tx", resp.TransactionID).
		Int("entries", len(entries)).
		Msg("checkout succeeded")

	return result, nil
}

// close resolves an attempt without touching cart, wallet or vault.
func (s *PaymentServiceImpl) close(ctx context.Context, txRef string, status domain.AttemptStatus, providerTx string) (*domain.CheckoutResult, error) {
	unlock := s.txLocks.Lock(txRef)
	defer unlock()

	if cached := s.cachedResult(ctx, txRef); cached != nil {
		return cached, nil
	}

	attempt, err := s.pendingAttempt(ctx, txRef)
	if err != nil {
		return nil, err
	}

	if err := s.finish(ctx, attempt, status, providerTx); err != nil {
		return nil, err
	}

	result := &domain.CheckoutResult{Attempt: *attempt}
	s.cacheResult(ctx, txRef, result)

	s.log.Info().Str("tx_ref", txRef).Str("status", string(status)).Msg("checkout closed")
	return result, nil
}

func (s *PaymentServiceImpl) pendingAttempt(ctx context.Context, txRef string) (*domain.CheckoutAttempt, error) {
	attempt, err := s.attempts.GetByTxRef(ctx, txRef)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get attempt: %w", err))
	}
	if attempt == nil {
		return nil, apperror.ErrNotFound("checkout attempt")
	}
	if attempt.IsTerminal() {
		return nil, apperror.ErrAttemptResolved()
	}
	return attempt, nil
}

// finish moves the attempt to a terminal status and frees the shopper's
// checkout lock.
func (s *PaymentServiceImpl) finish(ctx context.Context, attempt *domain.CheckoutAttempt, status domain.AttemptStatus, providerTx string) error {
	at := s.now().UTC()
	ok, err := s.attempts.Resolve(ctx, attempt.TxRef, status, providerTx, at)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("resolve attempt: %w", err))
	}
	if !ok {
		return apperror.ErrAttemptResolved()
	}

	attempt.Status = status
	attempt.ProviderTx = providerTx
	attempt.ResolvedAt = &at

	s.releaseLock(ctx, attempt.ShopperID, attempt.TxRef)
	return nil
}

func (s *PaymentServiceImpl) releaseLock(ctx context.Context, shopperID uuid.UUID, txRef string) {
	if err := s.lock.Release(context.WithoutCancel(ctx), shopperID, txRef); err != nil {
		s.log.Warn().Err(err).Str("tx_ref", txRef).Msg("failed to release checkout lock")
	}
}

func (s *PaymentServiceImpl) cachedResult(ctx context.Context, txRef string) *domain.CheckoutResult {
	key := domain.BuildCheckoutIdempotencyKey(txRef)
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to attempt store")
		return nil
	}
	if cached == nil {
		return nil
	}

	var result domain.CheckoutResult
	if err := json.Unmarshal(cached, &result); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cached result")
		return nil
	}
	return &result
}

func (s *PaymentServiceImpl) cacheResult(ctx context.Context, txRef string, result *domain.CheckoutResult) {
	key := domain.BuildCheckoutIdempotencyKey(txRef)
	raw, err := json.Marshal(result)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to encode checkout result")
		return
	}
	if err := s.idempCache.Set(ctx, key, raw, checkoutResultTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache checkout result in redis")
	}
}

// newTxRef builds "demo-<unixMillis>-<8 hex>".
func newTxRef(now time.Time) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("demo-%d-%s", now.UnixMilli(), hex.EncodeToString(b)), nil
}
