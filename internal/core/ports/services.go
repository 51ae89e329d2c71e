package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"giftcard-storefront/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// TokenService issues and validates guest shopper sessions.
type TokenService interface {
	Generate(shopperID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ShopperID uuid.UUID
}

// IdempotencyCache is the Redis-layer cache of resolved checkout results.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, clientID string, nonce string, ttl time.Duration) (bool, error)
}

// AttemptLock guards a shopper against two checkout attempts in flight.
type AttemptLock interface {
	// Acquire returns false if another owner holds the lock.
	Acquire(ctx context.Context, shopperID uuid.UUID, owner string, ttl time.Duration) (bool, error)
	// Release drops the lock only if owner still holds it.
	Release(ctx context.Context, shopperID uuid.UUID, owner string) error
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// CatalogService exposes the immutable product list.
type CatalogService interface {
	List() []domain.Product
	Get(productID string) (*domain.Product, error)
	// Validate checks that amount is a face value of productID.
	Validate(productID string, amount int64) (*domain.Product, error)
}

// CartService manages a shopper's cart document.
type CartService interface {
	Get(ctx context.Context, shopperID uuid.UUID) (*domain.Cart, error)
	AddLine(ctx context.Context, shopperID uuid.UUID, productID string, amount int64) (*domain.Cart, error)
	Clear(ctx context.Context, shopperID uuid.UUID) error
}

// VaultService owns the code pools.
type VaultService interface {
	// Draw pops a code, applying the depletion policy on an empty pool.
	Draw(ctx context.Context, productID string, amount int64) (code string, synthetic bool, err error)
	// Return puts unused codes back at the front of their pool.
	Return(ctx context.Context, productID string, amount int64, codes []string) error
	ImportBatch(ctx context.Context, productID string, amount int64, rawText string) (int, error)
	Stock(ctx context.Context) ([]domain.PoolStock, error)
}

// AttributionService turns a paid cart into wallet entries.
type AttributionService interface {
	// Checkout attributes one code per unit in the shopper's cart, prepends
	// the entries to the wallet and clears the cart. A positive
	// expectedTotal must match the cart total.
	Checkout(ctx context.Context, shopperID uuid.UUID, expectedTotal int64) ([]domain.WalletEntry, error)
}

// WalletService lists and reveals attributed codes.
type WalletService interface {
	List(ctx context.Context, shopperID uuid.UUID) ([]domain.WalletEntry, error)
	Reveal(ctx context.Context, shopperID uuid.UUID, entryID uuid.UUID) (*RevealResult, error)
	VerifyChain(ctx context.Context, shopperID uuid.UUID) (bool, error)
}

// RevealResult is a revealed entry with its full code.
type RevealResult struct {
	Entry    domain.WalletEntry
	FullCode string
}

// KeyProvider resolves the provider public key.
type KeyProvider interface {
	PublicKey(ctx context.Context) (string, error)
}

// CheckoutCapability is the loaded external checkout widget.
type CheckoutCapability interface {
	Name() string
	Open(ctx context.Context, payload domain.CheckoutPayload, callbacks CheckoutCallbacks) (*domain.CheckoutSession, error)
}

// CapabilityLoader loads the checkout capability once per process.
type CapabilityLoader interface {
	Load(ctx context.Context) (CheckoutCapability, error)
}

// CheckoutCallbacks are the success and close slots of one attempt.
type CheckoutCallbacks struct {
	OnSuccess func(ctx context.Context, resp domain.ProviderResponse) (*domain.CheckoutResult, error)
	OnClose   func(ctx context.Context) (*domain.CheckoutResult, error)
}

// CallbackRegistry routes provider deliveries to the callbacks registered
// when the attempt was opened.
type CallbackRegistry interface {
	Register(txRef string, callbacks CheckoutCallbacks)
	Take(txRef string) (CheckoutCallbacks, bool)
}

// PaymentAdapter drives the external checkout.
type PaymentAdapter interface {
	Readiness(ctx context.Context) domain.Readiness
	Begin(ctx context.Context, shopperID uuid.UUID, customer domain.Customer) (*domain.CheckoutSession, error)
	HandleProviderResponse(ctx context.Context, resp domain.ProviderResponse) (*domain.CheckoutResult, error)
	Cancel(ctx context.Context, shopperID uuid.UUID, txRef string) (*domain.CheckoutResult, error)
	GetAttempt(ctx context.Context, shopperID uuid.UUID, txRef string) (*domain.CheckoutAttempt, error)
}
