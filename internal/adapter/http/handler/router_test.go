package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"giftcard-storefront/internal/adapter/checkout"
	"giftcard-storefront/internal/adapter/http/middleware"
	"giftcard-storefront/internal/adapter/storage/memory"
	redisStore "giftcard-storefront/internal/adapter/storage/redis"
	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProviderHash = "verif-secret"
	testAdminKey     = "ak_ops"
	testAdminSecret  = "sk_ops"
)

type envelope struct {
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
}

type storefront struct {
	t      *testing.T
	router *gin.Engine
	sigSvc *service.HMACSignatureService
}

func newStorefront(t *testing.T, relayKey string) *storefront {
	t.Helper()
	log := zerolog.Nop()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	encSvc, _, err := service.NewEphemeralAESEncryptionService()
	require.NoError(t, err)

	catalog := service.NewCatalogService(domain.DemoCatalog())
	docs := memory.NewDocumentStore()
	locks := service.NewKeyedMutex()

	vaultSvc := service.NewVaultService(memory.NewVaultRepo(), catalog, domain.DepletionPlaceholder, log)
	_, err = vaultSvc.Seed(ctx, domain.DemoVaultSeed())
	require.NoError(t, err)

	cartSvc := service.NewCartService(catalog, docs, locks, log)
	attributionSvc := service.NewAttributionService(vaultSvc, encSvc, docs, locks, log)
	walletSvc := service.NewWalletService(encSvc, docs, locks, log)

	registry := checkout.NewRegistry(15 * time.Minute)
	paymentSvc := service.NewPaymentService(
		checkout.NewStaticKeyProvider("FLWPUBK_TEST-demo"),
		checkout.NewLoader(checkout.NewSandbox(registry), log),
		registry,
		cartSvc,
		attributionSvc,
		memory.NewAttemptRepo(),
		redisStore.NewAttemptLock(rdb),
		redisStore.NewIdempotencyCache(rdb),
		"XOF",
		15*time.Minute,
		log,
	)

	sigSvc := service.NewHMACSignatureService()
	router := SetupRouter(RouterDeps{
		CatalogSvc:     catalog,
		CartSvc:        cartSvc,
		WalletSvc:      walletSvc,
		VaultSvc:       vaultSvc,
		PaymentSvc:     paymentSvc,
		TokenSvc:       service.NewJWTTokenService("router-test-secret", time.Hour, "giftcard-storefront"),
		SigSvc:         sigSvc,
		NonceStore:     redisStore.NewNonceStore(rdb),
		Admin:          middleware.AdminCredentials{AccessKey: testAdminKey, SecretKey: testAdminSecret},
		ProviderHash:   testProviderHash,
		RelayPublicKey: relayKey,
		AllowedOrigins: []string{"*"},
		RateLimitStore: redisStore.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{redisStore.NewHealthCheck(rdb)},
		AuditSvc:       service.NewAuditService(nil, log),
		Logger:         log,
	})

	return &storefront{t: t, router: router, sigSvc: sigSvc}
}

func (s *storefront) do(method, path, token string, body interface{}, headers map[string]string) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (s *storefront) session() string {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/api/v1/sessions", "", nil, nil)
	require.Equal(s.t, http.StatusCreated, status)

	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &sess))
	require.NotEmpty(s.t, sess.Token)
	return sess.Token
}

func (s *storefront) admin(method, path string, body interface{}) (int, envelope) {
	s.t.Helper()

	raw := ""
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		raw = string(b)
	}
	ts := time.Now().Unix()
	nonce := uuid.NewString()
	sig := s.sigSvc.Sign(testAdminSecret, s.sigSvc.BuildCanonicalString(method, path, ts, nonce, raw))

	return s.do(method, path, "", body, map[string]string{
		middleware.HeaderAccessKey: testAdminKey,
		middleware.HeaderSignature: sig,
		middleware.HeaderTimestamp: strconv.FormatInt(ts, 10),
		middleware.HeaderNonce:     nonce,
	})
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type sessionPayload struct {
	Provider string `json:"provider"`
	Payload  struct {
		PublicKey string          `json:"public_key"`
		Amount    int64           `json:"amount"`
		Currency  string          `json:"currency"`
		TxRef     string          `json:"tx_ref"`
		Customer  domain.Customer `json:"customer"`
	} `json:"payload"`
}

type checkoutResult struct {
	Attempt domain.CheckoutAttempt `json:"attempt"`
	Entries []struct {
		ID         uuid.UUID `json:"id"`
		ProductID  string    `json:"product_id"`
		MaskedCode string    `json:"masked_code"`
		Synthetic  bool      `json:"synthetic"`
	} `json:"entries"`
}

func TestStorefront_PurchaseFlow(t *testing.T) {
	s := newStorefront(t, "FLWPUBK_TEST-demo")
	token := s.session()
	hash := map[string]string{middleware.HeaderProviderHash: testProviderHash}

	// Two units of a pool that holds a single real code
	for i := 0; i < 2; i++ {
		status, _ := s.do(http.MethodPost, "/api/v1/cart/lines", token, map[string]interface{}{"product_id": "psn-ci", "amount": 10000}, nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, env := s.do(http.MethodPost, "/api/v1/cart/lines", token, map[string]interface{}{"product_id": "apple-ci", "amount": 25000}, nil)
	require.Equal(t, http.StatusOK, status)
	cart := decode[struct {
		Count int   `json:"count"`
		Total int64 `json:"total"`
	}](t, env)
	assert.Equal(t, 3, cart.Count)
	assert.Equal(t, int64(45000), cart.Total)

	status, env = s.do(http.MethodGet, "/api/v1/checkout/readiness", "", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[domain.Readiness](t, env).Ready)

	status, env = s.do(http.MethodPost, "/api/v1/checkout", token, nil, nil)
	require.Equal(t, http.StatusCreated, status)
	sess := decode[sessionPayload](t, env)
	assert.Equal(t, checkout.ProviderSandbox, sess.Provider)
	assert.Equal(t, "FLWPUBK_TEST-demo", sess.Payload.PublicKey)
	assert.Equal(t, int64(45000), sess.Payload.Amount)
	assert.Equal(t, "XOF", sess.Payload.Currency)
	assert.Equal(t, domain.DefaultCustomer, sess.Payload.Customer)
	txRef := sess.Payload.TxRef
	require.NotEmpty(t, txRef)

	// A second attempt while the first is pending is refused
	status, env = s.do(http.MethodPost, "/api/v1/checkout", token, nil, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "PAY_103", env.ErrorCode)

	callback := map[string]interface{}{
		"status":         "successful",
		"tx_ref":         txRef,
		"transaction_id": 4815162342,
		"amount":         45000,
		"currency":       "XOF",
	}

	status, _ = s.do(http.MethodPost, "/api/v1/checkout/callback", "", callback, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "callback without verif-hash")

	status, env = s.do(http.MethodPost, "/api/v1/checkout/callback", "", callback, hash)
	require.Equal(t, http.StatusOK, status)
	result := decode[checkoutResult](t, env)
	assert.Equal(t, domain.AttemptStatusSucceeded, result.Attempt.Status)
	assert.Equal(t, "4815162342", result.Attempt.ProviderTx)
	require.Len(t, result.Entries, 3)
	assert.Equal(t, domain.Mask("PSN-9JQ4-8ZKD-1X2C"), result.Entries[0].MaskedCode)
	assert.False(t, result.Entries[0].Synthetic)
	assert.True(t, result.Entries[1].Synthetic, "depleted pool issues a placeholder")
	assert.Equal(t, "apple-ci", result.Entries[2].ProductID)

	// Redelivery returns the same result and attributes nothing new
	status, env = s.do(http.MethodPost, "/api/v1/checkout/callback", "", callback, hash)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, result, decode[checkoutResult](t, env))

	status, env = s.do(http.MethodGet, "/api/v1/cart", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, decode[struct {
		Count int `json:"count"`
	}](t, env).Count)

	status, env = s.do(http.MethodGet, "/api/v1/wallet", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), "PSN-9JQ4")
	entries := decode[[]struct {
		ID uuid.UUID `json:"id"`
	}](t, env)
	require.Len(t, entries, 3)
	assert.Equal(t, result.Entries[0].ID, entries[0].ID)

	status, env = s.do(http.MethodPost, "/api/v1/wallet/"+entries[0].ID.String()+"/reveal", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	revealed := decode[struct {
		FullCode   string     `json:"full_code"`
		RevealedAt *time.Time `json:"revealed_at"`
	}](t, env)
	assert.Equal(t, "PSN-9JQ4-8ZKD-1X2C", revealed.FullCode)
	require.NotNil(t, revealed.RevealedAt)

	// Revealing again keeps the first timestamp
	status, env = s.do(http.MethodPost, "/api/v1/wallet/"+entries[0].ID.String()+"/reveal", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	again := decode[struct {
		RevealedAt *time.Time `json:"revealed_at"`
	}](t, env)
	assert.True(t, revealed.RevealedAt.Equal(*again.RevealedAt))

	status, env = s.do(http.MethodGet, "/api/v1/wallet/verify", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[struct {
		Valid bool `json:"valid"`
	}](t, env).Valid)

	status, env = s.do(http.MethodGet, "/api/v1/checkout/"+txRef, token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.AttemptStatusSucceeded, decode[domain.CheckoutAttempt](t, env).Status)

	// Other shoppers cannot see the attempt
	status, _ = s.do(http.MethodGet, "/api/v1/checkout/"+txRef, s.session(), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStorefront_CancelLeavesCartAndVault(t *testing.T) {
	s := newStorefront(t, "FLWPUBK_TEST-demo")
	token := s.session()

	status, _ := s.do(http.MethodPost, "/api/v1/cart/lines", token, map[string]interface{}{"product_id": "gplay-ci", "amount": 10000}, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := s.do(http.MethodPost, "/api/v1/checkout", token, nil, nil)
	require.Equal(t, http.StatusCreated, status)
	txRef := decode[sessionPayload](t, env).Payload.TxRef

	status, env = s.do(http.MethodPost, "/api/v1/checkout/"+txRef+"/cancel", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.AttemptStatusCancelled, decode[checkoutResult](t, env).Attempt.Status)

	status, env = s.do(http.MethodGet, "/api/v1/cart", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[struct {
		Count int `json:"count"`
	}](t, env).Count)

	status, env = s.do(http.MethodGet, "/api/v1/wallet", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", strings.TrimSpace(string(env.Data)))

	// A late success for a closed attempt attributes nothing
	status, env = s.do(http.MethodPost, "/api/v1/checkout/callback", "", map[string]interface{}{
		"status": "successful", "tx_ref": txRef, "amount": 10000,
	}, map[string]string{middleware.HeaderProviderHash: testProviderHash})
	assert.Equal(t, http.StatusOK, status, "cached close result is replayed")
	assert.Equal(t, domain.AttemptStatusCancelled, decode[checkoutResult](t, env).Attempt.Status)

	// The lock is free again
	status, _ = s.do(http.MethodPost, "/api/v1/checkout", token, nil, nil)
	assert.Equal(t, http.StatusCreated, status)

	status, env = s.admin(http.MethodGet, "/api/v1/admin/vault/stock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `{"product_id":"gplay-ci","amount":10000,"remaining":1}`)
}

func TestStorefront_EmptyCartCheckout(t *testing.T) {
	s := newStorefront(t, "")
	status, env := s.do(http.MethodPost, "/api/v1/checkout", s.session(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CART_003", env.ErrorCode)
}

func TestStorefront_AdminImport(t *testing.T) {
	s := newStorefront(t, "")

	body := map[string]interface{}{"product_id": "psn-ci", "amount": 40000, "codes": "PSN-NEW-0001\n\n  PSN-NEW-0002  \n"}

	status, _ := s.do(http.MethodPost, "/api/v1/admin/vault/import", "", body, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "unsigned import")

	status, env := s.admin(http.MethodPost, "/api/v1/admin/vault/import", body)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 2, decode[struct {
		Imported int `json:"imported"`
	}](t, env).Imported)

	status, env = s.admin(http.MethodPost, "/api/v1/admin/vault/import", map[string]interface{}{"product_id": "psn-ci", "amount": 12345, "codes": "X"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CART_002", env.ErrorCode)

	status, env = s.admin(http.MethodGet, "/api/v1/admin/vault/stock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `{"product_id":"psn-ci","amount":40000,"remaining":2}`)
}

func TestStorefront_Relay(t *testing.T) {
	for _, path := range []string{"/api/public-key", "/.netlify/functions/public-key"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			newStorefront(t, "FLWPUBK_TEST-demo").router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"publicKey":"FLWPUBK_TEST-demo"}`, w.Body.String())

			w = httptest.NewRecorder()
			newStorefront(t, "").router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"No key configured"}`, w.Body.String())
		})
	}
}

func TestStorefront_AuthRequired(t *testing.T) {
	s := newStorefront(t, "")
	for _, path := range []string{"/api/v1/cart", "/api/v1/wallet"} {
		status, env := s.do(http.MethodGet, path, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "AUTH_003", env.ErrorCode, path)
	}

	status, _ := s.do(http.MethodGet, "/api/v1/products", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

// TestStorefront_ConcurrentCallbacks fires the same provider success many
// times at once. Exactly one attribution may happen.
func TestStorefront_ConcurrentCallbacks(t *testing.T) {
	s := newStorefront(t, "")
	token := s.session()

	for i := 0; i < 3; i++ {
		status, _ := s.do(http.MethodPost, "/api/v1/cart/lines", token, map[string]interface{}{"product_id": "apple-ci", "amount": 10000}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, env := s.do(http.MethodPost, "/api/v1/checkout", token, nil, nil)
	require.Equal(t, http.StatusCreated, status)
	txRef := decode[sessionPayload](t, env).Payload.TxRef

	callback := map[string]interface{}{"status": "successful", "tx_ref": txRef, "transaction_id": 1, "amount": 30000}
	hash := map[string]string{middleware.HeaderProviderHash: testProviderHash}

	const concurrency = 20
	var (
		wg       sync.WaitGroup
		okCount  atomic.Int32
		statuses = make(chan int, concurrency)
	)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, env := s.do(http.MethodPost, "/api/v1/checkout/callback", "", callback, hash)
			statuses <- status
			var result checkoutResult
			if json.Unmarshal(env.Data, &result) == nil && len(result.Entries) == 3 {
				okCount.Add(1)
			}
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		assert.Equal(t, http.StatusOK, status)
	}
	assert.Equal(t, int32(concurrency), okCount.Load(), "every delivery sees the same result")

	status, env = s.do(http.MethodGet, "/api/v1/wallet", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]json.RawMessage](t, env), 3)
}
