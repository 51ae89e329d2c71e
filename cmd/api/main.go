package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftcard-storefront/config"
	"giftcard-storefront/internal/adapter/checkout"
	httpHandler "giftcard-storefront/internal/adapter/http/handler"
	"giftcard-storefront/internal/adapter/http/middleware"
	"giftcard-storefront/internal/adapter/storage/memory"
	pgStorage "giftcard-storefront/internal/adapter/storage/postgres"
	redisStorage "giftcard-storefront/internal/adapter/storage/redis"
	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/internal/core/ports"
	"giftcard-storefront/internal/service"
	"giftcard-storefront/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("provider", cfg.Payment.Provider).
		Msg("Starting Gift Card Storefront")

	ctx := context.Background()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	healthCheckers := []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)}

	// Initialize core services
	encSvc, err := newEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	if cfg.AES.Key == "" {
		log.Warn().Msg("No AES key configured, using an ephemeral key: stored codes are unreadable after restart")
	}
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	policy, err := domain.ParseDepletionPolicy(cfg.Vault.DepletionPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid vault configuration")
	}

	// Initialize repositories
	var (
		vaultRepo   ports.VaultRepository   = memory.NewVaultRepo()
		attemptRepo ports.AttemptRepository = memory.NewAttemptRepo()
		auditRepo   ports.AuditRepository
	)
	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database schema")
		}
		log.Info().Msg("PostgreSQL connected")

		attemptRepo = pgStorage.NewAttemptRepo(pool)
		auditRepo = pgStorage.NewAuditRepo(pool)
		if cfg.Vault.Backend == "postgres" {
			vaultRepo = pgStorage.NewVaultRepo(pool, encSvc)
		}
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	} else if cfg.Vault.Backend == "postgres" {
		log.Fatal().Msg("vault.backend=postgres requires database.enabled")
	}

	var docs ports.DocumentStore
	switch cfg.Storage.Documents {
	case "memory":
		docs = memory.NewDocumentStore()
		log.Warn().Msg("Cart and wallet documents are kept in memory")
	default:
		docs = redisStorage.NewDocumentStore(rdb)
	}

	// Initialize business services
	locks := service.NewKeyedMutex()
	catalogSvc := service.NewCatalogService(domain.DemoCatalog())
	vaultSvc := service.NewVaultService(vaultRepo, catalogSvc, policy, logger.Component(log, "vault"))
	if cfg.Vault.SeedDemo {
		n, err := vaultSvc.Seed(ctx, domain.DemoVaultSeed())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed vault")
		}
		if n > 0 {
			log.Info().Int("codes", n).Msg("Demo vault seeded")
		}
	}
	cartSvc := service.NewCartService(catalogSvc, docs, locks, logger.Component(log, "cart"))
	attributionSvc := service.NewAttributionService(vaultSvc, encSvc, docs, locks, logger.Component(log, "attribution"))
	walletSvc := service.NewWalletService(encSvc, docs, locks, logger.Component(log, "wallet"))
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	// Checkout provider
	checkoutLog := logger.Component(log, "checkout")
	httpClient := &http.Client{Timeout: cfg.Payment.FetchTimeout}
	var keys ports.KeyProvider
	if cfg.Payment.KeyEndpoint != "" {
		keys = checkout.NewRelayKeyProvider(httpClient, cfg.Payment.KeyEndpoint, checkoutLog)
	} else {
		keys = checkout.NewStaticKeyProvider(cfg.Payment.PublicKey)
	}

	registry := checkout.NewRegistry(cfg.Payment.AttemptTTL)
	var capability checkout.Probed
	switch cfg.Payment.Provider {
	case checkout.ProviderSandbox:
		capability = checkout.NewSandbox(registry)
	case checkout.ProviderFlutterwave:
		capability = checkout.NewFlutterwave(httpClient, cfg.Payment.ScriptURL, registry)
	default:
		log.Fatal().Str("provider", cfg.Payment.Provider).Msg("Unknown payment provider")
	}

	paymentSvc := service.NewPaymentService(
		keys,
		checkout.NewLoader(capability, checkoutLog),
		registry,
		cartSvc,
		attributionSvc,
		attemptRepo,
		redisStorage.NewAttemptLock(rdb),
		redisStorage.NewIdempotencyCache(rdb),
		cfg.Payment.Currency,
		cfg.Payment.AttemptTTL,
		checkoutLog,
	)

	if cfg.Payment.WebhookHash == "" {
		log.Warn().Msg("No payment webhook hash configured, provider callbacks will be rejected")
	}

	// OpenAPI document for Swagger UI
	openAPISpec, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		log.Warn().Err(err).Msg("OpenAPI document not found, Swagger UI will be unavailable")
		openAPISpec = nil
	} else {
		log.Info().Msg("OpenAPI document loaded for Swagger UI at /swagger")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		CatalogSvc:     catalogSvc,
		CartSvc:        cartSvc,
		WalletSvc:      walletSvc,
		VaultSvc:       vaultSvc,
		PaymentSvc:     paymentSvc,
		TokenSvc:       tokenSvc,
		SigSvc:         sigSvc,
		NonceStore:     redisStorage.NewNonceStore(rdb),
		Admin:          middleware.AdminCredentials{AccessKey: cfg.Admin.AccessKey, SecretKey: cfg.Admin.SecretKey},
		ProviderHash:   cfg.Payment.WebhookHash,
		RelayPublicKey: cfg.Relay.PublicKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: healthCheckers,
		AuditSvc:       auditSvc,
		OpenAPISpec:    openAPISpec,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newEncryptionService uses the configured key, or a random one when
// none is set.
func newEncryptionService(hexKey string) (*service.AESEncryptionService, error) {
	if hexKey != "" {
		return service.NewAESEncryptionService(hexKey)
	}
	svc, _, err := service.NewEphemeralAESEncryptionService()
	return svc, err
}
