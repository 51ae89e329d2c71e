package handler

import (
	"giftcard-storefront/internal/adapter/http/middleware"
	redisStore "giftcard-storefront/internal/adapter/storage/redis"
	"giftcard-storefront/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	CatalogSvc     ports.CatalogService
	CartSvc        ports.CartService
	WalletSvc      ports.WalletService
	VaultSvc       ports.VaultService
	PaymentSvc     ports.PaymentAdapter
	TokenSvc       ports.TokenService
	SigSvc         ports.SignatureService
	NonceStore     ports.NonceStore
	Admin          middleware.AdminCredentials
	ProviderHash   string                     // verif-hash secret for provider callbacks
	RelayPublicKey string                     // served by the public-key relay
	AllowedOrigins []string                   // CORS origins, "*" for any
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	OpenAPISpec    []byte             // nil = /swagger disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	docs := NewDocsHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", docs.UI)
		swagger.GET("/spec", docs.Document)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// Public-key relay, also reachable under the serverless function path
	relay := PublicKey(deps.RelayPublicKey)
	r.GET("/api/public-key", rl("relay"), relay)
	r.GET("/.netlify/functions/public-key", rl("relay"), relay)

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	sessionHandler := NewSessionHandler(deps.TokenSvc)
	catalogHandler := NewCatalogHandler(deps.CatalogSvc)
	checkoutHandler := NewCheckoutHandler(deps.PaymentSvc)

	v1.POST("/sessions", rl("sessions"), sessionHandler.Issue)
	v1.GET("/products", rl("catalog"), catalogHandler.ListProducts)
	v1.GET("/checkout/readiness", rl("catalog"), checkoutHandler.Readiness)

	// --- Provider callback (shared secret) ---
	v1.POST("/checkout/callback",
		rl("callback"),
		middleware.ProviderHash(deps.ProviderHash, deps.Logger),
		checkoutHandler.Callback,
	)

	// --- JWT-authenticated routes (shopper) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	cartHandler := NewCartHandler(deps.CartSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)

	cart := v1.Group("/cart", jwtAuth)
	{
		cart.GET("", rl("cart"), cartHandler.GetCart)
		cart.DELETE("", rl("cart"), cartHandler.ClearCart)
		cart.POST("/lines", rl("cart"), cartHandler.AddLine)
	}

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", rl("wallet"), walletHandler.ListEntries)
		wallet.GET("/verify", rl("wallet"), walletHandler.VerifyChain)
		wallet.POST("/:id/reveal", rl("reveal"), walletHandler.Reveal)
	}

	checkout := v1.Group("/checkout", jwtAuth)
	{
		checkout.POST("", rl("checkout"), checkoutHandler.Begin)
		checkout.GET("/:tx_ref", rl("wallet"), checkoutHandler.GetAttempt)
		checkout.POST("/:tx_ref/cancel", rl("checkout"), checkoutHandler.Cancel)
	}

	// --- HMAC-authenticated routes (operator) ---
	adminAuth := middleware.AdminHMAC(deps.Admin, deps.SigSvc, deps.NonceStore, deps.Logger)
	adminHandler := NewAdminHandler(deps.VaultSvc)
	admin := v1.Group("/admin/vault", adminAuth)
	{
		admin.POST("/import", rl("admin"), adminHandler.ImportBatch)
		admin.GET("/stock", rl("admin"), adminHandler.Stock)
	}

	return r
}
