package ports

//go:generate mockgen -source=health.go -destination=mocks/mock_health.go -package=mocks

import "context"

// HealthChecker is a backing store probed by GET /health: Redis always,
// PostgreSQL when the database is enabled.
type HealthChecker interface {
	// Ping returns nil if the store can serve storefront requests.
	Ping(ctx context.Context) error
	// Name is the key used in the health report.
	Name() string
}
