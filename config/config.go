package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Admin    AdminConfig    `mapstructure:"admin"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	AES      AESConfig      `mapstructure:"aes"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"` // debug, release, test
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig selects where cart and wallet documents live.
type StorageConfig struct {
	Documents string `mapstructure:"documents"` // redis, memory
}

type VaultConfig struct {
	Backend         string `mapstructure:"backend"`          // memory, postgres
	DepletionPolicy string `mapstructure:"depletion_policy"` // placeholder, fail
	SeedDemo        bool   `mapstructure:"seed_demo"`
}

type PaymentConfig struct {
	Provider     string        `mapstructure:"provider"` // flutterwave, sandbox
	PublicKey    string        `mapstructure:"public_key"`
	KeyEndpoint  string        `mapstructure:"key_endpoint"`
	ScriptURL    string        `mapstructure:"script_url"`
	Currency     string        `mapstructure:"currency"`
	WebhookHash  string        `mapstructure:"webhook_hash"` // shared secret sent by the provider in verif-hash
	AttemptTTL   time.Duration `mapstructure:"attempt_ttl"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// RelayConfig is the key served by the public-key relay endpoint.
type RelayConfig struct {
	PublicKey string `mapstructure:"public_key"`
}

type AdminConfig struct {
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: GCS_ (Gift Card Storefront).
// Nested keys use underscore: GCS_REDIS_HOST, GCS_PAYMENT_PUBLIC_KEY, etc.
// The relay key also honours the bare FLW_PUBLIC_KEY variable.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "giftcards")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("storage.documents", "redis")
	v.SetDefault("vault.backend", "memory")
	v.SetDefault("vault.depletion_policy", "placeholder")
	v.SetDefault("vault.seed_demo", true)
	v.SetDefault("payment.provider", "flutterwave")
	v.SetDefault("payment.public_key", "")
	v.SetDefault("payment.key_endpoint", "")
	v.SetDefault("payment.script_url", "https://checkout.flutterwave.com/v3.js")
	v.SetDefault("payment.currency", "XOF")
	v.SetDefault("payment.webhook_hash", "")
	v.SetDefault("payment.attempt_ttl", "15m")
	v.SetDefault("payment.fetch_timeout", "10s")
	v.SetDefault("relay.public_key", "")
	v.SetDefault("admin.access_key", "")
	v.SetDefault("admin.secret_key", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "720h")
	v.SetDefault("jwt.issuer", "giftcard-storefront")
	v.SetDefault("aes.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: GCS_REDIS_HOST -> redis.host
	v.SetEnvPrefix("GCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("relay.public_key", "GCS_RELAY_PUBLIC_KEY", "FLW_PUBLIC_KEY"); err != nil {
		return nil, fmt.Errorf("binding relay key env: %w", err)
	}

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
