package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Kafka configuration
	Kafka KafkaConfig

	// JWT configuration
	JWT JWTConfig

	// Voucher signer configuration
	Signer SignerConfig

	// Issuance ledger configuration
	Issuance IssuanceConfig

	// Price oracle configuration
	Pricing PricingConfig

	// Listing registry defaults
	Listings ListingsConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for different operations
	QuoteCacheTTL time.Duration
	CacheTTL      time.Duration
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers            []string
	OracleRequestTopic string
	OracleResultTopic  string
	CatalogTopic       string
	ConsumerGroupID    string
	Enabled            bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	JWTExpiresIn time.Duration
}

// SignerConfig holds the authorized voucher signer configuration
type SignerConfig struct {
	// PEM-encoded ECDSA P-256 public key of the only accepted voucher signer
	PublicKeyPEM string
	ContextID    string
}

// IssuanceConfig holds issuance ledger configuration
type IssuanceConfig struct {
	FeeRateBps     int64
	Treasury       string
	NativeAsset    string
	TicketContract string
}

// PricingConfig holds price oracle adapter configuration
type PricingConfig struct {
	SlippageBps int64
	FeedTimeout time.Duration
}

// ListingsConfig holds listing registry defaults (mutable at runtime by managers)
type ListingsConfig struct {
	FeeBps       int64
	FeeRecipient string
	MinDuration  time.Duration
	MaxDuration  time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool
	WindowDuration  time.Duration
	DefaultRequests int
	PublicRequests  int
	AdminRequests   int
	WhitelistedIPs  []string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getEnvAsInt("MAX_HEADER_BYTES", 1<<20),

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "ticketforge"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},

		Redis: RedisConfig{
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			QuoteCacheTTL: getEnvAsDuration("QUOTE_CACHE_TTL", 5*time.Second),
			CacheTTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},

		Kafka: KafkaConfig{
			Brokers:            getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			OracleRequestTopic: getEnv("ORACLE_REQUEST_TOPIC", "ticket-verification-requests"),
			OracleResultTopic:  getEnv("ORACLE_RESULT_TOPIC", "ticket-verification-results"),
			CatalogTopic:       getEnv("CATALOG_TOPIC", "catalog-issuance"),
			ConsumerGroupID:    getEnv("KAFKA_CONSUMER_GROUP", "ticketforge-verification-workers"),
			Enabled:            getEnvAsBool("KAFKA_ENABLED", true),
		},

		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
			JWTExpiresIn: getEnvAsDuration("JWT_EXPIRES_IN", 24*time.Hour),
		},

		Signer: SignerConfig{
			PublicKeyPEM: getEnv("VOUCHER_SIGNER_PUBKEY", ""),
			ContextID:    getEnv("VOUCHER_CONTEXT_ID", "ticketforge-v1"),
		},

		Issuance: IssuanceConfig{
			FeeRateBps:     getEnvAsInt64("ISSUANCE_FEE_BPS", 250),
			Treasury:       getEnv("TREASURY_ADDRESS", "treasury"),
			NativeAsset:    getEnv("NATIVE_ASSET", "NATIVE"),
			TicketContract: getEnv("TICKET_CONTRACT_ADDR", "ticketforge-tickets"),
		},

		Pricing: PricingConfig{
			SlippageBps: getEnvAsInt64("SLIPPAGE_BPS", 100),
			FeedTimeout: getEnvAsDuration("FEED_TIMEOUT", 5*time.Second),
		},

		Listings: ListingsConfig{
			FeeBps:       getEnvAsInt64("LISTING_FEE_BPS", 250),
			FeeRecipient: getEnv("LISTING_FEE_RECIPIENT", "platform"),
			MinDuration:  getEnvAsDuration("LISTING_MIN_DURATION", time.Hour),
			MaxDuration:  getEnvAsDuration("LISTING_MAX_DURATION", 30*24*time.Hour),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
			DefaultRequests: getEnvAsInt("RATE_LIMIT_DEFAULT", 60),
			PublicRequests:  getEnvAsInt("RATE_LIMIT_PUBLIC", 120),
			AdminRequests:   getEnvAsInt("RATE_LIMIT_ADMIN", 30),
			WhitelistedIPs:  getEnvAsSlice("RATE_LIMIT_WHITELIST", nil),
		},

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	cfg.Database.DSN = getEnv("DATABASE_URL", buildDSN(cfg.Database))
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// GetAPIBasePath returns the API base path like /api/v1
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}

// IsDevelopment reports whether we run in debug mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

func buildDSN(db DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}
