package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	StorageDriver  string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool

	JWTSecret string
	JWTIssuer string

	RateLimit          string
	CORSAllowedOrigins []string

	Policy            domain.LedgerPolicy
	PostingMaxRetries int

	RedisAddr      string
	RedisPassword  string
	RedisChannel   string
	ReportCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	policy := domain.DefaultLedgerPolicy()

	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "ledger-engine")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("LEDGER_BASE_CURRENCY", policy.BaseCurrency)
	v.SetDefault("LEDGER_RECEIVABLE_ACCOUNT", policy.ReceivableAccount)
	v.SetDefault("LEDGER_REVENUE_ACCOUNT", policy.RevenueAccount)
	v.SetDefault("LEDGER_CASH_ACCOUNT", policy.CashAccount)
	v.SetDefault("LEDGER_ROUNDING_ACCOUNT", policy.RoundingAccount)
	v.SetDefault("LEDGER_FX_GAIN_LOSS_ACCOUNT", policy.FXGainLossAccount)
	v.SetDefault("LEDGER_ROUNDING_MODE", string(policy.Rounding))
	v.SetDefault("POSTING_MAX_RETRIES", 3)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_EVENTS_CHANNEL", "")
	v.SetDefault("REPORT_CACHE_TTL", "10m")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "ledger-events")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:        v.GetString("PGSQL_URL"),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		StorageDriver:      strings.ToLower(v.GetString("STORAGE_DRIVER")),
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		RateLimit:          v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		PostingMaxRetries:  v.GetInt("POSTING_MAX_RETRIES"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisChannel:       v.GetString("REDIS_EVENTS_CHANNEL"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:         v.GetString("KAFKA_TOPIC"),
		Policy: domain.LedgerPolicy{
			BaseCurrency:       strings.ToUpper(v.GetString("LEDGER_BASE_CURRENCY")),
			ReceivableAccount:  v.GetString("LEDGER_RECEIVABLE_ACCOUNT"),
			RevenueAccount:     v.GetString("LEDGER_REVENUE_ACCOUNT"),
			CashAccount:        v.GetString("LEDGER_CASH_ACCOUNT"),
			RoundingAccount:    v.GetString("LEDGER_ROUNDING_ACCOUNT"),
			FXGainLossAccount:  v.GetString("LEDGER_FX_GAIN_LOSS_ACCOUNT"),
			Rounding:           domain.RoundingMode(strings.ToLower(v.GetString("LEDGER_ROUNDING_MODE"))),
			RevenueRecognition: domain.RecognizeOnIssue,
		},
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT not set, using default", slog.String("port", cfg.Port))
	}

	ttl, err := time.ParseDuration(v.GetString("REPORT_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CACHE_TTL: %w", err)
	}
	cfg.ReportCacheTTL = ttl

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		slog.Warn("JWT_SECRET not set, using an insecure development key")
		cfg.JWTSecret = "insecure-development-secret"
	}

	if cfg.PostingMaxRetries < 0 {
		return nil, fmt.Errorf("POSTING_MAX_RETRIES must not be negative")
	}

	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
