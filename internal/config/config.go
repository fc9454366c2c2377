package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Docdata        DocdataConfig
	Reconciliation ReconciliationConfig
	Logger         LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// DocdataConfig holds Docdata gateway configuration
type DocdataConfig struct {
	BaseURL      string // Order API endpoint (e.g., https://secure.docdatapayments.com/ps/api)
	MerchantName string // Merchant account the service acts for
	Timeout      int    // Request timeout in seconds (default: 30)

	// Credential backend: "local", "vault" or "aws"
	CredentialBackend string
	// Backend-specific location: directory for local, server address for
	// vault, region for aws
	CredentialPath string
	// Vault token (vault backend only)
	VaultToken string
}

// ReconciliationConfig holds reconciliation engine tuning
type ReconciliationConfig struct {
	// Days before an order with no payment activity is considered expired
	ExpiryDays int
	// Acceptable shortfall in cents per currency when the gateway exchanged
	// amounts, e.g. "EUR:50,USD:30"
	Margins map[string]int64
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	margins, err := parseMargins(getEnv("DOCDATA_PAYMENT_MARGINS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "docdata_reconciler"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Docdata: DocdataConfig{
			BaseURL:           getEnv("DOCDATA_BASE_URL", "https://test.docdatapayments.com/ps/api"),
			MerchantName:      getEnv("DOCDATA_MERCHANT_NAME", ""),
			Timeout:           getEnvAsInt("DOCDATA_TIMEOUT", 30),
			CredentialBackend: getEnv("DOCDATA_CREDENTIAL_BACKEND", "local"),
			CredentialPath:    getEnv("DOCDATA_CREDENTIAL_PATH", "./secrets"),
			VaultToken:        getEnv("VAULT_TOKEN", ""),
		},
		Reconciliation: ReconciliationConfig{
			ExpiryDays: getEnvAsInt("DOCDATA_EXPIRY_DAYS", 21),
			Margins:    margins,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Docdata.MerchantName == "" {
		return nil, fmt.Errorf("DOCDATA_MERCHANT_NAME is required")
	}
	switch cfg.Docdata.CredentialBackend {
	case "local", "vault", "aws":
	default:
		return nil, fmt.Errorf("unsupported DOCDATA_CREDENTIAL_BACKEND: %s", cfg.Docdata.CredentialBackend)
	}
	if cfg.Docdata.CredentialBackend == "vault" && cfg.Docdata.VaultToken == "" {
		return nil, fmt.Errorf("VAULT_TOKEN is required for the vault credential backend")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// parseMargins parses "EUR:50,USD:30" into a per-currency cent map.
func parseMargins(raw string) (map[string]int64, error) {
	margins := make(map[string]int64)
	if raw == "" {
		return margins, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid DOCDATA_PAYMENT_MARGINS entry: %s", pair)
		}
		cents, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || cents < 0 {
			return nil, fmt.Errorf("invalid margin for %s: %s", parts[0], parts[1])
		}
		margins[strings.ToUpper(parts[0])] = cents
	}
	return margins, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
