package secrets

import (
	"context"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

// VaultConfig contains configuration for the HashiCorp Vault backend.
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Token for token authentication
	Token string

	// KV secrets engine mount path (default: "secret")
	MountPath string

	// Path prefix under the mount for merchant credentials
	// (default: "docdata/merchants")
	PathPrefix string

	// KV version: "v1" or "v2" (default: "v2")
	KVVersion string

	// Cache TTL
	CacheTTL time.Duration

	// Enable caching
	EnableCache bool

	// TLS configuration
	TLSSkipVerify bool
}

// DefaultVaultConfig returns default configuration for the Vault backend.
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:     address,
		MountPath:   "secret",
		PathPrefix:  "docdata/merchants",
		KVVersion:   "v2",
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

// VaultCredentialStore resolves merchant credentials from a Vault KV
// secrets engine. Each merchant is a secret with a "password" field.
type VaultCredentialStore struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
	cache  *credentialCache
}

// NewVaultCredentialStore creates a new Vault-backed credential store.
func NewVaultCredentialStore(cfg *VaultConfig, logger *zap.Logger) (*VaultCredentialStore, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSSkipVerify {
		tlsConfig := &vault.TLSConfig{
			Insecure: true,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("vault token is required")
	}
	client.SetToken(cfg.Token)

	logger.Info("Vault credential store initialized",
		zap.String("address", cfg.Address),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &VaultCredentialStore{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newCredentialCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

// GetCredentials reads the merchant's secret from Vault.
func (s *VaultCredentialStore) GetCredentials(ctx context.Context, merchantName string) (*ports.MerchantCredentials, error) {
	if cached := s.cache.get(merchantName); cached != nil {
		s.logger.Debug("Merchant credentials retrieved from cache",
			zap.String("merchant", merchantName))
		return cached, nil
	}

	path := fmt.Sprintf("%s/%s", s.config.PathPrefix, merchantName)

	var fullPath string
	if s.config.KVVersion == "v2" {
		fullPath = fmt.Sprintf("%s/data/%s", s.config.MountPath, path)
	} else {
		fullPath = fmt.Sprintf("%s/%s", s.config.MountPath, path)
	}

	startTime := time.Now()
	secret, err := s.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		s.logger.Error("Failed to retrieve merchant credentials from Vault",
			zap.String("merchant", merchantName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read credentials from Vault: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("credentials not found for merchant: %s", merchantName)
	}

	s.logger.Info("Merchant credentials retrieved",
		zap.String("merchant", merchantName),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	secretData := secret.Data
	if s.config.KVVersion == "v2" {
		// KV v2 wraps data in a "data" field
		data, ok := secret.Data["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid secret format from Vault")
		}
		secretData = data
	}

	password, ok := secretData["password"].(string)
	if !ok || password == "" {
		return nil, fmt.Errorf("credentials for %s have no password field", merchantName)
	}

	creds := &ports.MerchantCredentials{Name: merchantName, Password: password}
	s.cache.set(merchantName, creds)
	return creds, nil
}
