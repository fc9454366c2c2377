package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

// LocalCredentialStore reads merchant credentials from the local
// filesystem, one file per merchant under basePath.
// WARNING: This is for development only. Use AWS Secrets Manager or Vault
// in production.
type LocalCredentialStore struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalCredentialStore creates a filesystem-backed credential store.
func NewLocalCredentialStore(basePath string, logger *zap.Logger) *LocalCredentialStore {
	return &LocalCredentialStore{
		basePath: basePath,
		logger:   logger,
	}
}

// GetCredentials loads credentials from <basePath>/<merchant>.json, or a
// plain-text password file <basePath>/<merchant>.
func (s *LocalCredentialStore) GetCredentials(ctx context.Context, merchantName string) (*ports.MerchantCredentials, error) {
	jsonPath := filepath.Join(s.basePath, merchantName+".json")

	s.logger.Debug("Reading merchant credentials from filesystem",
		zap.String("merchant", merchantName),
	)

	if data, err := os.ReadFile(jsonPath); err == nil {
		var doc struct {
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse credentials for %s: %w", merchantName, err)
		}
		if doc.Name == "" {
			doc.Name = merchantName
		}
		return &ports.MerchantCredentials{Name: doc.Name, Password: doc.Password}, nil
	}

	// Fall back to a plain-text password file
	data, err := os.ReadFile(filepath.Join(s.basePath, merchantName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("credentials not found for merchant: %s", merchantName)
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	return &ports.MerchantCredentials{
		Name:     merchantName,
		Password: strings.TrimSpace(string(data)),
	}, nil
}
