package merchant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

// Resolver turns a merchant name into gateway credentials via the
// configured credential backend.
type Resolver struct {
	store  ports.CredentialStore
	logger *zap.Logger
}

// NewResolver creates a merchant credential resolver.
func NewResolver(store ports.CredentialStore, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve fetches the credentials for the named merchant.
func (r *Resolver) Resolve(ctx context.Context, merchantName string) (*ports.MerchantCredentials, error) {
	if merchantName == "" {
		return nil, fmt.Errorf("merchant name is required")
	}

	creds, err := r.store.GetCredentials(ctx, merchantName)
	if err != nil {
		r.logger.Error("failed to resolve merchant credentials",
			zap.String("merchant", merchantName),
			zap.Error(err))
		return nil, err
	}
	return creds, nil
}
