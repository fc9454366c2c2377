package ports

import "context"

// MerchantCredentials are the gateway credentials for one merchant account.
type MerchantCredentials struct {
	Name     string
	Password string
}

// CredentialStore resolves gateway credentials by merchant name. Backends:
// local filesystem (development), HashiCorp Vault, AWS Secrets Manager.
type CredentialStore interface {
	GetCredentials(ctx context.Context, merchantName string) (*MerchantCredentials, error)
}
