package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

// AWSConfig contains configuration for the AWS Secrets Manager backend.
type AWSConfig struct {
	// AWS Region (e.g., "eu-west-1")
	Region string

	// Optional: AWS profile name (for local development)
	Profile string

	// Optional: Custom endpoint (for LocalStack testing)
	Endpoint string

	// Secret name prefix; the merchant name is appended
	// (default: "docdata/merchants")
	NamePrefix string

	// Cache TTL for credentials (default: 5 minutes)
	CacheTTL time.Duration

	// Enable caching
	EnableCache bool
}

// DefaultAWSConfig returns default configuration.
func DefaultAWSConfig(region string) *AWSConfig {
	return &AWSConfig{
		Region:      region,
		NamePrefix:  "docdata/merchants",
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

// AWSCredentialStore resolves merchant credentials from AWS Secrets
// Manager. Each merchant's secret is a JSON document with a "password"
// field.
type AWSCredentialStore struct {
	client *secretsmanager.Client
	config *AWSConfig
	logger *zap.Logger
	cache  *credentialCache
}

// NewAWSCredentialStore creates a new Secrets Manager backed store.
func NewAWSCredentialStore(ctx context.Context, cfg *AWSConfig, logger *zap.Logger) (*AWSCredentialStore, error) {
	var awsConfig aws.Config
	var err error

	if cfg.Profile != "" {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithSharedConfigProfile(cfg.Profile),
		)
	} else {
		// Default credentials chain (IAM role in production)
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOptions := []func(*secretsmanager.Options){}
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	client := secretsmanager.NewFromConfig(awsConfig, clientOptions...)

	logger.Info("AWS Secrets Manager credential store initialized",
		zap.String("region", cfg.Region),
		zap.Bool("cache_enabled", cfg.EnableCache),
	)

	return &AWSCredentialStore{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newCredentialCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

// GetCredentials fetches the merchant's secret value.
func (s *AWSCredentialStore) GetCredentials(ctx context.Context, merchantName string) (*ports.MerchantCredentials, error) {
	if cached := s.cache.get(merchantName); cached != nil {
		s.logger.Debug("Merchant credentials retrieved from cache",
			zap.String("merchant", merchantName))
		return cached, nil
	}

	secretID := fmt.Sprintf("%s/%s", s.config.NamePrefix, merchantName)

	startTime := time.Now()
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		s.logger.Error("Failed to retrieve merchant credentials",
			zap.String("merchant", merchantName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get credentials for %s: %w", merchantName, err)
	}

	s.logger.Info("Merchant credentials retrieved",
		zap.String("merchant", merchantName),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	var doc struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse credentials for %s: %w", merchantName, err)
	}
	if doc.Password == "" {
		return nil, fmt.Errorf("credentials for %s have no password field", merchantName)
	}

	creds := &ports.MerchantCredentials{Name: merchantName, Password: doc.Password}
	s.cache.set(merchantName, creds)
	return creds, nil
}
