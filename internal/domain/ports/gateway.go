package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

// CreateOrderArgs are the arguments for registering a new payment cluster
// with the gateway.
type CreateOrderArgs struct {
	MerchantOrderID  string
	TotalGrossAmount decimal.Decimal
	Currency         string
	Language         string
	Country          string
	Description      string
	Profile          string
}

// CreateResult is the gateway's answer to a create call.
type CreateResult struct {
	OrderKey string
}

// StartResult is the gateway's answer to a start call.
type StartResult struct {
	PaymentID int64
}

// GatewayClient is the transport client for the payment gateway. It is an
// external collaborator: it performs network I/O, handles authentication
// and raises domain.GatewayError hard failures. The reconciliation engine
// itself never calls it while holding locks.
type GatewayClient interface {
	Create(ctx context.Context, args CreateOrderArgs) (*CreateResult, error)
	Start(ctx context.Context, orderKey, paymentMethod string) (*StartResult, error)
	Cancel(ctx context.Context, orderKey string) error
	Status(ctx context.Context, orderKey string) (*domain.StatusReport, error)

	// MerchantName returns the merchant the client is authenticated as.
	MerchantName() string
}
