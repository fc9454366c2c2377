package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for store lookups and the line create race.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrPaymentLineNotFound  = errors.New("payment line not found")
	ErrDuplicatePaymentLine = errors.New("payment line already exists")
)

// GatewayError is a hard failure from the payment gateway: the call was
// rejected or could not be completed. It is raised before the engine runs,
// so a pass is never left half-applied.
type GatewayError struct {
	Op      string // gateway operation: create, start, cancel, status
	Code    string // gateway error code, if any
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("docdata %s failed: %s (code %s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("docdata %s failed: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// InvalidMerchantError is raised when the order belongs to a different
// merchant than the one the gateway client is configured for. This is a
// hard failure: it aborts before any gateway call or write.
type InvalidMerchantError struct {
	MerchantOrderID string
	OrderMerchant   string
	ClientMerchant  string
}

func (e *InvalidMerchantError) Error() string {
	return fmt.Sprintf("order %s belongs to merchant %s, client is configured for %s",
		e.MerchantOrderID, e.OrderMerchant, e.ClientMerchant)
}
