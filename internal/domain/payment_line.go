package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentLine is one payment attempt reported by the gateway for an order.
// There is at most one line per gateway payment id; a line is created on
// first sighting and only updated afterwards, never replaced.
type PaymentLine struct {
	ID      int64
	OrderID int64

	PaymentID       int64 // gateway-assigned, immutable once created
	PaymentMethod   string
	ConfidenceLevel string

	AmountAllocated  decimal.Decimal // authorization amount when AUTHORIZED, else zero
	AmountDebited    decimal.Decimal // sum of successful captures
	AmountRefunded   decimal.Decimal // sum of successful refunds
	AmountChargeback decimal.Decimal // sum of successful chargebacks

	// Status is the gateway's raw authorization status string. It is
	// free-form on the wire but checked against the known vocabularies.
	Status string

	Created time.Time
	Updated time.Time
}
