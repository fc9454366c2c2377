package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the canonical status of a payment cluster on our side.
// The gateway only reports per-payment authorization statuses; the
// reconciliation engine folds those into one of these values.
type OrderStatus string

const (
	OrderStatusNew          OrderStatus = "NEW"
	OrderStatusInProgress   OrderStatus = "IN_PROGRESS"
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusPaid         OrderStatus = "PAID"
	OrderStatusPaidRefunded OrderStatus = "PAID_REFUNDED"
	OrderStatusRefunded     OrderStatus = "REFUNDED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
	OrderStatusChargedBack  OrderStatus = "CHARGED_BACK"
	OrderStatusExpired      OrderStatus = "EXPIRED"
	OrderStatusUnknown      OrderStatus = "UNKNOWN"
)

// IsRecognized returns true if the status is one of the canonical values.
// Computed statuses outside this set are coerced to UNKNOWN on assignment.
func (s OrderStatus) IsRecognized() bool {
	switch s {
	case OrderStatusNew, OrderStatusInProgress, OrderStatusPending,
		OrderStatusPaid, OrderStatusPaidRefunded, OrderStatusRefunded,
		OrderStatusCancelled, OrderStatusChargedBack, OrderStatusExpired,
		OrderStatusUnknown:
		return true
	}
	return false
}

// IsClosed returns true for statuses that must never regress into
// NEW/IN_PROGRESS through a reconciliation pass.
func (s OrderStatus) IsClosed() bool {
	return s == OrderStatusCancelled || s == OrderStatusExpired
}

// Order is the aggregate root: one payment cluster registered with the
// gateway for one merchant order. The totals snapshot is overwritten
// wholesale from the latest status report on every pass.
type Order struct {
	ID              int64
	MerchantName    string
	MerchantOrderID string
	OrderKey        string // gateway-assigned cluster key

	Currency         string
	TotalGrossAmount decimal.Decimal // the expected charge
	Status           OrderStatus

	TotalRegistered       decimal.Decimal
	TotalShopperPending   decimal.Decimal
	TotalAcquirerPending  decimal.Decimal
	TotalAcquirerApproved decimal.Decimal
	TotalCaptured         decimal.Decimal
	TotalRefunded         decimal.Decimal
	TotalChargedBack      decimal.Decimal

	Language string
	Country  string

	Created time.Time
	Updated time.Time
}

// TotalGrossAmountCents returns the expected charge in minor units,
// for comparison against the report's registered total.
func (o *Order) TotalGrossAmountCents() int64 {
	return o.TotalGrossAmount.Mul(decimal.NewFromInt(100)).IntPart()
}
