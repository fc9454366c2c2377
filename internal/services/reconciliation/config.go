package reconciliation

import (
	"time"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

// Gateway authorization statuses documented by the gateway's order API.
const (
	AuthStatusNew                    = "NEW"
	AuthStatusStarted                = "STARTED"
	AuthStatusRedirectedForAuth      = "REDIRECTED_FOR_AUTHENTICATION"
	AuthStatusAuthorizationRequested = "AUTHORIZATION_REQUESTED"
	AuthStatusAuthorized             = "AUTHORIZED"
	AuthStatusPaid                   = "PAID"
	AuthStatusCancelled              = "CANCELED"
	AuthStatusChargedBack            = "CHARGED-BACK"
	AuthStatusConfirmedPaid          = "CONFIRMED_PAID"
	AuthStatusConfirmedChargedback   = "CONFIRMED_CHARGEDBACK"
	AuthStatusClosedSuccess          = "CLOSED_SUCCESS"
	AuthStatusClosedCancelled        = "CLOSED_CANCELED"
)

// Success statuses for capture/refund/chargeback items. Items in any other
// status are not counted towards the line totals.
const (
	captureSuccessStatus    = "CAPTURED"
	chargebackSuccessStatus = "CHARGED"
)

// Config is the injected configuration of the reconciliation engine: the
// status vocabularies, the fallback status mapping table, the per-currency
// payment success margins and the expiry window. Deployments can extend the
// vocabularies without touching the engine.
type Config struct {
	// DocumentedStatuses are authorization statuses the gateway documents.
	DocumentedStatuses map[string]bool

	// SeenUndocumentedStatuses are statuses observed in production but not
	// documented. A status in neither set is logged as a warning yet still
	// processed.
	SeenUndocumentedStatuses map[string]bool

	// StatusMapping maps the last payment line's authorization status to an
	// order status when no authorized line yields a conclusive decision.
	StatusMapping map[string]domain.OrderStatus

	// PaymentSuccessMargins maps a currency to the tolerated shortfall in
	// minor units for cross-currency orders, absorbing conversion losses.
	PaymentSuccessMargins map[string]int64

	// ExpiryWindow is how old an order with no payment activity must be
	// before it is considered expired.
	ExpiryWindow time.Duration
}

// DefaultConfig returns the engine configuration matching the gateway's
// documented vocabulary and a 21-day expiry window.
func DefaultConfig() Config {
	return Config{
		DocumentedStatuses: map[string]bool{
			AuthStatusNew:                    true,
			AuthStatusStarted:                true,
			AuthStatusRedirectedForAuth:      true,
			AuthStatusAuthorizationRequested: true,
			AuthStatusAuthorized:             true,
			AuthStatusPaid:                   true,
			AuthStatusCancelled:              true,
			AuthStatusChargedBack:            true,
			AuthStatusConfirmedPaid:          true,
			AuthStatusConfirmedChargedback:   true,
			AuthStatusClosedSuccess:          true,
			AuthStatusClosedCancelled:        true,
		},
		SeenUndocumentedStatuses: map[string]bool{
			// Observed on the wire, missing from the integration manual.
			"AUTHORIZATION_FAILED":  true,
			"AUTHENTICATION_FAILED": true,
			"CLOSED_EXPIRED":        true,
		},
		StatusMapping: map[string]domain.OrderStatus{
			AuthStatusNew:                    domain.OrderStatusNew,
			AuthStatusStarted:                domain.OrderStatusNew,
			AuthStatusRedirectedForAuth:      domain.OrderStatusInProgress,
			AuthStatusAuthorizationRequested: domain.OrderStatusPending,
			AuthStatusAuthorized:             domain.OrderStatusPending,
			// PAID maps to PENDING here; the totals check upgrades it.
			AuthStatusPaid:                 domain.OrderStatusPending,
			AuthStatusCancelled:            domain.OrderStatusCancelled,
			AuthStatusChargedBack:          domain.OrderStatusChargedBack,
			AuthStatusConfirmedPaid:        domain.OrderStatusPaid,
			AuthStatusConfirmedChargedback: domain.OrderStatusChargedBack,
			AuthStatusClosedSuccess:        domain.OrderStatusPaid,
			AuthStatusClosedCancelled:      domain.OrderStatusCancelled,
		},
		PaymentSuccessMargins: map[string]int64{},
		ExpiryWindow:          21 * 24 * time.Hour,
	}
}
