package domain

// ChangeEventKind identifies what a reconciliation pass changed.
type ChangeEventKind string

const (
	EventPaymentAdded       ChangeEventKind = "payment-added"
	EventPaymentUpdated     ChangeEventKind = "payment-updated"
	EventOrderStatusChanged ChangeEventKind = "order-status-changed"
)

// ChangeEvent describes one committed change produced by a reconciliation
// pass. Events are returned to the caller for dispatch after the pass's
// transaction has committed; the engine never publishes them itself.
type ChangeEvent struct {
	Kind     ChangeEventKind
	OrderKey string

	// PaymentID is set for payment-added and payment-updated events.
	PaymentID int64

	// OldStatus/NewStatus are set for order-status-changed events.
	OldStatus OrderStatus
	NewStatus OrderStatus
}
