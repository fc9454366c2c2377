package reconciliation

import (
	"time"

	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
	"github.com/edoburu/docdata-reconciler/pkg/observability"
)

// OrderStatusResolver is the state machine that combines the report's
// totals and the outcome of each authorized payment line into a single new
// order status.
type OrderStatusResolver struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderStatusResolver creates a new status resolver.
func NewOrderStatusResolver(cfg Config, logger *zap.Logger) *OrderStatusResolver {
	return &OrderStatusResolver{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ResolveFromTotals determines the order status when the report carries no
// payment entries. The gateway exposes no cluster-level status, so this is
// heuristics on the approximate totals alone.
func (r *OrderStatusResolver) ResolveFromTotals(order *domain.Order, totals domain.ApproximateTotals, intended domain.OrderStatus) domain.OrderStatus {
	if totals.AllSettledZero() {
		// No payment activity at all: started, cancelled or expired.
		if order.Status == domain.OrderStatusCancelled {
			// Stay cancelled, don't become expired.
			return order.Status
		}
		if order.Created.Before(r.now().Add(-r.cfg.ExpiryWindow)) {
			if intended != "" {
				return intended
			}
			return domain.OrderStatusExpired
		}
		if intended != "" {
			return intended
		}
		return domain.OrderStatusNew
	}

	// Money moved but the gateway reports no payment line. Inconsistent
	// response; leave a trail for manual investigation.
	r.logger.Error("payment cluster has no payments but non-zero totals, status cannot be reliably determined",
		zap.String("order_key", order.OrderKey),
		zap.Int64("total_shopper_pending", totals.TotalShopperPending),
		zap.Int64("total_acquirer_pending", totals.TotalAcquirerPending),
		zap.Int64("total_acquirer_approved", totals.TotalAcquirerApproved),
		zap.Int64("total_captured", totals.TotalCaptured),
		zap.Int64("total_refunded", totals.TotalRefunded),
		zap.Int64("total_chargedback", totals.TotalChargedback),
	)
	observability.RecordAnomaly("totals_without_payments")

	if order.Status.IsClosed() {
		return order.Status
	}
	if intended != "" {
		return intended
	}
	return domain.OrderStatusNew
}

// ResolveFromLines determines the order status from the report's payment
// entries, which must already be sorted by ascending payment id. The last
// AUTHORIZED line that yields a conclusive sub-decision wins; otherwise the
// static mapping of the last line's status applies.
func (r *OrderStatusResolver) ResolveFromLines(order *domain.Order, totals domain.ApproximateTotals, entries []domain.PaymentReport) domain.OrderStatus {
	var newStatus domain.OrderStatus

	for _, entry := range entries {
		if entry.Authorization.Status != AuthStatusAuthorized {
			continue
		}
		if candidate, ok := r.evaluateAuthorized(order, totals, entries, entry); ok {
			newStatus = candidate
		}
	}

	if newStatus == "" {
		// No conclusive decision. This happens e.g. when a shopper starts
		// both a PayPal and a card payment and completes only the first:
		// the last line is NEW while an earlier one is AUTHORIZED. Fall
		// back to the mapping of the last line's status.
		last := entries[len(entries)-1]
		mapped, ok := r.cfg.StatusMapping[last.Authorization.Status]
		if !ok {
			mapped = domain.OrderStatusUnknown
		}
		newStatus = mapped
	}

	// The gateway does not expire individual payment lines, so an expired
	// or cancelled cluster must not flap back to NEW/IN_PROGRESS.
	if order.Status.IsClosed() &&
		(newStatus == domain.OrderStatusNew || newStatus == domain.OrderStatusInProgress) {
		newStatus = order.Status
	}

	// Non-fatal consistency check: the registered total should equal the
	// expected gross amount unless the order was cancelled.
	if newStatus != domain.OrderStatusCancelled && totals.TotalRegistered != order.TotalGrossAmountCents() {
		r.logger.Error("registered total does not match order gross amount",
			zap.String("order_key", order.OrderKey),
			zap.Int64("total_gross_cents", order.TotalGrossAmountCents()),
			zap.Int64("total_registered", totals.TotalRegistered),
		)
		observability.RecordAnomaly("registered_total_mismatch")
	}

	return newStatus
}

// evaluateAuthorized runs the paid/refund/chargeback sub-decision for one
// AUTHORIZED line. The boolean is false when the line yields no decision
// yet (e.g. not sufficiently captured).
func (r *OrderStatusResolver) evaluateAuthorized(order *domain.Order, totals domain.ApproximateTotals, entries []domain.PaymentReport, entry domain.PaymentReport) (domain.OrderStatus, bool) {
	// Currency conversions can make payments land a few cents short of the
	// registered total. A configured per-currency margin keeps such orders
	// from being stuck just below PAID.
	var margin int64
	if order.Currency == totals.ExchangedTo {
		converted := false
		for _, p := range entries {
			if p.Authorization.Amount.Currency != order.Currency {
				converted = true
				break
			}
		}
		if converted {
			margin = r.cfg.PaymentSuccessMargins[totals.ExchangedTo]
			// Never let the margin swallow the whole registered amount,
			// or a zero target would count as paid.
			if margin >= totals.TotalRegistered {
				margin = 0
			}
		}
	}

	// The safe route per the gateway's integration manual: only the
	// captured total proves the money actually arrived.
	if totals.TotalCaptured < totals.TotalRegistered-margin {
		return "", false
	}

	paymentSum := totals.TotalCaptured - totals.TotalChargedback - totals.TotalRefunded

	switch {
	case paymentSum >= totals.TotalRegistered-margin:
		r.logger.Info("captured total covers registered total",
			zap.String("order_key", order.OrderKey),
			zap.Int64("total_registered", totals.TotalRegistered),
			zap.Int64("total_captured", totals.TotalCaptured),
			zap.Int64("margin", margin),
		)
		return domain.OrderStatusPaid, true

	case paymentSum == 0:
		var status domain.OrderStatus
		if totals.TotalCaptured == totals.TotalChargedback {
			if len(entry.Authorization.Chargebacks) > 0 {
				for _, cb := range entry.Authorization.Chargebacks {
					reason := cb.Reason
					if reason == "" {
						reason = "(reason not provided)"
					}
					r.logger.Info("payment charged back",
						zap.Int64("payment_id", entry.ID),
						zap.String("currency", cb.Amount.Currency),
						zap.Int64("amount", cb.Amount.Value),
						zap.String("reason", reason),
					)
				}
			} else {
				r.logger.Info("payment cluster charged back",
					zap.String("order_key", order.OrderKey))
			}
			status = domain.OrderStatusChargedBack
		}
		// The refund comparison runs last and wins on a tie with the
		// chargeback comparison; keep that order.
		if totals.TotalCaptured == totals.TotalRefunded {
			r.logger.Info("payment cluster refunded",
				zap.String("order_key", order.OrderKey))
			status = domain.OrderStatusRefunded
		}
		if status == "" {
			return "", false
		}
		return status, true

	case paymentSum > 0:
		// Captured in full, then partially refunded or charged back.
		r.logger.Info("payment cluster partially refunded",
			zap.String("order_key", order.OrderKey),
			zap.Int64("total_registered", totals.TotalRegistered),
			zap.Int64("total_captured", totals.TotalCaptured),
			zap.Int64("total_refunded", totals.TotalRefunded),
			zap.Int64("total_chargedback", totals.TotalChargedback),
			zap.Int64("margin", margin),
		)
		return domain.OrderStatusPaidRefunded, true

	default:
		// Refund plus chargeback exceed what was captured.
		r.logger.Error("refund and chargeback total exceeds captured total, please investigate",
			zap.String("order_key", order.OrderKey),
			zap.Int64("payment_sum", paymentSum),
			zap.Int64("total_captured", totals.TotalCaptured),
			zap.Int64("total_refunded", totals.TotalRefunded),
			zap.Int64("total_chargedback", totals.TotalChargedback),
		)
		observability.RecordAnomaly("negative_payment_sum")
		return domain.OrderStatusUnknown, true
	}
}

// ApplyStatus assigns the computed status to the order. Unrecognized values
// coerce to UNKNOWN with a warning. Returns true when the status actually
// changed.
func (r *OrderStatusResolver) ApplyStatus(order *domain.Order, newStatus domain.OrderStatus) bool {
	old := order.Status
	if old == newStatus {
		return false
	}

	if !newStatus.IsRecognized() {
		r.logger.Warn("unrecognized order status, coercing to UNKNOWN",
			zap.String("order_key", order.OrderKey),
			zap.String("old_status", string(old)),
			zap.String("computed_status", string(newStatus)),
		)
		newStatus = domain.OrderStatusUnknown
		if old == newStatus {
			return false
		}
	} else {
		r.logger.Info("order status changed",
			zap.String("order_key", order.OrderKey),
			zap.String("old_status", string(old)),
			zap.String("new_status", string(newStatus)),
		)
	}

	order.Status = newStatus
	return true
}
