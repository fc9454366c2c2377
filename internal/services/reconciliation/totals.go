package reconciliation

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

// TotalsAccountant turns the report's integer minor-unit amounts into exact
// decimals. The only arithmetic allowed is integer-cents division by 100;
// amounts must never drift through rounding.
type TotalsAccountant struct {
	logger *zap.Logger
}

// NewTotalsAccountant creates a new totals accountant.
func NewTotalsAccountant(logger *zap.Logger) *TotalsAccountant {
	return &TotalsAccountant{logger: logger}
}

// minorUnits converts integer minor units to an exact two-decimal amount.
func minorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

// ApplyTotals overwrites the order's totals snapshot wholesale from the
// report's approximate totals block.
func (a *TotalsAccountant) ApplyTotals(order *domain.Order, totals domain.ApproximateTotals) {
	order.TotalRegistered = minorUnits(totals.TotalRegistered)
	order.TotalShopperPending = minorUnits(totals.TotalShopperPending)
	order.TotalAcquirerPending = minorUnits(totals.TotalAcquirerPending)
	order.TotalAcquirerApproved = minorUnits(totals.TotalAcquirerApproved)
	order.TotalCaptured = minorUnits(totals.TotalCaptured)
	order.TotalRefunded = minorUnits(totals.TotalRefunded)
	order.TotalChargedBack = minorUnits(totals.TotalChargedback)
}

// SubTransactionSum sums the capture, refund or chargeback items of one
// payment line. Only items whose status equals successStatus count; the
// rest are logged and skipped.
func (a *TotalsAccountant) SubTransactionSum(paymentID int64, kind string, items []domain.SubTransaction, successStatus string) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		if item.Status != successStatus {
			a.logger.Debug("skipping item without success status",
				zap.Int64("payment_id", paymentID),
				zap.String("kind", kind),
				zap.String("status", item.Status),
			)
			continue
		}
		sum = sum.Add(minorUnits(item.Amount.Value))
	}
	return sum
}
