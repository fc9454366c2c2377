package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

// LineResult pairs a persisted payment line with the report entry it was
// reconciled from, for use by the status resolver.
type LineResult struct {
	Line   *domain.PaymentLine
	Report domain.PaymentReport
}

// PaymentLineReconciler upserts one payment line per report entry. It
// detects create-vs-update, field-level and status-level changes, and
// recovers create/create races against concurrent passes.
type PaymentLineReconciler struct {
	lines      ports.PaymentLineRepository
	accountant *TotalsAccountant
	cfg        Config
	logger     *zap.Logger
}

// NewPaymentLineReconciler creates a new payment line reconciler.
func NewPaymentLineReconciler(lines ports.PaymentLineRepository, accountant *TotalsAccountant, cfg Config, logger *zap.Logger) *PaymentLineReconciler {
	return &PaymentLineReconciler{
		lines:      lines,
		accountant: accountant,
		cfg:        cfg,
		logger:     logger,
	}
}

// ReconcileLine folds one report entry into its payment line under a row
// lock. It emits at most one event: payment-added XOR payment-updated, and
// only when a change was persisted.
func (r *PaymentLineReconciler) ReconcileLine(ctx context.Context, tx ports.DBTX, order *domain.Order, entry domain.PaymentReport) (*LineResult, []domain.ChangeEvent, error) {
	auth := entry.Authorization

	r.logger.Debug("reconciling payment line",
		zap.Int64("payment_id", entry.ID),
		zap.String("payment_method", entry.PaymentMethod),
		zap.String("auth_status", auth.Status),
	)

	added := false
	updated := false

	line, err := r.lines.GetByPaymentIDForUpdate(ctx, tx, entry.ID)
	switch {
	case errors.Is(err, domain.ErrPaymentLineNotFound):
		line = &domain.PaymentLine{
			OrderID:       order.ID,
			PaymentID:     entry.ID,
			PaymentMethod: entry.PaymentMethod,
		}
		added = true
	case err != nil:
		return nil, nil, fmt.Errorf("load payment line %d: %w", entry.ID, err)
	}

	if line.PaymentMethod != entry.PaymentMethod {
		// A method change is a gateway-side anomaly, not a hard error.
		// Store what the gateway reports.
		r.logger.Warn("payment method from gateway does not match stored payment method",
			zap.Int64("payment_id", line.PaymentID),
			zap.String("stored", line.PaymentMethod),
			zap.String("reported", entry.PaymentMethod),
		)
		line.PaymentMethod = entry.PaymentMethod
		updated = true
	}

	// Only an AUTHORIZED line has an allocated amount. The debited value
	// arrives later, when captures succeed.
	amountAllocated := decimal.Zero
	if auth.Status == AuthStatusAuthorized {
		amountAllocated = minorUnits(auth.Amount.Value)
	}

	debited := r.accountant.SubTransactionSum(entry.ID, "capture", auth.Captures, captureSuccessStatus)
	refunded := r.accountant.SubTransactionSum(entry.ID, "refund", auth.Refunds, captureSuccessStatus)
	chargeback := r.accountant.SubTransactionSum(entry.ID, "chargeback", auth.Chargebacks, chargebackSuccessStatus)

	if line.ConfidenceLevel != auth.ConfidenceLevel ||
		!line.AmountAllocated.Equal(amountAllocated) ||
		!line.AmountDebited.Equal(debited) ||
		!line.AmountRefunded.Equal(refunded) ||
		!line.AmountChargeback.Equal(chargeback) {
		updated = true
	}
	line.ConfidenceLevel = auth.ConfidenceLevel
	line.AmountAllocated = amountAllocated
	line.AmountDebited = debited
	line.AmountRefunded = refunded
	line.AmountChargeback = chargeback

	if line.Status != auth.Status {
		r.logger.Info("payment authorization status changed",
			zap.Int64("payment_id", line.PaymentID),
			zap.String("old_status", line.Status),
			zap.String("new_status", auth.Status),
		)
		if !r.cfg.DocumentedStatuses[auth.Status] && !r.cfg.SeenUndocumentedStatuses[auth.Status] {
			// Unknown statuses are tolerated, not rejected.
			r.logger.Warn("received unknown payment status from gateway",
				zap.Int64("payment_id", line.PaymentID),
				zap.String("status", auth.Status),
			)
		}
		line.Status = auth.Status
		updated = true
	}

	var events []domain.ChangeEvent
	if added || updated {
		if added {
			err := r.lines.Insert(ctx, tx, line)
			if errors.Is(err, domain.ErrDuplicatePaymentLine) {
				// A concurrent pass created the row first. Retry as an
				// update against the now-existing row so at most one
				// payment-added event fires per payment id.
				r.logger.Warn("concurrent pass created payment line first, retrying as update",
					zap.Int64("payment_id", entry.ID),
				)
				existing, lerr := r.lines.GetByPaymentIDForUpdate(ctx, tx, entry.ID)
				if lerr != nil {
					return nil, nil, fmt.Errorf("reload payment line %d after conflict: %w", entry.ID, lerr)
				}
				line.ID = existing.ID
				line.OrderID = existing.OrderID
				if uerr := r.lines.Update(ctx, tx, line); uerr != nil {
					return nil, nil, fmt.Errorf("update payment line %d after conflict: %w", entry.ID, uerr)
				}
				added = false
			} else if err != nil {
				return nil, nil, fmt.Errorf("insert payment line %d: %w", entry.ID, err)
			}
		} else {
			if err := r.lines.Update(ctx, tx, line); err != nil {
				return nil, nil, fmt.Errorf("update payment line %d: %w", entry.ID, err)
			}
		}

		kind := domain.EventPaymentUpdated
		if added {
			kind = domain.EventPaymentAdded
		}
		events = append(events, domain.ChangeEvent{
			Kind:      kind,
			OrderKey:  order.OrderKey,
			PaymentID: line.PaymentID,
		})
	}

	return &LineResult{Line: line, Report: entry}, events, nil
}
