package reconciliation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

func newTestReconciler(lines *fakeLineRepo) *PaymentLineReconciler {
	logger := zap.NewNop()
	return NewPaymentLineReconciler(lines, NewTotalsAccountant(logger), DefaultConfig(), logger)
}

func capturedEntry(id int64) domain.PaymentReport {
	return domain.PaymentReport{
		ID:            id,
		PaymentMethod: "IDEAL",
		Authorization: domain.Authorization{
			Status:          AuthStatusAuthorized,
			Amount:          domain.Amount{Value: 100000, Currency: "EUR"},
			ConfidenceLevel: "ACQUIRER_APPROVED",
			Captures: []domain.SubTransaction{
				{Status: "CAPTURED", Amount: domain.Amount{Value: 100000, Currency: "EUR"}},
				{Status: "FAILED", Amount: domain.Amount{Value: 100000, Currency: "EUR"}},
			},
		},
	}
}

func TestReconcileLine_CreatesLine(t *testing.T) {
	lines := newFakeLineRepo()
	r := newTestReconciler(lines)
	order := testOrder(domain.OrderStatusPending)

	res, events, err := r.ReconcileLine(context.Background(), nil, order, capturedEntry(10))
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPaymentAdded, events[0].Kind)
	assert.Equal(t, int64(10), events[0].PaymentID)
	assert.Equal(t, order.OrderKey, events[0].OrderKey)

	assert.Equal(t, 1, lines.inserts)
	assert.Equal(t, 0, lines.updates)

	line := res.Line
	assert.Equal(t, order.ID, line.OrderID)
	assert.Equal(t, AuthStatusAuthorized, line.Status)
	assert.True(t, line.AmountAllocated.Equal(decimal.RequireFromString("1000.00")))
	// The failed capture item must not count.
	assert.True(t, line.AmountDebited.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, line.AmountRefunded.IsZero())
	assert.True(t, line.AmountChargeback.IsZero())
}

func TestReconcileLine_ReplayIsNoOp(t *testing.T) {
	lines := newFakeLineRepo()
	r := newTestReconciler(lines)
	order := testOrder(domain.OrderStatusPending)
	entry := capturedEntry(10)

	_, _, err := r.ReconcileLine(context.Background(), nil, order, entry)
	require.NoError(t, err)

	_, events, err := r.ReconcileLine(context.Background(), nil, order, entry)
	require.NoError(t, err)

	assert.Empty(t, events)
	assert.Equal(t, 1, lines.inserts)
	assert.Equal(t, 0, lines.updates)
}

func TestReconcileLine_StatusChangeUpdates(t *testing.T) {
	lines := newFakeLineRepo()
	r := newTestReconciler(lines)
	order := testOrder(domain.OrderStatusPending)

	entry := capturedEntry(10)
	entry.Authorization.Status = AuthStatusAuthorizationRequested
	entry.Authorization.Captures = nil
	_, _, err := r.ReconcileLine(context.Background(), nil, order, entry)
	require.NoError(t, err)

	_, events, err := r.ReconcileLine(context.Background(), nil, order, capturedEntry(10))
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPaymentUpdated, events[0].Kind)
	assert.Equal(t, 1, lines.updates)
	assert.Equal(t, AuthStatusAuthorized, lines.byPaymentID[10].Status)
}

func TestReconcileLine_PaymentMethodChangeIsTolerated(t *testing.T) {
	lines := newFakeLineRepo()
	r := newTestReconciler(lines)
	order := testOrder(domain.OrderStatusPending)

	_, _, err := r.ReconcileLine(context.Background(), nil, order, capturedEntry(10))
	require.NoError(t, err)

	entry := capturedEntry(10)
	entry.PaymentMethod = "MASTERCARD"
	_, events, err := r.ReconcileLine(context.Background(), nil, order, entry)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPaymentUpdated, events[0].Kind)
	assert.Equal(t, "MASTERCARD", lines.byPaymentID[10].PaymentMethod)
}

func TestReconcileLine_UnknownStatusIsStored(t *testing.T) {
	lines := newFakeLineRepo()
	r := newTestReconciler(lines)
	order := testOrder(domain.OrderStatusPending)

	entry := capturedEntry(10)
	entry.Authorization.Status = "SOMETHING_NEW"
	entry.Authorization.Captures = nil

	_, events, err := r.ReconcileLine(context.Background(), nil, order, entry)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "SOMETHING_NEW", lines.byPaymentID[10].Status)
	// Not AUTHORIZED, so no allocated amount.
	assert.True(t, lines.byPaymentID[10].AmountAllocated.IsZero())
}

func TestReconcileLine_InsertRaceBecomesUpdate(t *testing.T) {
	lines := newFakeLineRepo()
	r := newTestReconciler(lines)
	order := testOrder(domain.OrderStatusPending)

	// A concurrent pass slips in an older snapshot of the same payment
	// between our lookup and our insert.
	lines.raceLine = &domain.PaymentLine{
		OrderID:       order.ID,
		PaymentID:     10,
		PaymentMethod: "IDEAL",
		Status:        AuthStatusStarted,
	}

	_, events, err := r.ReconcileLine(context.Background(), nil, order, capturedEntry(10))
	require.NoError(t, err)

	// The losing pass reclassifies: no second payment-added event.
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPaymentUpdated, events[0].Kind)
	assert.Equal(t, 0, lines.inserts)
	assert.Equal(t, 1, lines.updates)
	assert.Equal(t, AuthStatusAuthorized, lines.byPaymentID[10].Status)
}
