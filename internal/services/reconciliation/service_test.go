package reconciliation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

type testEnv struct {
	service *Service
	orders  *fakeOrderRepo
	lines   *fakeLineRepo
	gateway *fakeGateway
}

func newTestEnv() *testEnv {
	orders := newFakeOrderRepo()
	lines := newFakeLineRepo()
	gateway := &fakeGateway{merchant: "acme"}
	service := NewService(fakeDB{}, orders, lines, gateway, DefaultConfig(), zap.NewNop())
	return &testEnv{service: service, orders: orders, lines: lines, gateway: gateway}
}

func (e *testEnv) storeOrder(status domain.OrderStatus) *domain.Order {
	order := testOrder(status)
	e.orders.add(order)
	return order
}

func paidReport() *domain.StatusReport {
	return &domain.StatusReport{
		ApproximateTotals: domain.ApproximateTotals{
			TotalRegistered: 100000,
			TotalCaptured:   100000,
		},
		Payments: []domain.PaymentReport{capturedEntry(10)},
	}
}

func TestReconcile_PaidFlow(t *testing.T) {
	env := newTestEnv()
	env.storeOrder(domain.OrderStatusPending)

	status, events, err := env.service.Reconcile(context.Background(), "KEY-1", paidReport(), "")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPaid, status)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventPaymentAdded, events[0].Kind)
	assert.Equal(t, domain.EventOrderStatusChanged, events[1].Kind)
	assert.Equal(t, domain.OrderStatusPending, events[1].OldStatus)
	assert.Equal(t, domain.OrderStatusPaid, events[1].NewStatus)

	stored := env.orders.byKey["KEY-1"]
	assert.Equal(t, domain.OrderStatusPaid, stored.Status)
	assert.True(t, stored.TotalCaptured.Equal(decimal.RequireFromString("1000.00")))
}

func TestReconcile_SecondPassIsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.storeOrder(domain.OrderStatusPending)

	_, _, err := env.service.Reconcile(context.Background(), "KEY-1", paidReport(), "")
	require.NoError(t, err)

	inserts, updates := env.lines.inserts, env.lines.updates

	status, events, err := env.service.Reconcile(context.Background(), "KEY-1", paidReport(), "")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPaid, status)
	assert.Empty(t, events)
	assert.Equal(t, inserts, env.lines.inserts)
	assert.Equal(t, updates, env.lines.updates)
}

func TestReconcile_EntryOrderDoesNotMatter(t *testing.T) {
	// The same report with its payment list permuted must produce the same
	// outcome and the same event order.
	run := func(entries []domain.PaymentReport) (domain.OrderStatus, []domain.ChangeEvent) {
		env := newTestEnv()
		env.storeOrder(domain.OrderStatusPending)
		report := paidReport()
		report.Payments = entries

		status, events, err := env.service.Reconcile(context.Background(), "KEY-1", report, "")
		require.NoError(t, err)
		return status, events
	}

	abandoned := domain.PaymentReport{
		ID:            9,
		PaymentMethod: "MASTERCARD",
		Authorization: domain.Authorization{Status: AuthStatusCancelled},
	}

	statusA, eventsA := run([]domain.PaymentReport{abandoned, capturedEntry(10)})
	statusB, eventsB := run([]domain.PaymentReport{capturedEntry(10), abandoned})

	assert.Equal(t, statusA, statusB)
	assert.Equal(t, eventsA, eventsB)

	require.Len(t, eventsA, 3)
	assert.Equal(t, int64(9), eventsA[0].PaymentID)
	assert.Equal(t, int64(10), eventsA[1].PaymentID)
	assert.Equal(t, domain.EventOrderStatusChanged, eventsA[2].Kind)
}

func TestReconcile_UnknownOrder(t *testing.T) {
	env := newTestEnv()

	_, events, err := env.service.Reconcile(context.Background(), "NO-SUCH-KEY", paidReport(), "")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Empty(t, events)
}

func TestReconcile_EmptyReportExpiresOldOrder(t *testing.T) {
	env := newTestEnv()
	order := env.storeOrder(domain.OrderStatusNew)
	order.Created = time.Now().Add(-22 * 24 * time.Hour)
	env.orders.add(order)

	report := &domain.StatusReport{
		ApproximateTotals: domain.ApproximateTotals{TotalRegistered: 100000},
	}

	status, events, err := env.service.Reconcile(context.Background(), "KEY-1", report, "")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusExpired, status)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderStatusChanged, events[0].Kind)
}

func TestUpdateOrder(t *testing.T) {
	env := newTestEnv()
	env.storeOrder(domain.OrderStatusPending)
	env.gateway.report = paidReport()

	status, events, err := env.service.UpdateOrder(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPaid, status)
	assert.Len(t, events, 2)
}

func TestUpdateOrder_ForeignMerchant(t *testing.T) {
	env := newTestEnv()
	order := env.storeOrder(domain.OrderStatusPending)
	order.MerchantName = "other-shop"
	env.orders.add(order)
	env.gateway.report = paidReport()

	_, _, err := env.service.UpdateOrder(context.Background(), "order-1")

	var merchantErr *domain.InvalidMerchantError
	require.ErrorAs(t, err, &merchantErr)
	assert.Equal(t, "other-shop", merchantErr.OrderMerchant)
	assert.Equal(t, "acme", merchantErr.ClientMerchant)
}

func TestUpdateOrder_GatewayFailureLeavesOrderUntouched(t *testing.T) {
	env := newTestEnv()
	env.storeOrder(domain.OrderStatusPending)
	env.gateway.statusErr = &domain.GatewayError{Op: "status", Message: "boom"}

	_, _, err := env.service.UpdateOrder(context.Background(), "order-1")

	var gatewayErr *domain.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, domain.OrderStatusPending, env.orders.byKey["KEY-1"].Status)
	assert.Equal(t, 0, env.orders.updates)
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv()
	env.storeOrder(domain.OrderStatusNew)
	env.gateway.report = &domain.StatusReport{
		ApproximateTotals: domain.ApproximateTotals{TotalRegistered: 100000},
	}

	status, events, err := env.service.CancelOrder(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"KEY-1"}, env.gateway.cancelled)
	assert.Equal(t, domain.OrderStatusCancelled, status)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderStatusChanged, events[0].Kind)
}

func TestCreatePayment(t *testing.T) {
	env := newTestEnv()
	env.gateway.createResult = &ports.CreateResult{OrderKey: "KEY-9"}

	key, err := env.service.CreatePayment(context.Background(), ports.CreateOrderArgs{
		MerchantOrderID:  "order-9",
		TotalGrossAmount: decimal.RequireFromString("49.95"),
		Currency:         "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "KEY-9", key)

	stored := env.orders.byKey["KEY-9"]
	require.NotNil(t, stored)
	assert.Equal(t, "acme", stored.MerchantName)
	assert.Equal(t, domain.OrderStatusNew, stored.Status)
	assert.True(t, stored.TotalGrossAmount.Equal(decimal.RequireFromString("49.95")))
}

func TestCreatePayment_GatewayFailure(t *testing.T) {
	env := newTestEnv()
	env.gateway.createErr = &domain.GatewayError{Op: "create", Message: "rejected"}

	_, err := env.service.CreatePayment(context.Background(), ports.CreateOrderArgs{MerchantOrderID: "order-9"})
	require.Error(t, err)
	assert.Equal(t, 0, env.orders.creates)
}

func TestStartPayment(t *testing.T) {
	env := newTestEnv()
	env.storeOrder(domain.OrderStatusNew)
	env.gateway.startResult = &ports.StartResult{PaymentID: 77}

	paymentID, err := env.service.StartPayment(context.Background(), "order-1", "IDEAL")
	require.NoError(t, err)

	assert.Equal(t, int64(77), paymentID)
	assert.Equal(t, domain.OrderStatusInProgress, env.orders.byKey["KEY-1"].Status)
}

func TestStartPayment_UnknownOrder(t *testing.T) {
	env := newTestEnv()
	env.gateway.startResult = &ports.StartResult{PaymentID: 77}

	_, err := env.service.StartPayment(context.Background(), "missing", "IDEAL")
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
}
