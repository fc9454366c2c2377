package statusnotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

type stubService struct {
	status  domain.OrderStatus
	events  []domain.ChangeEvent
	err     error
	updated []string
}

func (s *stubService) UpdateOrder(ctx context.Context, merchantOrderID string) (domain.OrderStatus, []domain.ChangeEvent, error) {
	s.updated = append(s.updated, merchantOrderID)
	return s.status, s.events, s.err
}

func serve(t *testing.T, service *stubService, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(service, zap.NewNop()).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleStatusChanged(t *testing.T) {
	service := &stubService{
		status: domain.OrderStatusPaid,
		events: []domain.ChangeEvent{
			{Kind: domain.EventPaymentAdded, OrderKey: "KEY-1", PaymentID: 10},
			{Kind: domain.EventOrderStatusChanged, OrderKey: "KEY-1", OldStatus: domain.OrderStatusPending, NewStatus: domain.OrderStatusPaid},
		},
	}

	rec := serve(t, service, "/docdata/notify?order_id=order-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	require.Equal(t, []string{"order-1"}, service.updated)
}

func TestHandleStatusChanged_MissingOrderID(t *testing.T) {
	service := &stubService{}

	rec := serve(t, service, "/docdata/notify")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, service.updated)
}

func TestHandleStatusChanged_UnknownOrder(t *testing.T) {
	service := &stubService{err: domain.ErrOrderNotFound}

	rec := serve(t, service, "/docdata/notify?order_id=missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatusChanged_GatewayDown(t *testing.T) {
	service := &stubService{err: &domain.GatewayError{Op: "status", Message: "timeout"}}

	rec := serve(t, service, "/docdata/notify?order_id=order-1")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleStatusChanged_ForeignMerchant(t *testing.T) {
	service := &stubService{err: &domain.InvalidMerchantError{
		MerchantOrderID: "order-1",
		OrderMerchant:   "other-shop",
		ClientMerchant:  "acme",
	}}

	rec := serve(t, service, "/docdata/notify?order_id=order-1")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleReturn(t *testing.T) {
	service := &stubService{status: domain.OrderStatusPaid}

	rec := serve(t, service, "/docdata/return?order_id=order-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PAID", rec.Body.String())
}
