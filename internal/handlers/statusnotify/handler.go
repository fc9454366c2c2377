package statusnotify

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

// ReconciliationService is what the handler needs from the reconciliation
// layer.
type ReconciliationService interface {
	UpdateOrder(ctx context.Context, merchantOrderID string) (domain.OrderStatus, []domain.ChangeEvent, error)
}

// Handler serves the gateway's server-to-server status notification and the
// shopper return URL. Both endpoints trigger the same reconciliation pass;
// the gateway retries notifications, so the handler only confirms with 200
// once the pass committed.
type Handler struct {
	service ReconciliationService
	logger  *zap.Logger
}

// NewHandler creates a status notification handler.
func NewHandler(service ReconciliationService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register wires the handler's routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /docdata/notify", h.HandleStatusChanged)
	mux.HandleFunc("GET /docdata/return", h.HandleReturn)
}

// HandleStatusChanged handles the gateway's "status changed" callback:
// GET /docdata/notify?order_id=<merchant order number>.
func (h *Handler) HandleStatusChanged(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		http.Error(w, "missing order_id parameter", http.StatusBadRequest)
		return
	}

	h.logger.Info("received status notification", zap.String("order_id", orderID))

	status, events, err := h.service.UpdateOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, orderID, err)
		return
	}

	for _, ev := range events {
		h.logger.Info("dispatched change event",
			zap.String("kind", string(ev.Kind)),
			zap.String("order_key", ev.OrderKey),
			zap.Int64("payment_id", ev.PaymentID),
			zap.String("old_status", string(ev.OldStatus)),
			zap.String("new_status", string(ev.NewStatus)),
		)
	}

	h.logger.Info("status notification processed",
		zap.String("order_id", orderID),
		zap.String("status", string(status)),
		zap.Int("events", len(events)),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleReturn handles the shopper coming back from the gateway's payment
// pages: GET /docdata/return?order_id=<merchant order number>. It runs the
// same pass as the notification; whichever arrives first wins, the other
// becomes a no-op.
func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		http.Error(w, "missing order_id parameter", http.StatusBadRequest)
		return
	}

	h.logger.Info("shopper returned from gateway", zap.String("order_id", orderID))

	status, _, err := h.service.UpdateOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, orderID, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(string(status)))
}

func (h *Handler) writeError(w http.ResponseWriter, orderID string, err error) {
	var gatewayErr *domain.GatewayError
	var merchantErr *domain.InvalidMerchantError

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		h.logger.Warn("notification for unknown order", zap.String("order_id", orderID))
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.As(err, &merchantErr):
		h.logger.Error("notification for foreign merchant order",
			zap.String("order_id", orderID),
			zap.String("order_merchant", merchantErr.OrderMerchant),
			zap.String("client_merchant", merchantErr.ClientMerchant),
		)
		http.Error(w, "order belongs to another merchant", http.StatusForbidden)
	case errors.As(err, &gatewayErr):
		h.logger.Error("gateway call failed",
			zap.String("order_id", orderID),
			zap.String("op", gatewayErr.Op),
			zap.Error(err),
		)
		http.Error(w, "gateway unavailable", http.StatusBadGateway)
	default:
		h.logger.Error("reconciliation failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
