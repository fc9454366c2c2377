package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
	"github.com/edoburu/docdata-reconciler/pkg/observability"
)

// Service drives reconciliation passes and the surrounding gateway call
// scaffolding (create/start/cancel/update). One pass runs inside a single
// database transaction holding the order's row lock; events are returned
// to the caller only after that transaction committed.
type Service struct {
	db      ports.DBPort
	orders  ports.OrderRepository
	lines   ports.PaymentLineRepository
	gateway ports.GatewayClient

	accountant *TotalsAccountant
	reconciler *PaymentLineReconciler
	resolver   *OrderStatusResolver

	cfg    Config
	logger *zap.Logger
}

// NewService creates a new reconciliation service.
func NewService(
	db ports.DBPort,
	orders ports.OrderRepository,
	lines ports.PaymentLineRepository,
	gateway ports.GatewayClient,
	cfg Config,
	logger *zap.Logger,
) *Service {
	accountant := NewTotalsAccountant(logger)
	return &Service{
		db:         db,
		orders:     orders,
		lines:      lines,
		gateway:    gateway,
		accountant: accountant,
		reconciler: NewPaymentLineReconciler(lines, accountant, cfg, logger),
		resolver:   NewOrderStatusResolver(cfg, logger),
		cfg:        cfg,
		logger:     logger,
	}
}

// Reconcile folds one status report into the order identified by orderKey.
// intended biases the no-payment heuristics towards an explicitly requested
// status (the cancel flow passes CANCELLED); pass "" otherwise.
//
// Repeated invocation with the same report is idempotent: the second pass
// produces no events and no payment line writes. Concurrent passes on the
// same order serialize on the order row lock.
func (s *Service) Reconcile(ctx context.Context, orderKey string, report *domain.StatusReport, intended domain.OrderStatus) (domain.OrderStatus, []domain.ChangeEvent, error) {
	passID := uuid.NewString()
	start := time.Now()

	var (
		events      []domain.ChangeEvent
		finalStatus domain.OrderStatus
		merchant    string
	)

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		order, err := s.orders.GetByKeyForUpdate(ctx, tx, orderKey)
		if err != nil {
			return fmt.Errorf("load order %s: %w", orderKey, err)
		}
		merchant = order.MerchantName
		oldStatus := order.Status

		s.accountant.ApplyTotals(order, report.ApproximateTotals)

		var newStatus domain.OrderStatus
		entries := report.SortedPayments()
		if len(entries) == 0 {
			newStatus = s.resolver.ResolveFromTotals(order, report.ApproximateTotals, intended)
		} else {
			s.logger.Info("reconciling payment lines",
				zap.String("pass_id", passID),
				zap.String("order_key", order.OrderKey),
				zap.Int("payments", len(entries)),
				zap.Int64("total_registered", report.ApproximateTotals.TotalRegistered),
				zap.Int64("total_captured", report.ApproximateTotals.TotalCaptured),
				zap.Int64("total_chargedback", report.ApproximateTotals.TotalChargedback),
				zap.Int64("total_refunded", report.ApproximateTotals.TotalRefunded),
			)
			for _, entry := range entries {
				_, lineEvents, err := s.reconciler.ReconcileLine(ctx, tx, order, entry)
				if err != nil {
					return err
				}
				events = append(events, lineEvents...)
			}
			newStatus = s.resolver.ResolveFromLines(order, report.ApproximateTotals, entries)
		}

		changed := s.resolver.ApplyStatus(order, newStatus)

		if err := s.orders.Update(ctx, tx, order); err != nil {
			return fmt.Errorf("persist order %s: %w", orderKey, err)
		}

		// The order-status-changed event always comes after the per-line
		// events of the pass.
		if changed {
			events = append(events, domain.ChangeEvent{
				Kind:      domain.EventOrderStatusChanged,
				OrderKey:  order.OrderKey,
				OldStatus: oldStatus,
				NewStatus: order.Status,
			})
		}
		finalStatus = order.Status
		return nil
	})
	if err != nil {
		// Nothing committed: drop the buffered events.
		observability.RecordReconciliationPass(merchant, "error", time.Since(start))
		return "", nil, err
	}

	for _, ev := range events {
		observability.RecordChangeEvent(ev)
	}
	observability.RecordReconciliationPass(merchant, "ok", time.Since(start))

	return finalStatus, events, nil
}

// CreatePayment registers a new payment cluster with the gateway and stores
// the order for later status checking. Returns the gateway order key.
func (s *Service) CreatePayment(ctx context.Context, args ports.CreateOrderArgs) (string, error) {
	res, err := s.gateway.Create(ctx, args)
	if err != nil {
		return "", err
	}

	order := &domain.Order{
		MerchantName:     s.gateway.MerchantName(),
		MerchantOrderID:  args.MerchantOrderID,
		OrderKey:         res.OrderKey,
		Currency:         args.Currency,
		TotalGrossAmount: args.TotalGrossAmount,
		Status:           domain.OrderStatusNew,
		Language:         args.Language,
		Country:          args.Country,
		Created:          time.Now(),
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.orders.Create(ctx, tx, order)
	})
	if err != nil {
		return "", fmt.Errorf("store order %s: %w", args.MerchantOrderID, err)
	}

	s.logger.Info("payment cluster created",
		zap.String("merchant_order_id", args.MerchantOrderID),
		zap.String("order_key", res.OrderKey),
		zap.String("currency", args.Currency),
	)
	return res.OrderKey, nil
}

// StartPayment starts a payment attempt for the order and moves it to
// IN_PROGRESS. The payment line itself is not written here; the gateway's
// status notification follows up with the authoritative report.
func (s *Service) StartPayment(ctx context.Context, merchantOrderID, paymentMethod string) (int64, error) {
	order, err := s.loadOrder(ctx, merchantOrderID)
	if err != nil {
		return 0, err
	}

	res, err := s.gateway.Start(ctx, order.OrderKey, paymentMethod)
	if err != nil {
		return 0, err
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := s.orders.GetByKeyForUpdate(ctx, tx, order.OrderKey)
		if err != nil {
			return err
		}
		s.resolver.ApplyStatus(locked, domain.OrderStatusInProgress)
		return s.orders.Update(ctx, tx, locked)
	})
	if err != nil {
		return 0, fmt.Errorf("mark order %s in progress: %w", merchantOrderID, err)
	}

	return res.PaymentID, nil
}

// UpdateOrder fetches a fresh status report from the gateway and runs one
// reconciliation pass. It is the entry point for both the gateway's status
// notification and the shopper return flow, which may race; the pass lock
// serializes them.
func (s *Service) UpdateOrder(ctx context.Context, merchantOrderID string) (domain.OrderStatus, []domain.ChangeEvent, error) {
	order, err := s.loadOrder(ctx, merchantOrderID)
	if err != nil {
		return "", nil, err
	}

	if s.gateway.MerchantName() != order.MerchantName {
		return "", nil, &domain.InvalidMerchantError{
			MerchantOrderID: order.MerchantOrderID,
			OrderMerchant:   order.MerchantName,
			ClientMerchant:  s.gateway.MerchantName(),
		}
	}

	report, err := s.gateway.Status(ctx, order.OrderKey)
	if err != nil {
		return "", nil, err
	}

	return s.Reconcile(ctx, order.OrderKey, report, "")
}

// CancelOrder cancels the order at the gateway, then reconciles against the
// most recent report instead of waiting for the notification, biasing the
// heuristics towards CANCELLED.
func (s *Service) CancelOrder(ctx context.Context, merchantOrderID string) (domain.OrderStatus, []domain.ChangeEvent, error) {
	order, err := s.loadOrder(ctx, merchantOrderID)
	if err != nil {
		return "", nil, err
	}

	if err := s.gateway.Cancel(ctx, order.OrderKey); err != nil {
		return "", nil, err
	}

	report, err := s.gateway.Status(ctx, order.OrderKey)
	if err != nil {
		return "", nil, err
	}

	return s.Reconcile(ctx, order.OrderKey, report, domain.OrderStatusCancelled)
}

// loadOrder reads an order by merchant order number without locking. The
// gateway calls that follow must not run under the pass lock.
func (s *Service) loadOrder(ctx context.Context, merchantOrderID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = s.orders.GetByMerchantOrderID(ctx, tx, merchantOrderID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", merchantOrderID, err)
	}
	return order, nil
}
