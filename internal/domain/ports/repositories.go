package ports

import (
	"context"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

// OrderRepository persists the order aggregate. All mutations during a
// reconciliation pass happen behind GetByKeyForUpdate's row lock.
type OrderRepository interface {
	// Create stores a newly registered order.
	Create(ctx context.Context, tx DBTX, order *domain.Order) error

	// GetByKeyForUpdate loads an order by its gateway order key and takes
	// an exclusive row lock for the duration of the transaction.
	// Returns domain.ErrOrderNotFound if no such order exists.
	GetByKeyForUpdate(ctx context.Context, tx DBTX, orderKey string) (*domain.Order, error)

	// GetByMerchantOrderID loads an order by the merchant's order number,
	// without locking. Returns domain.ErrOrderNotFound if absent.
	GetByMerchantOrderID(ctx context.Context, tx DBTX, merchantOrderID string) (*domain.Order, error)

	// Update writes the order's status and totals snapshot.
	Update(ctx context.Context, tx DBTX, order *domain.Order) error
}

// PaymentLineRepository persists payment lines, one row per gateway
// payment id.
type PaymentLineRepository interface {
	// GetByPaymentIDForUpdate loads a line by gateway payment id and takes
	// an exclusive row lock. Returns domain.ErrPaymentLineNotFound if absent.
	GetByPaymentIDForUpdate(ctx context.Context, tx DBTX, paymentID int64) (*domain.PaymentLine, error)

	// Insert creates a new line. Returns domain.ErrDuplicatePaymentLine when
	// a concurrent pass created a row for the same payment id first; the
	// caller is expected to fall back to an update.
	Insert(ctx context.Context, tx DBTX, line *domain.PaymentLine) error

	// Update writes an existing line.
	Update(ctx context.Context, tx DBTX, line *domain.PaymentLine) error
}
