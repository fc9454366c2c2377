package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/edoburu/docdata-reconciler/internal/domain"
	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

const orderColumns = `id, merchant_name, merchant_order_id, order_key, currency,
	total_gross_amount, status,
	total_registered, total_shopper_pending, total_acquirer_pending,
	total_acquirer_approved, total_captured, total_refunded, total_charged_back,
	language, country, created_at, updated_at`

// OrderRepository implements ports.OrderRepository on PostgreSQL.
type OrderRepository struct {
	db ports.DBPort
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db ports.DBPort) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) executor(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.db.GetDB()
}

// Create stores a newly registered order.
func (r *OrderRepository) Create(ctx context.Context, tx ports.DBTX, order *domain.Order) error {
	gross, err := decimalToNumeric(order.TotalGrossAmount)
	if err != nil {
		return err
	}

	row := r.executor(tx).QueryRow(ctx, `
		INSERT INTO orders (
			merchant_name, merchant_order_id, order_key, currency,
			total_gross_amount, status, language, country, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		order.MerchantName,
		order.MerchantOrderID,
		order.OrderKey,
		order.Currency,
		gross,
		string(order.Status),
		order.Language,
		order.Country,
		order.Created,
	)
	if err := row.Scan(&order.ID); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetByKeyForUpdate loads an order by gateway order key with an exclusive
// row lock; concurrent reconciliation passes serialize here.
func (r *OrderRepository) GetByKeyForUpdate(ctx context.Context, tx ports.DBTX, orderKey string) (*domain.Order, error) {
	row := r.executor(tx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_key = $1 FOR UPDATE`,
		orderKey,
	)
	return r.scanOrder(row)
}

// GetByMerchantOrderID loads an order by the merchant's order number.
func (r *OrderRepository) GetByMerchantOrderID(ctx context.Context, tx ports.DBTX, merchantOrderID string) (*domain.Order, error) {
	row := r.executor(tx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE merchant_order_id = $1`,
		merchantOrderID,
	)
	return r.scanOrder(row)
}

// Update writes the order's status and totals snapshot wholesale.
func (r *OrderRepository) Update(ctx context.Context, tx ports.DBTX, order *domain.Order) error {
	registered, err := decimalToNumeric(order.TotalRegistered)
	if err != nil {
		return err
	}
	shopperPending, err := decimalToNumeric(order.TotalShopperPending)
	if err != nil {
		return err
	}
	acquirerPending, err := decimalToNumeric(order.TotalAcquirerPending)
	if err != nil {
		return err
	}
	acquirerApproved, err := decimalToNumeric(order.TotalAcquirerApproved)
	if err != nil {
		return err
	}
	captured, err := decimalToNumeric(order.TotalCaptured)
	if err != nil {
		return err
	}
	refunded, err := decimalToNumeric(order.TotalRefunded)
	if err != nil {
		return err
	}
	chargedBack, err := decimalToNumeric(order.TotalChargedBack)
	if err != nil {
		return err
	}

	tag, err := r.executor(tx).Exec(ctx, `
		UPDATE orders SET
			status = $2,
			total_registered = $3,
			total_shopper_pending = $4,
			total_acquirer_pending = $5,
			total_acquirer_approved = $6,
			total_captured = $7,
			total_refunded = $8,
			total_charged_back = $9,
			updated_at = now()
		WHERE id = $1`,
		order.ID,
		string(order.Status),
		registered,
		shopperPending,
		acquirerPending,
		acquirerApproved,
		captured,
		refunded,
		chargedBack,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order domain.Order
		gross, registered, shopperPending, acquirerPending,
		acquirerApproved, captured, refunded, chargedBack pgtype.Numeric
	)

	err := row.Scan(
		&order.ID,
		&order.MerchantName,
		&order.MerchantOrderID,
		&order.OrderKey,
		&order.Currency,
		&gross,
		&order.Status,
		&registered,
		&shopperPending,
		&acquirerPending,
		&acquirerApproved,
		&captured,
		&refunded,
		&chargedBack,
		&order.Language,
		&order.Country,
		&order.Created,
		&order.Updated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if order.TotalGrossAmount, err = numericToDecimal(gross); err != nil {
		return nil, err
	}
	if order.TotalRegistered, err = numericToDecimal(registered); err != nil {
		return nil, err
	}
	if order.TotalShopperPending, err = numericToDecimal(shopperPending); err != nil {
		return nil, err
	}
	if order.TotalAcquirerPending, err = numericToDecimal(acquirerPending); err != nil {
		return nil, err
	}
	if order.TotalAcquirerApproved, err = numericToDecimal(acquirerApproved); err != nil {
		return nil, err
	}
	if order.TotalCaptured, err = numericToDecimal(captured); err != nil {
		return nil, err
	}
	if order.TotalRefunded, err = numericToDecimal(refunded); err != nil {
		return nil, err
	}
	if order.TotalChargedBack, err = numericToDecimal(chargedBack); err != nil {
		return nil, err
	}

	return &order, nil
}
