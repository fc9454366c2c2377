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

const paymentLineColumns = `id, order_id, payment_id, payment_method, confidence_level,
	amount_allocated, amount_debited, amount_refunded, amount_chargeback,
	status, created_at, updated_at`

// PaymentLineRepository implements ports.PaymentLineRepository on
// PostgreSQL. payment_id carries a unique constraint; the insert path
// leans on it to resolve create/create races between concurrent passes.
type PaymentLineRepository struct {
	db ports.DBPort
}

// NewPaymentLineRepository creates a new payment line repository.
func NewPaymentLineRepository(db ports.DBPort) *PaymentLineRepository {
	return &PaymentLineRepository{db: db}
}

func (r *PaymentLineRepository) executor(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.db.GetDB()
}

// GetByPaymentIDForUpdate loads a line by gateway payment id with an
// exclusive row lock.
func (r *PaymentLineRepository) GetByPaymentIDForUpdate(ctx context.Context, tx ports.DBTX, paymentID int64) (*domain.PaymentLine, error) {
	row := r.executor(tx).QueryRow(ctx,
		`SELECT `+paymentLineColumns+` FROM payment_lines WHERE payment_id = $1 FOR UPDATE`,
		paymentID,
	)
	return r.scanLine(row)
}

// Insert creates a new line. ON CONFLICT DO NOTHING turns the create race
// into a detectable zero-row result instead of an aborted transaction;
// the caller falls back to an update.
func (r *PaymentLineRepository) Insert(ctx context.Context, tx ports.DBTX, line *domain.PaymentLine) error {
	allocated, debited, refunded, chargeback, err := r.amounts(line)
	if err != nil {
		return err
	}

	row := r.executor(tx).QueryRow(ctx, `
		INSERT INTO payment_lines (
			order_id, payment_id, payment_method, confidence_level,
			amount_allocated, amount_debited, amount_refunded, amount_chargeback,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id`,
		line.OrderID,
		line.PaymentID,
		line.PaymentMethod,
		line.ConfidenceLevel,
		allocated,
		debited,
		refunded,
		chargeback,
		line.Status,
	)
	err = row.Scan(&line.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDuplicatePaymentLine
	}
	if err != nil {
		return fmt.Errorf("insert payment line: %w", err)
	}
	return nil
}

// Update writes an existing line.
func (r *PaymentLineRepository) Update(ctx context.Context, tx ports.DBTX, line *domain.PaymentLine) error {
	allocated, debited, refunded, chargeback, err := r.amounts(line)
	if err != nil {
		return err
	}

	tag, err := r.executor(tx).Exec(ctx, `
		UPDATE payment_lines SET
			payment_method = $2,
			confidence_level = $3,
			amount_allocated = $4,
			amount_debited = $5,
			amount_refunded = $6,
			amount_chargeback = $7,
			status = $8,
			updated_at = now()
		WHERE id = $1`,
		line.ID,
		line.PaymentMethod,
		line.ConfidenceLevel,
		allocated,
		debited,
		refunded,
		chargeback,
		line.Status,
	)
	if err != nil {
		return fmt.Errorf("update payment line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentLineNotFound
	}
	return nil
}

func (r *PaymentLineRepository) amounts(line *domain.PaymentLine) (allocated, debited, refunded, chargeback pgtype.Numeric, err error) {
	if allocated, err = decimalToNumeric(line.AmountAllocated); err != nil {
		return
	}
	if debited, err = decimalToNumeric(line.AmountDebited); err != nil {
		return
	}
	if refunded, err = decimalToNumeric(line.AmountRefunded); err != nil {
		return
	}
	chargeback, err = decimalToNumeric(line.AmountChargeback)
	return
}

func (r *PaymentLineRepository) scanLine(row pgx.Row) (*domain.PaymentLine, error) {
	var (
		line                                     domain.PaymentLine
		allocated, debited, refunded, chargeback pgtype.Numeric
	)

	err := row.Scan(
		&line.ID,
		&line.OrderID,
		&line.PaymentID,
		&line.PaymentMethod,
		&line.ConfidenceLevel,
		&allocated,
		&debited,
		&refunded,
		&chargeback,
		&line.Status,
		&line.Created,
		&line.Updated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment line: %w", err)
	}

	if line.AmountAllocated, err = numericToDecimal(allocated); err != nil {
		return nil, err
	}
	if line.AmountDebited, err = numericToDecimal(debited); err != nil {
		return nil, err
	}
	if line.AmountRefunded, err = numericToDecimal(refunded); err != nil {
		return nil, err
	}
	if line.AmountChargeback, err = numericToDecimal(chargeback); err != nil {
		return nil, err
	}

	return &line, nil
}
