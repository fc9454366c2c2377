package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// decimalToNumeric converts a decimal amount to pgtype.Numeric for writes.
func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return n, fmt.Errorf("convert decimal %s to numeric: %w", d, err)
	}
	return n, nil
}

// numericToDecimal converts a pgtype.Numeric column value to an exact
// decimal. NULL maps to zero.
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN {
		return decimal.Zero, fmt.Errorf("numeric value is NaN")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
