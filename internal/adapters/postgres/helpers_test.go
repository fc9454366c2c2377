package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "0.01", "1000.00", "-5.50", "999.99"} {
		d := decimal.RequireFromString(raw)

		n, err := decimalToNumeric(d)
		require.NoError(t, err)

		back, err := numericToDecimal(n)
		require.NoError(t, err)
		assert.True(t, d.Equal(back), "round trip of %s gave %s", raw, back)
	}
}

func TestNumericToDecimal_Null(t *testing.T) {
	got, err := numericToDecimal(pgtype.Numeric{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestNumericToDecimal_NaN(t *testing.T) {
	_, err := numericToDecimal(pgtype.Numeric{NaN: true, Valid: true})
	require.Error(t, err)
}
