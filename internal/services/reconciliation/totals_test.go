package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

func TestApplyTotals(t *testing.T) {
	a := NewTotalsAccountant(zap.NewNop())
	order := &domain.Order{TotalCaptured: decimal.NewFromInt(42)}

	a.ApplyTotals(order, domain.ApproximateTotals{
		TotalRegistered:  100000,
		TotalCaptured:    99999,
		TotalRefunded:    1,
		TotalChargedback: 0,
	})

	assert.True(t, order.TotalRegistered.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, order.TotalCaptured.Equal(decimal.RequireFromString("999.99")))
	assert.True(t, order.TotalRefunded.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, order.TotalChargedBack.IsZero())
	// The old snapshot must not survive a pass.
	assert.False(t, order.TotalCaptured.Equal(decimal.NewFromInt(42)))
}

func TestMinorUnitsIsExact(t *testing.T) {
	// 1/100 division must go through decimal exponents, never floats.
	assert.Equal(t, "0.01", minorUnits(1).String())
	assert.Equal(t, "1234.56", minorUnits(123456).String())
	assert.Equal(t, "-5.00", minorUnits(-500).StringFixed(2))
}

func TestSubTransactionSum(t *testing.T) {
	a := NewTotalsAccountant(zap.NewNop())

	items := []domain.SubTransaction{
		{Status: "CAPTURED", Amount: domain.Amount{Value: 5000, Currency: "EUR"}},
		{Status: "FAILED", Amount: domain.Amount{Value: 9999, Currency: "EUR"}},
		{Status: "CAPTURED", Amount: domain.Amount{Value: 2500, Currency: "EUR"}},
		{Status: "STARTED", Amount: domain.Amount{Value: 100, Currency: "EUR"}},
	}

	sum := a.SubTransactionSum(10, "capture", items, captureSuccessStatus)
	assert.True(t, sum.Equal(decimal.RequireFromString("75.00")), "only captured items count, got %s", sum)
}

func TestSubTransactionSum_Empty(t *testing.T) {
	a := NewTotalsAccountant(zap.NewNop())
	assert.True(t, a.SubTransactionSum(10, "refund", nil, captureSuccessStatus).IsZero())
}
