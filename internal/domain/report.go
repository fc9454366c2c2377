package domain

import "sort"

// StatusReport is one status snapshot of a payment cluster as returned by
// the gateway. It is read-only input to a reconciliation pass.
type StatusReport struct {
	ApproximateTotals ApproximateTotals
	Payments          []PaymentReport
}

// SortedPayments returns the report's payment entries ordered by ascending
// payment id. The gateway gives no ordering guarantee, so every pass must
// sort before processing to stay deterministic.
func (r *StatusReport) SortedPayments() []PaymentReport {
	out := make([]PaymentReport, len(r.Payments))
	copy(out, r.Payments)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ApproximateTotals is the totals block of a status report. All amounts are
// integer minor units (cents) exactly as they arrive on the wire.
type ApproximateTotals struct {
	TotalRegistered       int64
	TotalShopperPending   int64
	TotalAcquirerPending  int64
	TotalAcquirerApproved int64
	TotalCaptured         int64
	TotalRefunded         int64
	TotalChargedback      int64

	// ExchangedTo is the currency the totals were converted into.
	ExchangedTo string
}

// AllSettledZero returns true when every total except the registered amount
// is exactly zero, i.e. no payment activity happened yet. Used by the
// no-payment-lines heuristics.
func (t ApproximateTotals) AllSettledZero() bool {
	return t.TotalShopperPending == 0 &&
		t.TotalAcquirerPending == 0 &&
		t.TotalAcquirerApproved == 0 &&
		t.TotalCaptured == 0 &&
		t.TotalRefunded == 0 &&
		t.TotalChargedback == 0
}

// PaymentReport is one payment attempt entry in a status report.
type PaymentReport struct {
	ID            int64
	PaymentMethod string
	Authorization Authorization
}

// Authorization is the authorization block of a payment entry. The capture,
// refund and chargeback lists are empty when the corresponding block is
// absent on the wire.
type Authorization struct {
	Status          string
	Amount          Amount
	ConfidenceLevel string
	Captures        []SubTransaction
	Refunds         []SubTransaction
	Chargebacks     []SubTransaction
}

// Amount is a gateway money value: integer minor units plus currency code.
type Amount struct {
	Value    int64
	Currency string
}

// SubTransaction is a single capture, refund or chargeback item.
type SubTransaction struct {
	Status string
	Amount Amount
	Reason string
}
