package docdata

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

// Wire structures for the gateway's XML order API. Amounts arrive as
// integer minor units in element text with a currency attribute.

type merchantXML struct {
	Name     string `xml:"name,attr"`
	Password string `xml:"password,attr"`
}

type amountXML struct {
	Currency string `xml:"currency,attr"`
	Value    string `xml:",chardata"`
}

func (a amountXML) toDomain() (domain.Amount, error) {
	raw := strings.TrimSpace(a.Value)
	if raw == "" {
		return domain.Amount{Currency: a.Currency}, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return domain.Amount{Value: v, Currency: a.Currency}, nil
}

type errorXML struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type createRequestXML struct {
	XMLName          xml.Name    `xml:"createRequest"`
	Merchant         merchantXML `xml:"merchant"`
	MerchantOrderID  string      `xml:"merchantOrderReference"`
	TotalGrossAmount amountXML   `xml:"totalGrossAmount"`
	Language         string      `xml:"language,omitempty"`
	Country          string      `xml:"country,omitempty"`
	Description      string      `xml:"description,omitempty"`
	Profile          string      `xml:"paymentPreferences>profile,omitempty"`
}

type createResponseXML struct {
	XMLName xml.Name `xml:"createResponse"`
	Success *struct {
		OrderKey string `xml:"key"`
	} `xml:"createSuccess"`
	Error *errorXML `xml:"createErrors>error"`
}

type startRequestXML struct {
	XMLName       xml.Name    `xml:"startRequest"`
	Merchant      merchantXML `xml:"merchant"`
	OrderKey      string      `xml:"paymentOrderKey"`
	PaymentMethod string      `xml:"payment>paymentMethod,omitempty"`
}

type startResponseXML struct {
	XMLName xml.Name `xml:"startResponse"`
	Success *struct {
		PaymentID int64 `xml:"paymentId"`
	} `xml:"startSuccess"`
	Error *errorXML `xml:"startErrors>error"`
}

type cancelRequestXML struct {
	XMLName  xml.Name    `xml:"cancelRequest"`
	Merchant merchantXML `xml:"merchant"`
	OrderKey string      `xml:"paymentOrderKey"`
}

type cancelResponseXML struct {
	XMLName xml.Name `xml:"cancelResponse"`
	Success *struct {
		Result string `xml:"success"`
	} `xml:"cancelSuccess"`
	Error *errorXML `xml:"cancelErrors>error"`
}

type statusRequestXML struct {
	XMLName  xml.Name    `xml:"statusRequest"`
	Merchant merchantXML `xml:"merchant"`
	OrderKey string      `xml:"paymentOrderKey"`
}

type statusResponseXML struct {
	XMLName xml.Name `xml:"statusResponse"`
	Success *struct {
		Report reportXML `xml:"report"`
	} `xml:"statusSuccess"`
	Error *errorXML `xml:"statusErrors>error"`
}

type reportXML struct {
	ApproximateTotals approximateTotalsXML `xml:"approximateTotals"`
	Payments          []paymentXML         `xml:"payment"`
}

type approximateTotalsXML struct {
	ExchangedTo           string `xml:"exchangedTo,attr"`
	TotalRegistered       int64  `xml:"totalRegistered"`
	TotalShopperPending   int64  `xml:"totalShopperPending"`
	TotalAcquirerPending  int64  `xml:"totalAcquirerPending"`
	TotalAcquirerApproved int64  `xml:"totalAcquirerApproved"`
	TotalCaptured         int64  `xml:"totalCaptured"`
	TotalRefunded         int64  `xml:"totalRefunded"`
	TotalChargedback      int64  `xml:"totalChargedback"`
}

type paymentXML struct {
	ID            int64            `xml:"id"`
	PaymentMethod string           `xml:"paymentMethod"`
	Authorization authorizationXML `xml:"authorization"`
}

type authorizationXML struct {
	Status          string              `xml:"status"`
	Amount          amountXML           `xml:"amount"`
	ConfidenceLevel string              `xml:"confidenceLevel"`
	Captures        []subTransactionXML `xml:"capture"`
	Refunds         []subTransactionXML `xml:"refund"`
	Chargebacks     []subTransactionXML `xml:"chargeback"`
}

type subTransactionXML struct {
	Status string    `xml:"status"`
	Amount amountXML `xml:"amount"`
	Reason string    `xml:"reason"`
}

func (r reportXML) toDomain() (*domain.StatusReport, error) {
	report := &domain.StatusReport{
		ApproximateTotals: domain.ApproximateTotals{
			TotalRegistered:       r.ApproximateTotals.TotalRegistered,
			TotalShopperPending:   r.ApproximateTotals.TotalShopperPending,
			TotalAcquirerPending:  r.ApproximateTotals.TotalAcquirerPending,
			TotalAcquirerApproved: r.ApproximateTotals.TotalAcquirerApproved,
			TotalCaptured:         r.ApproximateTotals.TotalCaptured,
			TotalRefunded:         r.ApproximateTotals.TotalRefunded,
			TotalChargedback:      r.ApproximateTotals.TotalChargedback,
			ExchangedTo:           r.ApproximateTotals.ExchangedTo,
		},
	}

	for _, p := range r.Payments {
		entry, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		report.Payments = append(report.Payments, entry)
	}
	return report, nil
}

func (p paymentXML) toDomain() (domain.PaymentReport, error) {
	amount, err := p.Authorization.Amount.toDomain()
	if err != nil {
		return domain.PaymentReport{}, fmt.Errorf("payment %d: %w", p.ID, err)
	}

	auth := domain.Authorization{
		Status:          p.Authorization.Status,
		Amount:          amount,
		ConfidenceLevel: p.Authorization.ConfidenceLevel,
	}

	if auth.Captures, err = subTransactions(p.ID, p.Authorization.Captures); err != nil {
		return domain.PaymentReport{}, err
	}
	if auth.Refunds, err = subTransactions(p.ID, p.Authorization.Refunds); err != nil {
		return domain.PaymentReport{}, err
	}
	if auth.Chargebacks, err = subTransactions(p.ID, p.Authorization.Chargebacks); err != nil {
		return domain.PaymentReport{}, err
	}

	return domain.PaymentReport{
		ID:            p.ID,
		PaymentMethod: p.PaymentMethod,
		Authorization: auth,
	}, nil
}

func subTransactions(paymentID int64, items []subTransactionXML) ([]domain.SubTransaction, error) {
	var out []domain.SubTransaction
	for _, item := range items {
		amount, err := item.Amount.toDomain()
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", paymentID, err)
		}
		out = append(out, domain.SubTransaction{
			Status: item.Status,
			Amount: amount,
			Reason: item.Reason,
		})
	}
	return out, nil
}
