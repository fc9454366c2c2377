package docdata

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/edoburu/docdata-reconciler/internal/domain"
	"github.com/edoburu/docdata-reconciler/internal/domain/ports"
)

const defaultTimeout = 30 * time.Second

// centFactor converts major-unit amounts to the integer cents the wire
// format expects.
var centFactor = decimal.NewFromInt(100)

// Client talks to the Docdata order API over XML/HTTP. It authenticates
// every request with the configured merchant's credentials.
type Client struct {
	baseURL    string
	merchant   ports.MerchantCredentials
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client for one merchant account.
func NewClient(baseURL string, merchant ports.MerchantCredentials, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  baseURL,
		merchant: merchant,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// MerchantName returns the merchant the client is authenticated as.
func (c *Client) MerchantName() string {
	return c.merchant.Name
}

func (c *Client) credentials() merchantXML {
	return merchantXML{Name: c.merchant.Name, Password: c.merchant.Password}
}

// Create registers a new payment cluster with the gateway and returns its
// order key.
func (c *Client) Create(ctx context.Context, args ports.CreateOrderArgs) (*ports.CreateResult, error) {
	req := createRequestXML{
		Merchant:        c.credentials(),
		MerchantOrderID: args.MerchantOrderID,
		TotalGrossAmount: amountXML{
			Currency: args.Currency,
			Value:    fmt.Sprintf("%d", args.TotalGrossAmount.Mul(centFactor).IntPart()),
		},
		Language:    args.Language,
		Country:     args.Country,
		Description: args.Description,
		Profile:     args.Profile,
	}

	var resp createResponseXML
	if err := c.call(ctx, "create", req, &resp); err != nil {
		return nil, err
	}
	if resp.Success == nil {
		return nil, gatewayError("create", resp.Error, nil)
	}

	c.logger.Info("registered order with gateway",
		zap.String("merchant_order_id", args.MerchantOrderID),
		zap.String("order_key", resp.Success.OrderKey))
	return &ports.CreateResult{OrderKey: resp.Success.OrderKey}, nil
}

// Start requests payment authorization on an existing order.
func (c *Client) Start(ctx context.Context, orderKey, paymentMethod string) (*ports.StartResult, error) {
	req := startRequestXML{
		Merchant:      c.credentials(),
		OrderKey:      orderKey,
		PaymentMethod: paymentMethod,
	}

	var resp startResponseXML
	if err := c.call(ctx, "start", req, &resp); err != nil {
		return nil, err
	}
	if resp.Success == nil {
		return nil, gatewayError("start", resp.Error, nil)
	}

	c.logger.Info("started payment",
		zap.String("order_key", orderKey),
		zap.Int64("payment_id", resp.Success.PaymentID))
	return &ports.StartResult{PaymentID: resp.Success.PaymentID}, nil
}

// Cancel asks the gateway to cancel the order.
func (c *Client) Cancel(ctx context.Context, orderKey string) error {
	req := cancelRequestXML{
		Merchant: c.credentials(),
		OrderKey: orderKey,
	}

	var resp cancelResponseXML
	if err := c.call(ctx, "cancel", req, &resp); err != nil {
		return err
	}
	if resp.Success == nil {
		return gatewayError("cancel", resp.Error, nil)
	}

	c.logger.Info("cancelled order", zap.String("order_key", orderKey))
	return nil
}

// Status fetches the full payment status report for the order.
func (c *Client) Status(ctx context.Context, orderKey string) (*domain.StatusReport, error) {
	req := statusRequestXML{
		Merchant: c.credentials(),
		OrderKey: orderKey,
	}

	var resp statusResponseXML
	if err := c.call(ctx, "status", req, &resp); err != nil {
		return nil, err
	}
	if resp.Success == nil {
		return nil, gatewayError("status", resp.Error, nil)
	}

	report, err := resp.Success.Report.toDomain()
	if err != nil {
		return nil, &domain.GatewayError{Op: "status", Message: "malformed status report", Err: err}
	}
	return report, nil
}

func (c *Client) call(ctx context.Context, op string, reqBody, respBody any) error {
	payload, err := xml.Marshal(reqBody)
	if err != nil {
		return &domain.GatewayError{Op: op, Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return &domain.GatewayError{Op: op, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &domain.GatewayError{Op: op, Message: "gateway unreachable", Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &domain.GatewayError{Op: op, Message: "read response", Err: err}
	}

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Error("gateway returned non-200 response",
			zap.String("op", op),
			zap.Int("status_code", httpResp.StatusCode))
		return &domain.GatewayError{
			Op:      op,
			Message: fmt.Sprintf("unexpected HTTP status %d", httpResp.StatusCode),
		}
	}

	if err := xml.Unmarshal(body, respBody); err != nil {
		return &domain.GatewayError{Op: op, Message: "decode response", Err: err}
	}
	return nil
}

func gatewayError(op string, e *errorXML, err error) error {
	ge := &domain.GatewayError{Op: op, Message: "gateway rejected request", Err: err}
	if e != nil {
		ge.Code = e.Code
		ge.Message = e.Message
	}
	return ge
}
