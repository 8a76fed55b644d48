package pra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	readTimeout    = 30 * time.Second
)

// CloudClient submits invoices to the PRA cloud API over HTTPS with a
// bearer token. One instance with a pooled transport is shared by the
// whole process.
type CloudClient struct {
	cfg  Config
	http *http.Client
	lg   *zap.Logger
}

var _ Client = (*CloudClient)(nil)

// NewCloudClient creates a cloud client with fixed transport timeouts:
// 10 s to connect, 30 s for the whole exchange.
func NewCloudClient(cfg Config, lg *zap.Logger) *CloudClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &CloudClient{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   readTimeout,
		},
		lg: lg,
	}
}

// Fiscalize POSTs the invoice and parses the upstream envelope. Missing
// credentials are reported as an unsuccessful Result, not an error; a
// transport failure or non-2xx status is an UnavailableError.
func (c *CloudClient) Fiscalize(ctx context.Context, inv *Invoice) (*Result, error) {
	if !c.cfg.TokenConfigured() {
		return &Result{Success: false, Message: "API token not configured"}, nil
	}

	body, err := json.Marshal(inv)
	if err != nil {
		return nil, errors.Wrap(err, "encode invoice")
	}

	url := c.cfg.APIURL()
	c.lg.Info("Submitting invoice to PRA",
		zap.String("url", url),
		zap.String("usin", inv.USIN),
		zap.String("total_bill_amount", inv.TotalBillAmount.String()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.lg.Error("PRA request failed", zap.Error(err))
		return nil, &UnavailableError{Reason: "PRA API unavailable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.lg.Error("PRA returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return nil, &UnavailableError{Reason: fmt.Sprintf("PRA API error: %d", resp.StatusCode)}
	}

	var envelope InvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &UnavailableError{Reason: "PRA API unavailable", Err: err}
	}

	if envelope.InvoiceNumber == "" {
		c.lg.Warn("PRA response missing invoice number",
			zap.String("code", envelope.Code),
			zap.String("response", envelope.Response),
		)
		return &Result{Success: false, Message: "Missing invoice number in response"}, nil
	}

	verifyURL := c.cfg.VerifyURLBase + envelope.InvoiceNumber
	c.lg.Info("PRA accepted invoice",
		zap.String("usin", inv.USIN),
		zap.String("fiscal_invoice_number", envelope.InvoiceNumber),
	)

	return &Result{
		Success:             true,
		FiscalInvoiceNumber: envelope.InvoiceNumber,
		QRText:              verifyURL,
		VerificationURL:     verifyURL,
		Message:             envelope.Response,
	}, nil
}

// Health reports UNAVAILABLE when credentials are absent; it does not
// probe the endpoint.
func (c *CloudClient) Health(_ context.Context) Health {
	if !c.cfg.TokenConfigured() {
		return Health{Status: StatusUnavailable, Detail: "Token not configured"}
	}
	return Health{Status: StatusOK, Detail: "Cloud API configured (" + c.cfg.Environment + ")"}
}
