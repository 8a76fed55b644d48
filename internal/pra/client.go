package pra

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Result is the outcome of a fiscalization attempt. Success=false with a
// message means the upstream answered but issued no fiscal number; a
// transport-level failure is reported as an UnavailableError instead.
type Result struct {
	Success             bool   `json:"success"`
	FiscalInvoiceNumber string `json:"fiscal_invoice_number,omitempty"`
	QRText              string `json:"qr_text,omitempty"`
	VerificationURL     string `json:"verification_url,omitempty"`
	Message             string `json:"message,omitempty"`
}

// Health describes whether the fiscalization backend is usable.
type Health struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// Health status values.
const (
	StatusOK          = "OK"
	StatusUnavailable = "UNAVAILABLE"
)

// UnavailableError indicates the fiscalization upstream could not be
// reached or answered with a non-2xx status. Checkout treats it as
// retryable: the order stays DRAFT.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Client is the uniform contract over fiscalization backends.
type Client interface {
	// Fiscalize submits a wire invoice and returns the fiscal identifiers.
	Fiscalize(ctx context.Context, inv *Invoice) (*Result, error)
	// Health reports whether the backend is ready to accept invoices.
	Health(ctx context.Context) Health
}

// NewClient selects and constructs the single client implementation for
// this process from configuration.
func NewClient(cfg Config, lg *zap.Logger) (Client, error) {
	switch strings.ToLower(cfg.Mode) {
	case "stub":
		lg.Info("Using stub fiscalization client",
			zap.Float64("fail_rate", cfg.Stub.FailRate))
		return NewStubClient(cfg), nil
	case "cloud":
		lg.Info("Using cloud fiscalization client",
			zap.String("environment", cfg.Environment),
			zap.String("url", cfg.APIURL()),
			zap.Bool("token_configured", cfg.TokenConfigured()))
		return NewCloudClient(cfg, lg), nil
	}
	return nil, errors.Errorf("unknown pra mode %q (want stub or cloud)", cfg.Mode)
}
