package pra

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand/v2"
	"strings"
)

// StubClient fiscalizes locally and deterministically: the fiscal number
// is derived from the USIN, so repeated submissions of the same invoice
// produce the same identifiers. Failure injection is available for
// exercising the checkout failure path.
type StubClient struct {
	cfg       Config
	randFloat func() float64
}

var _ Client = (*StubClient)(nil)

// NewStubClient creates a stub client from configuration.
func NewStubClient(cfg Config) *StubClient {
	return &StubClient{cfg: cfg, randFloat: rand.Float64}
}

// Fiscalize issues a deterministic fiscal number for the invoice. It fails
// with an UnavailableError when the configured amount threshold is
// exceeded or the random failure rate triggers.
func (c *StubClient) Fiscalize(_ context.Context, inv *Invoice) (*Result, error) {
	if c.shouldFail(inv) {
		return nil, &UnavailableError{Reason: "PRA IMS unavailable (stub)"}
	}

	fiscal := stubFiscalNumber(inv.USIN)
	return &Result{
		Success:             true,
		FiscalInvoiceNumber: fiscal,
		QRText:              "PRA|" + fiscal + "|" + inv.USIN,
		VerificationURL:     "https://pra.gov/verify/" + fiscal,
		Message:             "Fiscalized (stub)",
	}, nil
}

// Health always reports OK; the stub has no upstream.
func (c *StubClient) Health(_ context.Context) Health {
	return Health{Status: StatusOK, Detail: "Stub client ready"}
}

func (c *StubClient) shouldFail(inv *Invoice) bool {
	if threshold := c.cfg.Stub.FailOnAmountAbove; threshold.IsPositive() {
		if inv.TotalBillAmount.GreaterThan(threshold) {
			return true
		}
	}
	if rate := c.cfg.Stub.FailRate; rate > 0 {
		return c.randFloat() < rate
	}
	return false
}

// stubFiscalNumber derives FISC-<first 10 hex of sha256(usin), uppercased>.
func stubFiscalNumber(usin string) string {
	sum := sha256.Sum256([]byte(usin))
	return "FISC-" + strings.ToUpper(hex.EncodeToString(sum[:])[:10])
}
