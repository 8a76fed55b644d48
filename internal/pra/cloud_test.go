package pra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cloudConfig(url string) Config {
	cfg := testConfig()
	cfg.Mode = "cloud"
	cfg.SandboxURL = url
	cfg.SandboxToken = "test-token"
	return cfg
}

func TestCloudFiscalize_Success(t *testing.T) {
	var gotAuth string
	var gotBody Invoice
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(InvoiceResponse{
			InvoiceNumber: "1234567890123",
			Code:          "100",
			Response:      "Invoice received",
		})
	}))
	defer srv.Close()

	c := NewCloudClient(cloudConfig(srv.URL), zap.NewNop())
	res, err := c.Fiscalize(context.Background(), &Invoice{USIN: "INV-1", PaymentMode: 1})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "INV-1", gotBody.USIN)
	assert.True(t, res.Success)
	assert.Equal(t, "1234567890123", res.FiscalInvoiceNumber)
	wantURL := testConfig().VerifyURLBase + "1234567890123"
	assert.Equal(t, wantURL, res.QRText)
	assert.Equal(t, wantURL, res.VerificationURL)
	assert.Equal(t, "Invoice received", res.Message)
}

func TestCloudFiscalize_BlankInvoiceNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(InvoiceResponse{Code: "101", Response: "Invalid data"})
	}))
	defer srv.Close()

	c := NewCloudClient(cloudConfig(srv.URL), zap.NewNop())
	res, err := c.Fiscalize(context.Background(), &Invoice{USIN: "INV-1"})

	// A reachable upstream that issues no number is not an error.
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Missing invoice number in response", res.Message)
	assert.Empty(t, res.FiscalInvoiceNumber)
}

func TestCloudFiscalize_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCloudClient(cloudConfig(srv.URL), zap.NewNop())
	_, err := c.Fiscalize(context.Background(), &Invoice{USIN: "INV-1"})

	var unavailErr *UnavailableError
	require.ErrorAs(t, err, &unavailErr)
	assert.Equal(t, "PRA API error: 502", unavailErr.Reason)
}

func TestCloudFiscalize_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewCloudClient(cloudConfig(srv.URL), zap.NewNop())
	_, err := c.Fiscalize(context.Background(), &Invoice{USIN: "INV-1"})

	var unavailErr *UnavailableError
	require.ErrorAs(t, err, &unavailErr)
	assert.Equal(t, "PRA API unavailable", unavailErr.Reason)
	assert.Error(t, unavailErr.Unwrap())
}

func TestCloudFiscalize_TokenNotConfigured(t *testing.T) {
	for _, token := range []string{"", "   ", "your-token-placeholder"} {
		cfg := cloudConfig("http://unused")
		cfg.SandboxToken = token
		c := NewCloudClient(cfg, zap.NewNop())

		res, err := c.Fiscalize(context.Background(), &Invoice{USIN: "INV-1"})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "API token not configured", res.Message)
	}
}

func TestCloudHealth(t *testing.T) {
	c := NewCloudClient(cloudConfig("http://unused"), zap.NewNop())
	assert.Equal(t, StatusOK, c.Health(context.Background()).Status)

	cfg := cloudConfig("http://unused")
	cfg.SandboxToken = ""
	c = NewCloudClient(cfg, zap.NewNop())
	assert.Equal(t, StatusUnavailable, c.Health(context.Background()).Status)
}
