package pra

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds all PRA fiscalization settings. It is loaded once at
// startup as part of the application configuration and treated as
// read-only afterwards.
type Config struct {
	Mode        string `default:"stub" usage:"Fiscalization client: stub or cloud"`
	Environment string `default:"sandbox" usage:"Cloud environment: sandbox or production"`

	SandboxURL      string `default:"https://ims.pral.com.pk/ims/sandbox/api/Live/PostData" flag:"sandbox-url" usage:"Sandbox endpoint"`
	SandboxToken    string `default:"" flag:"sandbox-token" usage:"Sandbox bearer token"`
	ProductionURL   string `default:"https://ims.pral.com.pk/ims/production/api/Live/PostData" flag:"production-url" usage:"Production endpoint"`
	ProductionToken string `default:"" flag:"production-token" usage:"Production bearer token"`

	POSID          int64  `default:"0" flag:"pos-id" usage:"Registered POS identifier, emitted as POSID"`
	InvoiceType    int    `default:"1" flag:"invoice-type" usage:"Invoice type code, emitted as InvoiceType"`
	DefaultPCTCode string `default:"98211000" flag:"default-pct-code" usage:"Fallback PCT code for items without one"`

	CashGSTRate decimal.Decimal `default:"0.16" flag:"cash-gst-rate" usage:"GST fraction for cash payments"`
	CardGSTRate decimal.Decimal `default:"0.05" flag:"card-gst-rate" usage:"GST fraction for card payments"`

	VerifyURLBase string `default:"https://reg.pra.punjab.gov.pk/IMSFiscalReport/SearchPOSInvoice_Report.aspx?PRAInvNo=" flag:"verify-url-base" usage:"Prefix for verification URLs"`
	Timezone      string `default:"Asia/Karachi" usage:"Timezone for invoice DateTime"`

	Stub StubConfig
}

// StubConfig controls the deterministic stub client's failure injection.
type StubConfig struct {
	FailRate          float64         `default:"0" flag:"fail-rate" usage:"Stub failure probability per call [0,1]"`
	FailOnAmountAbove decimal.Decimal `default:"0" flag:"fail-on-amount-above" usage:"If >0, stub fails above this bill amount"`
}

// APIURL returns the cloud endpoint for the configured environment.
func (c Config) APIURL() string {
	if strings.EqualFold(c.Environment, "production") {
		return c.ProductionURL
	}
	return c.SandboxURL
}

// APIToken returns the bearer token for the configured environment.
func (c Config) APIToken() string {
	if strings.EqualFold(c.Environment, "production") {
		return c.ProductionToken
	}
	return c.SandboxToken
}

// TokenConfigured reports whether the active token looks usable. Blank
// tokens and checked-in placeholders count as not configured.
func (c Config) TokenConfigured() bool {
	token := strings.TrimSpace(c.APIToken())
	return token != "" && !strings.Contains(token, "placeholder")
}
