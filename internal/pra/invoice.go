// Package pra implements the fiscalization pipeline for the Punjab Revenue
// Authority: the wire-format invoice model, the order-to-invoice mapper,
// and the submission clients.
package pra

import (
	"github.com/shopspring/decimal"
)

// The PRA endpoint re-parses all monetary fields as bare JSON numbers;
// quoted decimals are rejected.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Invoice is the exact request body the PRA API expects. Field names are
// fixed and case-sensitive; numeric fields must never be omitted.
type Invoice struct {
	POSID            int64           `json:"POSID"`
	USIN             string          `json:"USIN"`
	DateTime         string          `json:"DateTime"`
	TotalSaleValue   decimal.Decimal `json:"TotalSaleValue"`
	TotalTaxCharged  decimal.Decimal `json:"TotalTaxCharged"`
	TotalBillAmount  decimal.Decimal `json:"TotalBillAmount"`
	TotalQuantity    decimal.Decimal `json:"TotalQuantity"`
	PaymentMode      int             `json:"PaymentMode"`
	InvoiceType      int             `json:"InvoiceType"`
	Items            []InvoiceItem   `json:"Items"`
	InvoiceNumber    string          `json:"InvoiceNumber"`
	RefUSIN          *string         `json:"RefUSIN"`
	BuyerName        *string         `json:"BuyerName"`
	BuyerPNTN        *string         `json:"BuyerPNTN"`
	BuyerCNIC        *string         `json:"BuyerCNIC"`
	BuyerPhoneNumber *string         `json:"BuyerPhoneNumber"`
	Discount         decimal.Decimal `json:"Discount"`
	FurtherTax       decimal.Decimal `json:"FurtherTax"`
}

// InvoiceItem is one line of the wire invoice. TaxRate is a percentage
// (16.00), not a fraction; SaleValue is pre-tax and post-discount.
type InvoiceItem struct {
	ItemCode    string          `json:"ItemCode"`
	ItemName    string          `json:"ItemName"`
	PCTCode     string          `json:"PCTCode"`
	Quantity    decimal.Decimal `json:"Quantity"`
	TaxRate     decimal.Decimal `json:"TaxRate"`
	SaleValue   decimal.Decimal `json:"SaleValue"`
	TaxCharged  decimal.Decimal `json:"TaxCharged"`
	TotalAmount decimal.Decimal `json:"TotalAmount"`
	InvoiceType int             `json:"InvoiceType"`
	Discount    decimal.Decimal `json:"Discount"`
	FurtherTax  decimal.Decimal `json:"FurtherTax"`
	RefUSIN     *string         `json:"RefUSIN"`
}

// InvoiceResponse is the upstream response envelope.
type InvoiceResponse struct {
	InvoiceNumber string `json:"InvoiceNumber"`
	Code          string `json:"Code"`
	Response      string `json:"Response"`
	Errors        any    `json:"Errors"`
}
