package pra

import (
	"context"

	"github.com/xenking/pra-pos/internal/domain/order"
)

// Fiscalizer adapts the mapper plus a client to the order.Fiscalizer
// contract consumed by checkout.
type Fiscalizer struct {
	mapper *Mapper
	client Client
}

var _ order.Fiscalizer = (*Fiscalizer)(nil)

// NewFiscalizer wires a mapper and a client into a checkout fiscalizer.
func NewFiscalizer(mapper *Mapper, client Client) *Fiscalizer {
	return &Fiscalizer{mapper: mapper, client: client}
}

// Fiscalize maps the order to a wire invoice and submits it. Mapping and
// transport errors propagate unchanged so callers can distinguish an
// unfiscalizable order from an unreachable upstream.
func (f *Fiscalizer) Fiscalize(ctx context.Context, o *order.Order) (*order.FiscalResult, error) {
	inv, err := f.mapper.FromOrder(o)
	if err != nil {
		return nil, err
	}

	res, err := f.client.Fiscalize(ctx, inv)
	if err != nil {
		return nil, err
	}

	return &order.FiscalResult{
		Success:             res.Success,
		FiscalInvoiceNumber: res.FiscalInvoiceNumber,
		QRText:              res.QRText,
		VerificationURL:     res.VerificationURL,
		Message:             res.Message,
	}, nil
}
