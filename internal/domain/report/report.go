// Package report aggregates sales figures over paid orders.
package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DailySales summarises the PAID orders of a single calendar day.
type DailySales struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// Repository provides the aggregate query backing the report.
type Repository interface {
	// PaidSalesBetween returns the count and summed total of PAID orders
	// created in [from, to).
	PaidSalesBetween(ctx context.Context, from, to time.Time) (int, decimal.Decimal, error)
}

// Service computes sales reports.
type Service struct {
	sales Repository
	loc   *time.Location
}

// NewService creates a report Service. Day boundaries follow loc, the
// business timezone.
func NewService(sales Repository, loc *time.Location) *Service {
	return &Service{sales: sales, loc: loc}
}

// DailySales reports the given calendar day (YYYY-MM-DD).
func (s *Service) DailySales(ctx context.Context, date string) (*DailySales, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, errors.Wrap(err, "parse date")
	}

	from := day
	to := day.AddDate(0, 0, 1)

	count, total, err := s.sales.PaidSalesBetween(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "query sales")
	}

	return &DailySales{
		Date:       date,
		OrderCount: count,
		TotalSales: total,
	}, nil
}
