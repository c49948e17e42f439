package finance

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

// Summary periods.
const (
	PeriodMonth = "month"
	PeriodYTD   = "ytd"
)

// SummaryOutput totals owner's expenses over a period.
type SummaryOutput struct {
	Count        int          `json:"count"`
	Total        model.Amount `json:"total"`
	TotalDisplay string       `json:"total_display"`
	Currency     string       `json:"currency"`
	FromDate     string       `json:"from_date"`
	ToDate       string       `json:"to_date"`
	Period       string       `json:"period"`
}

// Summary totals the expenses dated from the start of the current month
// (month, the default) or year (ytd) through today.
func Summary(ctx context.Context, database *sql.DB, cfg *config.Config, owner, period string, now time.Time) (*SummaryOutput, error) {
	if period == "" {
		period = PeriodMonth
	}
	var from time.Time
	switch period {
	case PeriodMonth:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodYTD:
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil, errors.NewInvalidRequest(`Invalid period. Use "month" or "ytd"`)
	}
	fromDate, toDate := from.Format(DateLayout), now.Format(DateLayout)

	amounts, err := db.ExpenseAmounts(ctx, database, owner, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	total := decimal.Sum(decimal.Zero, amounts...)

	return &SummaryOutput{
		Count:        len(amounts),
		Total:        model.NewAmount(total),
		TotalDisplay: FormatMoney(total, cfg.DefaultCurrency),
		Currency:     cfg.DefaultCurrency,
		FromDate:     fromDate,
		ToDate:       toDate,
		Period:       period,
	}, nil
}

// FormatMoney renders an amount with the currency's symbol and separators.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
