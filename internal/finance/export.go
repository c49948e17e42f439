package finance

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/model"
)

const exportSheet = "Expenses"

var exportHeaders = []string{
	"Date", "Vendor", "Category", "Description", "Amount", "Currency",
	"Payment Method", "Paid Date", "Note",
}

// ExportXLSX writes owner's expenses matching in as a spreadsheet to w.
// Returns the number of expense rows written.
func ExportXLSX(ctx context.Context, database *sql.DB, owner string, in ListExpensesInput, w io.Writer, logger *slog.Logger) (int, error) {
	start := time.Now()
	logger = logging.OrDiscard(logger)

	expenses, err := ListExpenses(ctx, database, owner, in)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, errors.NewInternal(err)
	}
	if err := writeExpenseSheet(f, exportSheet, expenses); err != nil {
		return 0, errors.NewInternal(err)
	}

	if err := f.Write(w); err != nil {
		return 0, errors.NewIOFailure(err)
	}

	logger.Info("export.xlsx.ok", "owner", owner, "rows", len(expenses),
		"elapsed_ms", time.Since(start).Milliseconds())
	return len(expenses), nil
}

// exportWidths sets column widths: date, vendor and category, description,
// amount and currency, method and paid date, note.
var exportWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 12}, {"B", "C", 22}, {"D", "D", 40}, {"E", "F", 12}, {"G", "H", 18}, {"I", "I", 48},
}

// writeExpenseSheet fills sheet with a bold header row and one row per
// expense. Stops at the first excelize error.
func writeExpenseSheet(f *excelize.File, sheet string, expenses []model.Expense) error {
	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "I1", style); err != nil {
		return err
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			e.Date, e.VendorName, e.CategoryName, e.Description, e.Amount.InexactFloat64(),
			e.Currency, deref(e.PaymentMethodName), deref(e.PaidDate), e.Note,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for _, c := range exportWidths {
		if err := f.SetColWidth(sheet, c.from, c.to, c.width); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
