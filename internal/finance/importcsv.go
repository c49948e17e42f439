package finance

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
)

// MaxImportErrors bounds the row errors returned by ImportCSV.
const MaxImportErrors = 10

// importDateLayouts are tried in order for date and paid_date cells.
var importDateLayouts = []string{DateLayout, "02/01/2006"}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Message      string   `json:"message"`
	CreatedCount int      `json:"created_count"`
	SkippedCount int      `json:"skipped_count"`
	Errors       []string `json:"errors"`
}

// ImportCSV creates one expense per CSV row. Headers are case-insensitive;
// date, description, amount, vendor and category are required, with
// payment_method, paid_date, currency and note optional. Vendors, categories
// and payment methods are looked up by name and created when missing. Bad
// rows are skipped and reported as "Row N: ..." counting the header as row 1.
func ImportCSV(ctx context.Context, database *sql.DB, cfg *config.Config, owner, filename string, r io.Reader) (*ImportResult, error) {
	if r == nil {
		return nil, errors.NewInvalidRequest("No file provided")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, errors.NewInvalidRequest("File must be a CSV")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("Failed to process CSV: %v", err))
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &ImportResult{Message: "CSV import completed", Errors: []string{}}, nil
	}
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("Failed to process CSV: %v", err))
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	imp := &importer{
		ctx:      ctx,
		db:       database,
		owner:    owner,
		currency: cfg.DefaultCurrency,
		vendors:  map[string]string{},
		cats:     map[string]string{},
		methods:  map[string]string{},
	}
	result := &ImportResult{Message: "CSV import completed", Errors: []string{}}
	var rowErrors []string

	for rowNum := 2; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", rowNum, err))
			result.SkippedCount++
			continue
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		if msg := imp.importRow(row); msg != "" {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", rowNum, msg))
			result.SkippedCount++
			continue
		}
		result.CreatedCount++
	}

	if len(rowErrors) > MaxImportErrors {
		rowErrors = rowErrors[:MaxImportErrors]
	}
	result.Errors = append(result.Errors, rowErrors...)
	return result, nil
}

// importer caches reference lookups across rows.
type importer struct {
	ctx      context.Context
	db       *sql.DB
	owner    string
	currency string

	vendors map[string]string
	cats    map[string]string
	methods map[string]string
}

// importRow returns an error message, or "" when the expense was created.
func (imp *importer) importRow(row map[string]string) string {
	dateStr, description, amountStr := row["date"], row["description"], row["amount"]
	vendorName, categoryName := row["vendor"], row["category"]
	if dateStr == "" || description == "" || amountStr == "" || vendorName == "" || categoryName == "" {
		return "Missing required fields"
	}

	date, ok := parseImportDate(dateStr)
	if !ok {
		return "Invalid date format"
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", "."))
	if err != nil {
		return "Invalid amount"
	}

	currency := strings.ToUpper(row["currency"])
	if currency == "" {
		currency = imp.currency
	}
	if !model.ValidCurrency(currency) {
		return fmt.Sprintf("Invalid currency %q", row["currency"])
	}

	vendorID, err := imp.vendorID(vendorName)
	if err != nil {
		return err.Error()
	}
	categoryID, err := imp.categoryID(categoryName)
	if err != nil {
		return err.Error()
	}
	var methodID *string
	if name := row["payment_method"]; name != "" {
		id, err := imp.methodID(name)
		if err != nil {
			return err.Error()
		}
		methodID = &id
	}
	// An unparseable paid_date is ignored rather than failing the row.
	var paidDate *string
	if p, ok := parseImportDate(row["paid_date"]); ok {
		paidDate = &p
	}

	id, err := ops.NewID()
	if err != nil {
		return err.Error()
	}
	now := time.Now().Unix()
	e := &model.Expense{
		ID:              id,
		Owner:           imp.owner,
		Date:            date,
		VendorID:        vendorID,
		CategoryID:      categoryID,
		Description:     description,
		Amount:          model.NewAmount(amount.Round(2)),
		Currency:        currency,
		PaymentMethodID: methodID,
		PaidDate:        paidDate,
		Note:            row["note"],
		ExternalSystem:  "csv",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.InsertExpense(imp.ctx, imp.db, e); err != nil {
		return err.Error()
	}
	return ""
}

func parseImportDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

func (imp *importer) vendorID(name string) (string, error) {
	if id, ok := imp.vendors[name]; ok {
		return id, nil
	}
	v, err := db.FindVendorByName(imp.ctx, imp.db, imp.owner, name)
	if err != nil {
		return "", err
	}
	if v == nil {
		if v, err = CreateVendor(imp.ctx, imp.db, imp.owner, VendorInput{Name: name}); err != nil {
			return "", err
		}
	}
	imp.vendors[name] = v.ID
	return v.ID, nil
}

func (imp *importer) categoryID(name string) (string, error) {
	if id, ok := imp.cats[name]; ok {
		return id, nil
	}
	c, err := db.FindCategoryByName(imp.ctx, imp.db, imp.owner, name)
	if err != nil {
		return "", err
	}
	if c == nil {
		if c, err = CreateCategory(imp.ctx, imp.db, imp.owner, CategoryInput{Name: name, Type: model.CategoryExpense}); err != nil {
			return "", err
		}
	}
	imp.cats[name] = c.ID
	return c.ID, nil
}

func (imp *importer) methodID(name string) (string, error) {
	if id, ok := imp.methods[name]; ok {
		return id, nil
	}
	m, err := db.FindPaymentMethodByName(imp.ctx, imp.db, imp.owner, name)
	if err != nil {
		return "", err
	}
	if m == nil {
		if m, err = CreatePaymentMethod(imp.ctx, imp.db, imp.owner, PaymentMethodInput{Name: name}); err != nil {
			return "", err
		}
	}
	imp.methods[name] = m.ID
	return m.ID, nil
}
