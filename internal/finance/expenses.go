package finance

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
)

// DateLayout is the ISO date format used for expense dates.
const DateLayout = "2006-01-02"

// maxAmount is the largest value a decimal(10,2) column holds.
var maxAmount = decimal.RequireFromString("99999999.99")

// ExpenseInput carries the editable expense fields. Amount is a decimal
// string; empty Currency falls back to the configured default.
type ExpenseInput struct {
	Date            string  `json:"date"`
	VendorID        string  `json:"vendor"`
	CategoryID      string  `json:"category"`
	Description     string  `json:"description"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency,omitempty"`
	PaymentMethodID *string `json:"payment_method,omitempty"`
	PaidDate        *string `json:"paid_date,omitempty"`
	Note            string  `json:"note,omitempty"`
	ExternalSystem  string  `json:"external_system,omitempty"`
	ExternalID      string  `json:"external_id,omitempty"`
}

// Amount validation failures. Messages are shown to users as field errors.
var (
	errAmountInvalid  = stderrors.New("A valid number is required.")
	errAmountPositive = stderrors.New("Ensure this value is greater than 0.")
	errAmountPlaces   = stderrors.New("Ensure that there are no more than 2 decimal places.")
	errAmountDigits   = stderrors.New("Ensure that there are no more than 10 digits in total.")
)

// ParseAmount parses a positive amount with at most two decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errAmountInvalid
	}
	if !d.IsPositive() {
		return decimal.Zero, errAmountPositive
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, errAmountPlaces
	}
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, errAmountDigits
	}
	return d.Round(2), nil
}

func validDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// buildExpense validates in against owner's references and fills e.
func buildExpense(ctx context.Context, database *sql.DB, cfg *config.Config, owner string, in ExpenseInput, e *model.Expense) error {
	fields := map[string][]string{}
	add := func(f, msg string) { fields[f] = append(fields[f], msg) }

	date := strings.TrimSpace(in.Date)
	switch {
	case date == "":
		add("date", requiredMessage)
	case !validDate(date):
		add("date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		add("description", requiredMessage)
	}

	var amount decimal.Decimal
	if strings.TrimSpace(in.Amount) == "" {
		add("amount", requiredMessage)
	} else if d, err := ParseAmount(in.Amount); err != nil {
		add("amount", err.Error())
	} else {
		amount = d
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = cfg.DefaultCurrency
	}
	if !model.ValidCurrency(currency) {
		add("currency", fmt.Sprintf("%q is not a valid choice.", in.Currency))
	}

	var paidDate *string
	if in.PaidDate != nil && strings.TrimSpace(*in.PaidDate) != "" {
		p := strings.TrimSpace(*in.PaidDate)
		if !validDate(p) {
			add("paid_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		}
		paidDate = &p
	}

	// References must exist and belong to owner.
	if id := strings.TrimSpace(in.VendorID); id == "" {
		add("vendor", requiredMessage)
	} else if err := checkRef(ctx, database, owner, "vendor", id); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return err
		}
		add("vendor", fmt.Sprintf("Invalid pk %q - object does not exist.", id))
	}
	if id := strings.TrimSpace(in.CategoryID); id == "" {
		add("category", requiredMessage)
	} else if err := checkRef(ctx, database, owner, "category", id); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return err
		}
		add("category", fmt.Sprintf("Invalid pk %q - object does not exist.", id))
	}
	var methodID *string
	if in.PaymentMethodID != nil && strings.TrimSpace(*in.PaymentMethodID) != "" {
		id := strings.TrimSpace(*in.PaymentMethodID)
		if err := checkRef(ctx, database, owner, "payment_method", id); err != nil {
			if !errors.Is(err, errors.ErrNotFound) {
				return err
			}
			add("payment_method", fmt.Sprintf("Invalid pk %q - object does not exist.", id))
		}
		methodID = &id
	}

	if len(fields) > 0 {
		return errors.NewValidation(fields)
	}

	e.Date = date
	e.VendorID = strings.TrimSpace(in.VendorID)
	e.CategoryID = strings.TrimSpace(in.CategoryID)
	e.Description = description
	e.Amount = model.NewAmount(amount)
	e.Currency = currency
	e.PaymentMethodID = methodID
	e.PaidDate = paidDate
	e.Note = in.Note
	e.ExternalSystem = in.ExternalSystem
	e.ExternalID = in.ExternalID
	return nil
}

func checkRef(ctx context.Context, database *sql.DB, owner, kind, id string) error {
	var err error
	switch kind {
	case "vendor":
		_, err = db.GetVendor(ctx, database, owner, id)
	case "category":
		_, err = db.GetCategory(ctx, database, owner, id)
	case "payment_method":
		_, err = db.GetPaymentMethod(ctx, database, owner, id)
	}
	return err
}

// CreateExpense validates and stores a new expense.
func CreateExpense(ctx context.Context, database *sql.DB, cfg *config.Config, owner string, in ExpenseInput) (*model.Expense, error) {
	e := &model.Expense{Owner: owner}
	if err := buildExpense(ctx, database, cfg, owner, in, e); err != nil {
		return nil, err
	}
	id, err := ops.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	e.ID, e.CreatedAt, e.UpdatedAt = id, now, now
	if err := db.InsertExpense(ctx, database, e); err != nil {
		return nil, err
	}
	return db.GetExpense(ctx, database, owner, id)
}

// GetExpense returns one of owner's expenses with reference names.
func GetExpense(ctx context.Context, database *sql.DB, owner, id string) (*model.Expense, error) {
	return db.GetExpense(ctx, database, owner, id)
}

// UpdateExpense replaces every editable field of an expense.
func UpdateExpense(ctx context.Context, database *sql.DB, cfg *config.Config, owner, id string, in ExpenseInput) (*model.Expense, error) {
	e, err := db.GetExpense(ctx, database, owner, id)
	if err != nil {
		return nil, err
	}
	if err := buildExpense(ctx, database, cfg, owner, in, e); err != nil {
		return nil, err
	}
	e.UpdatedAt = time.Now().Unix()
	if err := db.UpdateExpense(ctx, database, e); err != nil {
		return nil, err
	}
	return db.GetExpense(ctx, database, owner, id)
}

// DeleteExpense removes an expense.
func DeleteExpense(ctx context.Context, database *sql.DB, owner, id string) error {
	return db.DeleteExpense(ctx, database, owner, id)
}

// ListExpensesInput holds the list filters as received from a query string.
type ListExpensesInput struct {
	From       string
	To         string
	VendorID   string
	CategoryID string
	MethodID   string
	Paid       string // "true", "false" or empty
}

// Filter validates the input and converts it to a store filter.
func (in ListExpensesInput) Filter() (db.ExpenseFilter, error) {
	fields := map[string][]string{}
	f := db.ExpenseFilter{
		From:            strings.TrimSpace(in.From),
		To:              strings.TrimSpace(in.To),
		VendorID:        strings.TrimSpace(in.VendorID),
		CategoryID:      strings.TrimSpace(in.CategoryID),
		PaymentMethodID: strings.TrimSpace(in.MethodID),
	}
	if f.From != "" && !validDate(f.From) {
		fields["from"] = []string{"Enter a valid date (YYYY-MM-DD)."}
	}
	if f.To != "" && !validDate(f.To) {
		fields["to"] = []string{"Enter a valid date (YYYY-MM-DD)."}
	}
	switch strings.ToLower(strings.TrimSpace(in.Paid)) {
	case "":
	case "true", "1", "yes":
		paid := true
		f.Paid = &paid
	case "false", "0", "no":
		paid := false
		f.Paid = &paid
	default:
		fields["paid"] = []string{"Must be a valid boolean."}
	}
	if len(fields) > 0 {
		return f, errors.NewValidation(fields)
	}
	return f, nil
}

// ListExpenses returns owner's expenses newest first.
func ListExpenses(ctx context.Context, database *sql.DB, owner string, in ListExpensesInput) ([]model.Expense, error) {
	f, err := in.Filter()
	if err != nil {
		return nil, err
	}
	return db.ListExpenses(ctx, database, owner, f)
}

// MarkPaidInput contains parameters for MarkPaid.
type MarkPaidInput struct {
	PaidDate  string `json:"paid_date,omitempty"` // default: today
	Reference string `json:"reference,omitempty"` // appended to the note
}

// MarkPaidOutput is the result of MarkPaid.
type MarkPaidOutput struct {
	Message   string `json:"message"`
	PaidDate  string `json:"paid_date"`
	Reference string `json:"reference"`
}

// MarkPaid sets the paid date of an expense and records the payment
// reference on its note.
func MarkPaid(ctx context.Context, database *sql.DB, owner, id string, in MarkPaidInput, now time.Time) (*MarkPaidOutput, error) {
	paid := strings.TrimSpace(in.PaidDate)
	if paid == "" {
		paid = now.Format(DateLayout)
	} else if !validDate(paid) {
		return nil, errors.NewFieldError("paid_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}

	e, err := db.GetExpense(ctx, database, owner, id)
	if err != nil {
		return nil, err
	}
	e.PaidDate = &paid
	ref := strings.TrimSpace(in.Reference)
	if ref != "" {
		e.Note = strings.TrimSpace(e.Note + "\nPayment ref: " + ref)
	}
	e.UpdatedAt = now.Unix()
	if err := db.UpdateExpense(ctx, database, e); err != nil {
		return nil, err
	}
	return &MarkPaidOutput{Message: "Expense marked as paid", PaidDate: paid, Reference: ref}, nil
}
