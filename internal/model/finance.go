package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CategoryType distinguishes expense and income categories.
type CategoryType string

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

// Currencies accepted on expenses.
var Currencies = []string{"EUR", "USD", "GBP"}

// ValidCurrency reports whether c is an accepted currency code.
func ValidCurrency(c string) bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}

// DefaultOwner owns finance and builder records when no caller is named.
const DefaultOwner = "local"

// Amount is a decimal money amount rendered with two fractional digits.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

// MarshalJSON renders the amount as a quoted fixed-point string ("12.50").
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.StringFixed(2))
}

// UnmarshalJSON accepts quoted or bare numbers.
func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

// Vendor is a payee owned by one user.
type Vendor struct {
	ID        string `json:"id"`
	Owner     string `json:"-"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	TaxID     string `json:"tax_id"`
	Note      string `json:"note"`
	CreatedAt int64  `json:"created_at"`
}

// Category groups expenses or income.
type Category struct {
	ID        string       `json:"id"`
	Owner     string       `json:"-"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt int64        `json:"created_at"`
}

// PaymentMethod is a card or account used to pay expenses.
type PaymentMethod struct {
	ID        string `json:"id"`
	Owner     string `json:"-"`
	Name      string `json:"name"`
	Last4     string `json:"last4"`
	Provider  string `json:"provider"`
	Note      string `json:"note"`
	CreatedAt int64  `json:"created_at"`
}

// Expense is a single spend. Dates are ISO "YYYY-MM-DD" strings.
type Expense struct {
	ID                string  `json:"id"`
	Owner             string  `json:"-"`
	Date              string  `json:"date"`
	VendorID          string  `json:"vendor"`
	VendorName        string  `json:"vendor_name"`
	CategoryID        string  `json:"category"`
	CategoryName      string  `json:"category_name"`
	Description       string  `json:"description"`
	Amount            Amount  `json:"amount"`
	Currency          string  `json:"currency"`
	PaymentMethodID   *string `json:"payment_method"`
	PaymentMethodName *string `json:"payment_method_name"`
	PaidDate          *string `json:"paid_date"`
	IsPaid            bool    `json:"is_paid"`
	Note              string  `json:"note"`
	ExternalSystem    string  `json:"external_system"`
	ExternalID        string  `json:"external_id"`
	CreatedAt         int64   `json:"created_at"`
	UpdatedAt         int64   `json:"updated_at"`
}
