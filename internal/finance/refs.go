// Package finance implements the owner-scoped expense tracker: vendors,
// categories, payment methods, expenses, CSV import, summaries and XLSX
// export.
package finance

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
)

const (
	requiredMessage = "This field is required."
	maxNameLen      = 200
)

var last4Regex = regexp.MustCompile(`^[0-9]{4}$`)

func checkName(fields map[string][]string, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		fields["name"] = append(fields["name"], requiredMessage)
	case len(name) > maxNameLen:
		fields["name"] = append(fields["name"], fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLen))
	}
	return name
}

// --- vendors ---

// VendorInput carries the editable vendor fields.
type VendorInput struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	TaxID string `json:"tax_id,omitempty"`
	Note  string `json:"note,omitempty"`
}

func (in VendorInput) validate() (string, error) {
	fields := map[string][]string{}
	name := checkName(fields, in.Name)
	if e := strings.TrimSpace(in.Email); e != "" && !strings.Contains(e, "@") {
		fields["email"] = []string{"Enter a valid email address."}
	}
	if len(fields) > 0 {
		return "", errors.NewValidation(fields)
	}
	return name, nil
}

// CreateVendor stores a new vendor for owner.
func CreateVendor(ctx context.Context, database *sql.DB, owner string, in VendorInput) (*model.Vendor, error) {
	name, err := in.validate()
	if err != nil {
		return nil, err
	}
	id, err := ops.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	v := &model.Vendor{
		ID: id, Owner: owner, Name: name,
		Email: strings.TrimSpace(in.Email), Phone: in.Phone, TaxID: in.TaxID, Note: in.Note,
		CreatedAt: time.Now().Unix(),
	}
	if err := db.InsertVendor(ctx, database, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetVendor returns one of owner's vendors.
func GetVendor(ctx context.Context, database *sql.DB, owner, id string) (*model.Vendor, error) {
	return db.GetVendor(ctx, database, owner, id)
}

// ListVendors returns owner's vendors ordered by name.
func ListVendors(ctx context.Context, database *sql.DB, owner string) ([]model.Vendor, error) {
	list, err := db.ListVendors(ctx, database, owner)
	if list == nil && err == nil {
		list = []model.Vendor{}
	}
	return list, err
}

// UpdateVendor replaces the editable fields of a vendor.
func UpdateVendor(ctx context.Context, database *sql.DB, owner, id string, in VendorInput) (*model.Vendor, error) {
	name, err := in.validate()
	if err != nil {
		return nil, err
	}
	v, err := db.GetVendor(ctx, database, owner, id)
	if err != nil {
		return nil, err
	}
	v.Name, v.Email, v.Phone, v.TaxID, v.Note = name, strings.TrimSpace(in.Email), in.Phone, in.TaxID, in.Note
	if err := db.UpdateVendor(ctx, database, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVendor removes a vendor and, by cascade, its expenses.
func DeleteVendor(ctx context.Context, database *sql.DB, owner, id string) error {
	return db.DeleteVendor(ctx, database, owner, id)
}

// --- categories ---

// CategoryInput carries the editable category fields.
type CategoryInput struct {
	Name string             `json:"name"`
	Type model.CategoryType `json:"type,omitempty"` // default: expense
}

func (in CategoryInput) validate() (string, model.CategoryType, error) {
	fields := map[string][]string{}
	name := checkName(fields, in.Name)
	typ := model.CategoryType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if typ == "" {
		typ = model.CategoryExpense
	}
	if !typ.Valid() {
		fields["type"] = []string{fmt.Sprintf("%q is not a valid choice.", string(in.Type))}
	}
	if len(fields) > 0 {
		return "", "", errors.NewValidation(fields)
	}
	return name, typ, nil
}

// CreateCategory stores a new category for owner.
func CreateCategory(ctx context.Context, database *sql.DB, owner string, in CategoryInput) (*model.Category, error) {
	name, typ, err := in.validate()
	if err != nil {
		return nil, err
	}
	id, err := ops.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	c := &model.Category{ID: id, Owner: owner, Name: name, Type: typ, CreatedAt: time.Now().Unix()}
	if err := db.InsertCategory(ctx, database, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns one of owner's categories.
func GetCategory(ctx context.Context, database *sql.DB, owner, id string) (*model.Category, error) {
	return db.GetCategory(ctx, database, owner, id)
}

// ListCategories returns owner's categories, optionally of one type.
func ListCategories(ctx context.Context, database *sql.DB, owner, typ string) ([]model.Category, error) {
	t := model.CategoryType(strings.ToLower(strings.TrimSpace(typ)))
	if t != "" && !t.Valid() {
		return nil, errors.NewFieldError("type", fmt.Sprintf("%q is not a valid choice.", typ))
	}
	list, err := db.ListCategories(ctx, database, owner, t)
	if list == nil && err == nil {
		list = []model.Category{}
	}
	return list, err
}

// UpdateCategory replaces the editable fields of a category.
func UpdateCategory(ctx context.Context, database *sql.DB, owner, id string, in CategoryInput) (*model.Category, error) {
	name, typ, err := in.validate()
	if err != nil {
		return nil, err
	}
	c, err := db.GetCategory(ctx, database, owner, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Type = name, typ
	if err := db.UpdateCategory(ctx, database, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category and, by cascade, its expenses.
func DeleteCategory(ctx context.Context, database *sql.DB, owner, id string) error {
	return db.DeleteCategory(ctx, database, owner, id)
}

// --- payment methods ---

// PaymentMethodInput carries the editable payment method fields.
type PaymentMethodInput struct {
	Name     string `json:"name"`
	Last4    string `json:"last4,omitempty"`
	Provider string `json:"provider,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (in PaymentMethodInput) validate() (string, error) {
	fields := map[string][]string{}
	name := checkName(fields, in.Name)
	if l := strings.TrimSpace(in.Last4); l != "" && !last4Regex.MatchString(l) {
		fields["last4"] = []string{"Enter the last 4 digits."}
	}
	if len(fields) > 0 {
		return "", errors.NewValidation(fields)
	}
	return name, nil
}

// CreatePaymentMethod stores a new payment method for owner.
func CreatePaymentMethod(ctx context.Context, database *sql.DB, owner string, in PaymentMethodInput) (*model.PaymentMethod, error) {
	name, err := in.validate()
	if err != nil {
		return nil, err
	}
	id, err := ops.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	m := &model.PaymentMethod{
		ID: id, Owner: owner, Name: name,
		Last4: strings.TrimSpace(in.Last4), Provider: in.Provider, Note: in.Note,
		CreatedAt: time.Now().Unix(),
	}
	if err := db.InsertPaymentMethod(ctx, database, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetPaymentMethod returns one of owner's payment methods.
func GetPaymentMethod(ctx context.Context, database *sql.DB, owner, id string) (*model.PaymentMethod, error) {
	return db.GetPaymentMethod(ctx, database, owner, id)
}

// ListPaymentMethods returns owner's payment methods ordered by name.
func ListPaymentMethods(ctx context.Context, database *sql.DB, owner string) ([]model.PaymentMethod, error) {
	list, err := db.ListPaymentMethods(ctx, database, owner)
	if list == nil && err == nil {
		list = []model.PaymentMethod{}
	}
	return list, err
}

// UpdatePaymentMethod replaces the editable fields of a payment method.
func UpdatePaymentMethod(ctx context.Context, database *sql.DB, owner, id string, in PaymentMethodInput) (*model.PaymentMethod, error) {
	name, err := in.validate()
	if err != nil {
		return nil, err
	}
	m, err := db.GetPaymentMethod(ctx, database, owner, id)
	if err != nil {
		return nil, err
	}
	m.Name, m.Last4, m.Provider, m.Note = name, strings.TrimSpace(in.Last4), in.Provider, in.Note
	if err := db.UpdatePaymentMethod(ctx, database, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeletePaymentMethod removes a payment method. Expenses that used it keep
// their rows with no method.
func DeletePaymentMethod(ctx context.Context, database *sql.DB, owner, id string) error {
	return db.DeletePaymentMethod(ctx, database, owner, id)
}
