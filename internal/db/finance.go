package db

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

// --- vendors ---

// InsertVendor stores a new vendor.
func InsertVendor(ctx context.Context, db *sql.DB, v *model.Vendor) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO vendors (id, owner, name, email, phone, tax_id, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Owner, v.Name, v.Email, v.Phone, v.TaxID, v.Note, v.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetVendor retrieves an owner's vendor by ID.
func GetVendor(ctx context.Context, db *sql.DB, owner, id string) (*model.Vendor, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, owner, name, email, phone, tax_id, note, created_at FROM vendors WHERE owner = ? AND id = ?`,
		owner, id)
	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("vendor", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return v, nil
}

// FindVendorByName returns the owner's first vendor with the exact name, or nil.
func FindVendorByName(ctx context.Context, db *sql.DB, owner, name string) (*model.Vendor, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, owner, name, email, phone, tax_id, note, created_at FROM vendors
		 WHERE owner = ? AND name = ? ORDER BY created_at, id LIMIT 1`,
		owner, name)
	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return v, nil
}

// ListVendors returns the owner's vendors ordered by name.
func ListVendors(ctx context.Context, db *sql.DB, owner string) ([]model.Vendor, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, owner, name, email, phone, tax_id, note, created_at FROM vendors WHERE owner = ? ORDER BY name, id`,
		owner)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	list := []model.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		list = append(list, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return list, nil
}

// UpdateVendor persists every editable vendor field.
func UpdateVendor(ctx context.Context, db *sql.DB, v *model.Vendor) error {
	result, err := db.ExecContext(ctx,
		`UPDATE vendors SET name = ?, email = ?, phone = ?, tax_id = ?, note = ? WHERE owner = ? AND id = ?`,
		v.Name, v.Email, v.Phone, v.TaxID, v.Note, v.Owner, v.ID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "vendor", v.ID)
}

// DeleteVendor removes a vendor and, by cascade, its expenses.
func DeleteVendor(ctx context.Context, db *sql.DB, owner, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM vendors WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "vendor", id)
}

func scanVendor(row scanner) (*model.Vendor, error) {
	var v model.Vendor
	if err := row.Scan(&v.ID, &v.Owner, &v.Name, &v.Email, &v.Phone, &v.TaxID, &v.Note, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// --- categories ---

// InsertCategory stores a new category.
func InsertCategory(ctx context.Context, db *sql.DB, c *model.Category) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (id, owner, name, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Owner, c.Name, string(c.Type), c.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetCategory retrieves an owner's category by ID.
func GetCategory(ctx context.Context, db *sql.DB, owner, id string) (*model.Category, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, owner, name, type, created_at FROM categories WHERE owner = ? AND id = ?`, owner, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("category", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// FindCategoryByName returns the owner's first category with the exact name, or nil.
func FindCategoryByName(ctx context.Context, db *sql.DB, owner, name string) (*model.Category, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, owner, name, type, created_at FROM categories
		 WHERE owner = ? AND name = ? ORDER BY created_at, id LIMIT 1`, owner, name)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListCategories returns the owner's categories, optionally of one type.
func ListCategories(ctx context.Context, db *sql.DB, owner string, typ model.CategoryType) ([]model.Category, error) {
	query := `SELECT id, owner, name, type, created_at FROM categories WHERE owner = ?`
	args := []any{owner}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	list := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return list, nil
}

// UpdateCategory persists name and type.
func UpdateCategory(ctx context.Context, db *sql.DB, c *model.Category) error {
	result, err := db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ? WHERE owner = ? AND id = ?`,
		c.Name, string(c.Type), c.Owner, c.ID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "category", c.ID)
}

// DeleteCategory removes a category and, by cascade, its expenses.
func DeleteCategory(ctx context.Context, db *sql.DB, owner, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "category", id)
}

func scanCategory(row scanner) (*model.Category, error) {
	var (
		c   model.Category
		typ string
	)
	if err := row.Scan(&c.ID, &c.Owner, &c.Name, &typ, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Type = model.CategoryType(typ)
	return &c, nil
}

// --- payment methods ---

// InsertPaymentMethod stores a new payment method.
func InsertPaymentMethod(ctx context.Context, db *sql.DB, m *model.PaymentMethod) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO payment_methods (id, owner, name, last4, provider, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Owner, m.Name, m.Last4, m.Provider, m.Note, m.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetPaymentMethod retrieves an owner's payment method by ID.
func GetPaymentMethod(ctx context.Context, db *sql.DB, owner, id string) (*model.PaymentMethod, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, owner, name, last4, provider, note, created_at FROM payment_methods WHERE owner = ? AND id = ?`,
		owner, id)
	m, err := scanPaymentMethod(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("payment method", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return m, nil
}

// FindPaymentMethodByName returns the owner's first method with the exact name, or nil.
func FindPaymentMethodByName(ctx context.Context, db *sql.DB, owner, name string) (*model.PaymentMethod, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, owner, name, last4, provider, note, created_at FROM payment_methods
		 WHERE owner = ? AND name = ? ORDER BY created_at, id LIMIT 1`, owner, name)
	m, err := scanPaymentMethod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return m, nil
}

// ListPaymentMethods returns the owner's payment methods ordered by name.
func ListPaymentMethods(ctx context.Context, db *sql.DB, owner string) ([]model.PaymentMethod, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, owner, name, last4, provider, note, created_at FROM payment_methods WHERE owner = ? ORDER BY name, id`,
		owner)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	list := []model.PaymentMethod{}
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		list = append(list, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return list, nil
}

// UpdatePaymentMethod persists every editable field.
func UpdatePaymentMethod(ctx context.Context, db *sql.DB, m *model.PaymentMethod) error {
	result, err := db.ExecContext(ctx,
		`UPDATE payment_methods SET name = ?, last4 = ?, provider = ?, note = ? WHERE owner = ? AND id = ?`,
		m.Name, m.Last4, m.Provider, m.Note, m.Owner, m.ID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "payment method", m.ID)
}

// DeletePaymentMethod removes a method; expenses keep their row with a NULL method.
func DeletePaymentMethod(ctx context.Context, db *sql.DB, owner, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM payment_methods WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "payment method", id)
}

func scanPaymentMethod(row scanner) (*model.PaymentMethod, error) {
	var m model.PaymentMethod
	if err := row.Scan(&m.ID, &m.Owner, &m.Name, &m.Last4, &m.Provider, &m.Note, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// --- expenses ---

// ExpenseFilter narrows ListExpenses. Dates are inclusive ISO strings.
type ExpenseFilter struct {
	From            string
	To              string
	VendorID        string
	CategoryID      string
	PaymentMethodID string
	Paid            *bool
}

const expenseSelect = `
	SELECT e.id, e.owner, e.date, e.vendor_id, v.name, e.category_id, c.name,
		e.description, e.amount, e.currency, e.payment_method_id, pm.name,
		e.paid_date, e.note, e.external_system, e.external_id, e.created_at, e.updated_at
	FROM expenses e
	JOIN vendors v ON v.id = e.vendor_id
	JOIN categories c ON c.id = e.category_id
	LEFT JOIN payment_methods pm ON pm.id = e.payment_method_id`

// InsertExpense stores a new expense.
func InsertExpense(ctx context.Context, db *sql.DB, e *model.Expense) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO expenses (
			id, owner, date, vendor_id, category_id, description, amount, currency,
			payment_method_id, paid_date, note, external_system, external_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Owner, e.Date, e.VendorID, e.CategoryID, e.Description, e.Amount.StringFixed(2), e.Currency,
		toNullString(e.PaymentMethodID), toNullString(e.PaidDate), e.Note, e.ExternalSystem, e.ExternalID,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetExpense retrieves an owner's expense by ID, with reference names joined in.
func GetExpense(ctx context.Context, db *sql.DB, owner, id string) (*model.Expense, error) {
	row := db.QueryRowContext(ctx, expenseSelect+` WHERE e.owner = ? AND e.id = ?`, owner, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("expense", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// ListExpenses returns the owner's expenses newest first.
func ListExpenses(ctx context.Context, db *sql.DB, owner string, filter ExpenseFilter) ([]model.Expense, error) {
	query := expenseSelect + ` WHERE e.owner = ?`
	args := []any{owner}
	if filter.From != "" {
		query += ` AND e.date >= ?`
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += ` AND e.date <= ?`
		args = append(args, filter.To)
	}
	if filter.VendorID != "" {
		query += ` AND e.vendor_id = ?`
		args = append(args, filter.VendorID)
	}
	if filter.CategoryID != "" {
		query += ` AND e.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.PaymentMethodID != "" {
		query += ` AND e.payment_method_id = ?`
		args = append(args, filter.PaymentMethodID)
	}
	if filter.Paid != nil {
		if *filter.Paid {
			query += ` AND e.paid_date IS NOT NULL`
		} else {
			query += ` AND e.paid_date IS NULL`
		}
	}
	query += ` ORDER BY e.date DESC, e.created_at DESC, e.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	list := []model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return list, nil
}

// UpdateExpense persists every editable expense field.
func UpdateExpense(ctx context.Context, db *sql.DB, e *model.Expense) error {
	result, err := db.ExecContext(ctx, `
		UPDATE expenses SET
			date = ?, vendor_id = ?, category_id = ?, description = ?, amount = ?, currency = ?,
			payment_method_id = ?, paid_date = ?, note = ?, external_system = ?, external_id = ?, updated_at = ?
		WHERE owner = ? AND id = ?`,
		e.Date, e.VendorID, e.CategoryID, e.Description, e.Amount.StringFixed(2), e.Currency,
		toNullString(e.PaymentMethodID), toNullString(e.PaidDate), e.Note, e.ExternalSystem, e.ExternalID,
		e.UpdatedAt, e.Owner, e.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "expense", e.ID)
}

// DeleteExpense removes an expense.
func DeleteExpense(ctx context.Context, db *sql.DB, owner, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM expenses WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "expense", id)
}

// ExpenseAmounts returns the amounts of the owner's expenses dated within
// [from, to]. Summing happens in decimal arithmetic by the caller since
// SQLite would add the TEXT column as floating point.
func ExpenseAmounts(ctx context.Context, db *sql.DB, owner, from, to string) ([]decimal.Decimal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT amount FROM expenses WHERE owner = ? AND date >= ? AND date <= ?`, owner, from, to)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errors.NewInternal(err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		amounts = append(amounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return amounts, nil
}

func scanExpense(row scanner) (*model.Expense, error) {
	var (
		e          model.Expense
		amount     string
		methodID   sql.NullString
		methodName sql.NullString
		paidDate   sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.Owner, &e.Date, &e.VendorID, &e.VendorName, &e.CategoryID, &e.CategoryName,
		&e.Description, &amount, &e.Currency, &methodID, &methodName,
		&paidDate, &e.Note, &e.ExternalSystem, &e.ExternalID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	e.Amount = model.NewAmount(d)
	e.PaymentMethodID = fromNullString(methodID)
	e.PaymentMethodName = fromNullString(methodName)
	e.PaidDate = fromNullString(paidDate)
	e.IsPaid = e.PaidDate != nil
	return &e, nil
}
