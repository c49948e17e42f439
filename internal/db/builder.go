package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

const profileColumns = `id, owner, business_name, business_type, description, address, phone, email,
	preferred_domain, domain_available, logo_path, primary_color, secondary_color, accent_color,
	background_color, color_source, tone, services_json, email_verified, onboarding_completed,
	created_at, updated_at`

// InsertProfile stores a new brand profile. Each owner has at most one.
func InsertProfile(ctx context.Context, db *sql.DB, p *model.BrandProfile) error {
	services, err := toJSONList(p.Services)
	if err != nil {
		return errors.NewInternal(err)
	}
	query := `INSERT INTO brand_profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		p.ID, p.Owner, p.BusinessName, p.BusinessType, p.Description, p.Address, p.Phone, p.Email,
		p.PreferredDomain, boolToInt(p.DomainAvailable), toNullString(p.LogoPath),
		p.PrimaryColor, p.SecondaryColor, p.AccentColor, p.BackgroundColor, p.ColorSource, p.Tone,
		services, boolToInt(p.EmailVerified), boolToInt(p.OnboardingCompleted), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetProfileByOwner retrieves the owner's brand profile.
func GetProfileByOwner(ctx context.Context, db *sql.DB, owner string) (*model.BrandProfile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM brand_profiles WHERE owner = ?`, owner)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("brand profile", owner)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return p, nil
}

// UpdateProfile persists every mutable profile field.
func UpdateProfile(ctx context.Context, db *sql.DB, p *model.BrandProfile) error {
	services, err := toJSONList(p.Services)
	if err != nil {
		return errors.NewInternal(err)
	}
	result, err := db.ExecContext(ctx, `
		UPDATE brand_profiles SET
			business_name = ?, business_type = ?, description = ?, address = ?, phone = ?, email = ?,
			preferred_domain = ?, domain_available = ?, logo_path = ?, primary_color = ?,
			secondary_color = ?, accent_color = ?, background_color = ?, color_source = ?, tone = ?,
			services_json = ?, email_verified = ?, onboarding_completed = ?, updated_at = ?
		WHERE owner = ? AND id = ?`,
		p.BusinessName, p.BusinessType, p.Description, p.Address, p.Phone, p.Email,
		p.PreferredDomain, boolToInt(p.DomainAvailable), toNullString(p.LogoPath), p.PrimaryColor,
		p.SecondaryColor, p.AccentColor, p.BackgroundColor, p.ColorSource, p.Tone,
		services, boolToInt(p.EmailVerified), boolToInt(p.OnboardingCompleted), p.UpdatedAt,
		p.Owner, p.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "brand profile", p.ID)
}

func scanProfile(row scanner) (*model.BrandProfile, error) {
	var (
		p                            model.BrandProfile
		logo                         sql.NullString
		services                     string
		domainAvail, verified, onbrd int
	)
	err := row.Scan(
		&p.ID, &p.Owner, &p.BusinessName, &p.BusinessType, &p.Description, &p.Address, &p.Phone, &p.Email,
		&p.PreferredDomain, &domainAvail, &logo, &p.PrimaryColor, &p.SecondaryColor, &p.AccentColor,
		&p.BackgroundColor, &p.ColorSource, &p.Tone, &services, &verified, &onbrd,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	list, err := fromJSONList(services)
	if err != nil {
		return nil, err
	}
	p.Services = list
	p.LogoPath = fromNullString(logo)
	p.DomainAvailable = domainAvail != 0
	p.EmailVerified = verified != 0
	p.OnboardingCompleted = onbrd != 0
	return &p, nil
}

// UpsertServiceCatalog inserts or replaces the services for a business type.
// Returns true when a new row was created.
func UpsertServiceCatalog(ctx context.Context, db *sql.DB, c *model.ServiceCatalog) (bool, error) {
	services, err := toJSONList(c.Services)
	if err != nil {
		return false, errors.NewInternal(err)
	}

	var exists int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM service_catalogs WHERE business_type = ?`, c.BusinessType).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, errors.NewInternal(err)
	}
	created := err == sql.ErrNoRows

	_, err = db.ExecContext(ctx, `
		INSERT INTO service_catalogs (business_type, services_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(business_type) DO UPDATE SET services_json = excluded.services_json, updated_at = excluded.updated_at`,
		c.BusinessType, services, c.UpdatedAt)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return created, nil
}

// GetServiceCatalog returns the catalog for a business type, or nil if none.
func GetServiceCatalog(ctx context.Context, db *sql.DB, businessType string) (*model.ServiceCatalog, error) {
	var (
		c        model.ServiceCatalog
		services string
	)
	err := db.QueryRowContext(ctx,
		`SELECT business_type, services_json, updated_at FROM service_catalogs WHERE business_type = ?`,
		businessType).Scan(&c.BusinessType, &services, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	list, err := fromJSONList(services)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	c.Services = list
	return &c, nil
}

// ListServiceCatalogs returns every catalog ordered by business type.
func ListServiceCatalogs(ctx context.Context, db *sql.DB) ([]model.ServiceCatalog, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT business_type, services_json, updated_at FROM service_catalogs ORDER BY business_type`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	list := []model.ServiceCatalog{}
	for rows.Next() {
		var (
			c        model.ServiceCatalog
			services string
		)
		if err := rows.Scan(&c.BusinessType, &services, &c.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		if c.Services, err = fromJSONList(services); err != nil {
			return nil, errors.NewInternal(err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return list, nil
}
