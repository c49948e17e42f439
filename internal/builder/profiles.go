// Package builder implements the one-page website builder: brand profiles,
// domain checks, service catalogs and copy suggestions.
package builder

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
)

const requiredMessage = "This field is required."

// Field length limits.
const (
	maxBusinessNameLen = 200
	maxBusinessTypeLen = 100
	maxDomainLen       = 100
	maxPhoneLen        = 20
)

// StartInput contains parameters for StartProfile.
type StartInput struct {
	BusinessName    string `json:"business_name"`
	BusinessType    string `json:"business_type"`
	Email           string `json:"email"`
	Address         string `json:"address,omitempty"`
	Phone           string `json:"phone,omitempty"`
	PreferredDomain string `json:"preferred_domain,omitempty"`
}

func (in StartInput) validate() error {
	fields := map[string][]string{}
	checkLen := func(field, v string, max int, required bool) {
		v = strings.TrimSpace(v)
		switch {
		case v == "" && required:
			fields[field] = append(fields[field], requiredMessage)
		case len(v) > max:
			fields[field] = append(fields[field], fmt.Sprintf("Ensure this field has no more than %d characters.", max))
		}
	}
	checkLen("business_name", in.BusinessName, maxBusinessNameLen, true)
	checkLen("business_type", in.BusinessType, maxBusinessTypeLen, true)
	checkLen("phone", in.Phone, maxPhoneLen, false)
	checkLen("preferred_domain", in.PreferredDomain, maxDomainLen, false)
	if e := strings.TrimSpace(in.Email); e == "" {
		fields["email"] = []string{requiredMessage}
	} else if !strings.Contains(e, "@") {
		fields["email"] = []string{"Enter a valid email address."}
	}
	if len(fields) > 0 {
		return errors.NewValidation(fields)
	}
	return nil
}

// StartProfile returns owner's brand profile, creating it from in when the
// owner has none yet. The bool reports whether a profile was created.
func StartProfile(ctx context.Context, database *sql.DB, owner string, in StartInput) (*model.BrandProfile, bool, error) {
	existing, err := db.GetProfileByOwner(ctx, database, owner)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	if err := in.validate(); err != nil {
		return nil, false, err
	}
	p, err := newProfile(owner)
	if err != nil {
		return nil, false, err
	}
	p.BusinessName = strings.TrimSpace(in.BusinessName)
	p.BusinessType = strings.ToLower(strings.TrimSpace(in.BusinessType))
	p.Email = strings.TrimSpace(in.Email)
	p.Address = in.Address
	p.Phone = strings.TrimSpace(in.Phone)
	p.PreferredDomain = normalizeDomain(in.PreferredDomain)
	if p.PreferredDomain != "" {
		p.DomainAvailable = domainAvailable(p.PreferredDomain)
	}

	if err := db.InsertProfile(ctx, database, p); err != nil {
		if err == db.ErrUniqueConstraint {
			// Lost a race with a concurrent start.
			p, err := db.GetProfileByOwner(ctx, database, owner)
			return p, false, err
		}
		return nil, false, err
	}
	return p, true, nil
}

func newProfile(owner string) (*model.BrandProfile, error) {
	id, err := ops.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	return &model.BrandProfile{
		ID:          id,
		Owner:       owner,
		ColorSource: model.ColorSourcePreset,
		Tone:        model.DefaultTone,
		Services:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetProfile returns owner's brand profile.
func GetProfile(ctx context.Context, database *sql.DB, owner string) (*model.BrandProfile, error) {
	return db.GetProfileByOwner(ctx, database, owner)
}

// update loads owner's profile, applies fn and saves the result.
func update(ctx context.Context, database *sql.DB, owner string, fn func(p *model.BrandProfile) error) (*model.BrandProfile, error) {
	p, err := db.GetProfileByOwner(ctx, database, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().Unix()
	if err := db.UpdateProfile(ctx, database, p); err != nil {
		return nil, err
	}
	return p, nil
}

// BrandInput is a partial update of the brand design. Nil fields are left
// unchanged.
type BrandInput struct {
	PrimaryColor    *string `json:"primary_color,omitempty"`
	SecondaryColor  *string `json:"secondary_color,omitempty"`
	AccentColor     *string `json:"accent_color,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
	ColorSource     *string `json:"color_source,omitempty"`
	Tone            *string `json:"tone,omitempty"`
}

// UpdateBrand applies a partial brand update.
func UpdateBrand(ctx context.Context, database *sql.DB, owner string, in BrandInput) (*model.BrandProfile, error) {
	fields := map[string][]string{}
	colors := []struct {
		name string
		v    *string
	}{
		{"primary_color", in.PrimaryColor},
		{"secondary_color", in.SecondaryColor},
		{"accent_color", in.AccentColor},
		{"background_color", in.BackgroundColor},
	}
	for _, c := range colors {
		if c.v != nil && !model.ValidHexColor(strings.TrimSpace(*c.v)) {
			fields[c.name] = []string{"Enter a color in #RRGGBB format."}
		}
	}
	if in.ColorSource != nil {
		if s := *in.ColorSource; s != model.ColorSourceLogo && s != model.ColorSourcePreset {
			fields["color_source"] = []string{fmt.Sprintf("%q is not a valid choice.", s)}
		}
	}
	if in.Tone != nil && !validTone(*in.Tone) {
		fields["tone"] = []string{fmt.Sprintf("%q is not a valid choice.", *in.Tone)}
	}
	if len(fields) > 0 {
		return nil, errors.NewValidation(fields)
	}

	return update(ctx, database, owner, func(p *model.BrandProfile) error {
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = strings.TrimSpace(*v)
			}
		}
		set(&p.PrimaryColor, in.PrimaryColor)
		set(&p.SecondaryColor, in.SecondaryColor)
		set(&p.AccentColor, in.AccentColor)
		set(&p.BackgroundColor, in.BackgroundColor)
		set(&p.ColorSource, in.ColorSource)
		set(&p.Tone, in.Tone)
		return nil
	})
}

// UpdateDescription replaces the brand description.
func UpdateDescription(ctx context.Context, database *sql.DB, owner, description string) (*model.BrandProfile, error) {
	return update(ctx, database, owner, func(p *model.BrandProfile) error {
		p.Description = description
		return nil
	})
}

// UpdateServices replaces the selected services.
func UpdateServices(ctx context.Context, database *sql.DB, owner string, services []string) (*model.BrandProfile, error) {
	services, err := checkServices(services)
	if err != nil {
		return nil, err
	}
	return update(ctx, database, owner, func(p *model.BrandProfile) error {
		p.Services = services
		return nil
	})
}

func checkServices(services []string) ([]string, error) {
	if len(services) > model.MaxServices {
		return nil, errors.NewFieldError("services", fmt.Sprintf("Maximum of %d services allowed", model.MaxServices))
	}
	if services == nil {
		services = []string{}
	}
	return services, nil
}

// UploadLogo stores a new logo for owner's profile, replacing any previous
// file, and switches the palette source to the logo.
func UploadLogo(ctx context.Context, database *sql.DB, cfg *config.Config, owner, filename string, r io.Reader) (*model.BrandProfile, error) {
	if r == nil {
		return nil, errors.NewFieldError("logo", "No logo file provided")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !ops.ValidImageExt(ext) {
		return nil, errors.NewFieldError("logo",
			fmt.Sprintf("unsupported image type %q; allowed: %s", ext, strings.Join(ops.ImageExtensions, ", ")))
	}

	p, err := db.GetProfileByOwner(ctx, database, owner)
	if err != nil {
		return nil, err
	}
	id, err := ops.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	ref := config.MediaRef(config.LogosSubdir, id+ext)
	if err := ops.SaveLimited(cfg.MediaPath(ref), r, cfg.MaxUploadBytes); err != nil {
		return nil, err
	}

	old := p.LogoPath
	p.LogoPath = &ref
	p.ColorSource = model.ColorSourceLogo
	p.UpdatedAt = time.Now().Unix()
	if err := db.UpdateProfile(ctx, database, p); err != nil {
		_ = os.Remove(cfg.MediaPath(ref))
		return nil, err
	}
	if old != nil && *old != "" {
		_ = os.Remove(cfg.MediaPath(*old))
	}
	return p, nil
}

// VerifyEmailOutput is the result of VerifyEmail.
type VerifyEmailOutput struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

// VerifyEmail marks owner's email as verified. No message is sent.
func VerifyEmail(ctx context.Context, database *sql.DB, owner string) (*VerifyEmailOutput, error) {
	_, err := update(ctx, database, owner, func(p *model.BrandProfile) error {
		p.EmailVerified = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &VerifyEmailOutput{Message: "Email verified successfully", Verified: true}, nil
}

// OnboardingInput carries the final onboarding step. Nil fields are left
// unchanged.
type OnboardingInput struct {
	Description    *string  `json:"description,omitempty"`
	PrimaryColor   *string  `json:"primary_color,omitempty"`
	SecondaryColor *string  `json:"secondary_color,omitempty"`
	Services       []string `json:"services,omitempty"`
}

// OnboardingOutput is the result of CompleteOnboarding.
type OnboardingOutput struct {
	Message     string `json:"message"`
	ProfileID   string `json:"profile_id"`
	RedirectURL string `json:"redirect_url"`
}

// DefaultBusinessType is used for profiles created by CompleteOnboarding.
const DefaultBusinessType = "restaurant"

// CompleteOnboarding applies the final onboarding fields and marks the
// profile complete. A profile is created with placeholder business details
// when the owner skipped StartProfile.
func CompleteOnboarding(ctx context.Context, database *sql.DB, owner string, in OnboardingInput) (*OnboardingOutput, error) {
	fields := map[string][]string{}
	if in.PrimaryColor != nil && !model.ValidHexColor(*in.PrimaryColor) {
		fields["primary_color"] = []string{"Enter a color in #RRGGBB format."}
	}
	if in.SecondaryColor != nil && !model.ValidHexColor(*in.SecondaryColor) {
		fields["secondary_color"] = []string{"Enter a color in #RRGGBB format."}
	}
	if len(in.Services) > model.MaxServices {
		fields["services"] = []string{fmt.Sprintf("Maximum of %d services allowed", model.MaxServices)}
	}
	if len(fields) > 0 {
		return nil, errors.NewValidation(fields)
	}

	p, err := db.GetProfileByOwner(ctx, database, owner)
	created := false
	if errors.Is(err, errors.ErrNotFound) {
		if p, err = newProfile(owner); err != nil {
			return nil, err
		}
		p.BusinessName = owner + "'s Business"
		p.BusinessType = DefaultBusinessType
		created = true
	} else if err != nil {
		return nil, err
	}

	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.PrimaryColor != nil {
		p.PrimaryColor = *in.PrimaryColor
	}
	if in.SecondaryColor != nil {
		p.SecondaryColor = *in.SecondaryColor
	}
	if in.Services != nil {
		p.Services = in.Services
	}
	p.OnboardingCompleted = true
	p.UpdatedAt = time.Now().Unix()

	if created {
		err = db.InsertProfile(ctx, database, p)
	} else {
		err = db.UpdateProfile(ctx, database, p)
	}
	if err != nil {
		return nil, err
	}
	return &OnboardingOutput{
		Message:     "Onboarding completed successfully",
		ProfileID:   p.ID,
		RedirectURL: "/dashboard",
	}, nil
}
