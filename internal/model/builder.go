package model

import "regexp"

// MaxServices is the most services a brand profile may list.
const MaxServices = 9

// Color sources.
const (
	ColorSourceLogo   = "logo"
	ColorSourcePreset = "preset"
)

// Tones accepted for copy suggestions.
var Tones = []string{"professional", "friendly", "modern"}

// DefaultTone is used when no tone is given.
const DefaultTone = "professional"

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidHexColor reports whether s is empty or a #RRGGBB color.
func ValidHexColor(s string) bool {
	return s == "" || hexColorRegex.MatchString(s)
}

// BrandProfile is the one-page website builder state for one owner.
type BrandProfile struct {
	ID                  string   `json:"id"`
	Owner               string   `json:"-"`
	BusinessName        string   `json:"business_name"`
	BusinessType        string   `json:"business_type"`
	Description         string   `json:"description"`
	Address             string   `json:"address"`
	Phone               string   `json:"phone"`
	Email               string   `json:"email"`
	PreferredDomain     string   `json:"preferred_domain"`
	DomainAvailable     bool     `json:"domain_available"`
	LogoPath            *string  `json:"logo"`
	PrimaryColor        string   `json:"primary_color"`
	SecondaryColor      string   `json:"secondary_color"`
	AccentColor         string   `json:"accent_color"`
	BackgroundColor     string   `json:"background_color"`
	ColorSource         string   `json:"color_source"`
	Tone                string   `json:"tone"`
	Services            []string `json:"services"`
	EmailVerified       bool     `json:"email_verified"`
	OnboardingCompleted bool     `json:"onboarding_completed"`
	CreatedAt           int64    `json:"created_at"`
	UpdatedAt           int64    `json:"updated_at"`
}

// ServiceCatalog lists the services offered for one business type.
type ServiceCatalog struct {
	BusinessType string   `json:"business_type"`
	Services     []string `json:"services"`
	UpdatedAt    int64    `json:"updated_at"`
}
