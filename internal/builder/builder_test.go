package builder

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

const owner = "alice"

func setup(t *testing.T) (context.Context, *sql.DB, *config.Config) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	cfg := config.DefaultConfig()
	cfg.MediaDir = filepath.Join(tmpDir, "media")
	return context.Background(), database, cfg
}

func startProfile(t *testing.T, ctx context.Context, database *sql.DB) *model.BrandProfile {
	t.Helper()
	p, created, err := StartProfile(ctx, database, owner, StartInput{
		BusinessName:    "Bella Cucina",
		BusinessType:    "Restaurant",
		Email:           "hi@bella.test",
		PreferredDomain: " Example.COM ",
	})
	if err != nil {
		t.Fatalf("StartProfile failed: %v", err)
	}
	if !created {
		t.Fatal("created = false for new profile")
	}
	return p
}

func strPtr(s string) *string { return &s }

func TestStartProfile(t *testing.T) {
	ctx, database, _ := setup(t)
	p := startProfile(t, ctx, database)

	if p.BusinessType != "restaurant" || p.ColorSource != model.ColorSourcePreset || p.Tone != model.DefaultTone {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.PreferredDomain != "example.com" || p.DomainAvailable {
		t.Errorf("domain = %q available=%v", p.PreferredDomain, p.DomainAvailable)
	}

	again, created, err := StartProfile(ctx, database, owner, StartInput{})
	if err != nil {
		t.Fatalf("second StartProfile failed: %v", err)
	}
	if created || again.ID != p.ID {
		t.Errorf("second start created=%v id=%s, want existing %s", created, again.ID, p.ID)
	}
}

func TestStartProfile_Validation(t *testing.T) {
	ctx, database, _ := setup(t)
	_, _, err := StartProfile(ctx, database, owner, StartInput{Email: "nope", Phone: strings.Repeat("1", 21)})
	fields := errors.FieldErrors(err)
	for _, f := range []string{"business_name", "business_type", "email", "phone"} {
		if len(fields[f]) == 0 {
			t.Errorf("missing field error for %s: %v", f, fields)
		}
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	ctx, database, _ := setup(t)
	if _, err := GetProfile(ctx, database, "nobody"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateBrand(t *testing.T) {
	ctx, database, _ := setup(t)
	startProfile(t, ctx, database)

	p, err := UpdateBrand(ctx, database, owner, BrandInput{
		PrimaryColor: strPtr("#112233"),
		Tone:         strPtr("friendly"),
	})
	if err != nil {
		t.Fatalf("UpdateBrand failed: %v", err)
	}
	if p.PrimaryColor != "#112233" || p.Tone != "friendly" {
		t.Errorf("profile = %+v", p)
	}

	_, err = UpdateBrand(ctx, database, owner, BrandInput{
		SecondaryColor: strPtr("red"),
		ColorSource:    strPtr("random"),
		Tone:           strPtr("angry"),
	})
	fields := errors.FieldErrors(err)
	if len(fields["secondary_color"]) == 0 || len(fields["color_source"]) == 0 || len(fields["tone"]) == 0 {
		t.Errorf("fields = %v", fields)
	}

	got, _ := GetProfile(ctx, database, owner)
	if got.SecondaryColor != "" {
		t.Error("invalid update was persisted")
	}
}

func TestUpdateServices_Max(t *testing.T) {
	ctx, database, _ := setup(t)
	startProfile(t, ctx, database)

	p, err := UpdateServices(ctx, database, owner, DefaultCatalogs["restaurant"])
	if err != nil {
		t.Fatalf("nine services rejected: %v", err)
	}
	if len(p.Services) != 9 {
		t.Errorf("len(Services) = %d", len(p.Services))
	}

	_, err = UpdateServices(ctx, database, owner, append(DefaultCatalogs["retail"], "Extra"))
	msgs := errors.FieldErrors(err)["services"]
	if len(msgs) != 1 || msgs[0] != "Maximum of 9 services allowed" {
		t.Errorf("msgs = %v", msgs)
	}
}

func TestUpdateDescription(t *testing.T) {
	ctx, database, _ := setup(t)
	startProfile(t, ctx, database)
	p, err := UpdateDescription(ctx, database, owner, "Family run since 1982.")
	if err != nil || p.Description != "Family run since 1982." {
		t.Fatalf("UpdateDescription = %+v, %v", p, err)
	}
}

func TestUploadLogo(t *testing.T) {
	ctx, database, cfg := setup(t)
	startProfile(t, ctx, database)

	p, err := UploadLogo(ctx, database, cfg, owner, "logo.PNG", bytes.NewReader([]byte("first")))
	if err != nil {
		t.Fatalf("UploadLogo failed: %v", err)
	}
	if p.ColorSource != model.ColorSourceLogo || p.LogoPath == nil {
		t.Fatalf("profile = %+v", p)
	}
	if !strings.HasPrefix(*p.LogoPath, config.LogosSubdir+"/") || !strings.HasSuffix(*p.LogoPath, ".png") {
		t.Errorf("LogoPath = %q", *p.LogoPath)
	}
	first := cfg.MediaPath(*p.LogoPath)

	p, err = UploadLogo(ctx, database, cfg, owner, "logo.jpg", bytes.NewReader([]byte("second")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Error("previous logo not removed")
	}
	data, err := os.ReadFile(cfg.MediaPath(*p.LogoPath))
	if err != nil || string(data) != "second" {
		t.Errorf("logo content = %q, %v", data, err)
	}

	if _, err := UploadLogo(ctx, database, cfg, owner, "logo.svg", bytes.NewReader(nil)); len(errors.FieldErrors(err)["logo"]) == 0 {
		t.Errorf("svg err = %v", err)
	}
	if _, err := UploadLogo(ctx, database, cfg, owner, "logo.png", nil); len(errors.FieldErrors(err)["logo"]) == 0 {
		t.Errorf("nil reader err = %v", err)
	}
}

func TestUploadLogo_TooLarge(t *testing.T) {
	ctx, database, cfg := setup(t)
	startProfile(t, ctx, database)
	cfg.MaxUploadBytes = 4

	_, err := UploadLogo(ctx, database, cfg, owner, "logo.png", bytes.NewReader([]byte("too big")))
	if !errors.Is(err, errors.ErrPayloadTooLarge) {
		t.Errorf("err = %v, want ErrPayloadTooLarge", err)
	}
	p, _ := GetProfile(ctx, database, owner)
	if p.LogoPath != nil {
		t.Error("LogoPath set after failed upload")
	}
}

func TestVerifyEmail(t *testing.T) {
	ctx, database, _ := setup(t)
	if _, err := VerifyEmail(ctx, database, owner); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("no profile err = %v", err)
	}
	startProfile(t, ctx, database)
	out, err := VerifyEmail(ctx, database, owner)
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != "Email verified successfully" || !out.Verified {
		t.Errorf("out = %+v", out)
	}
	p, _ := GetProfile(ctx, database, owner)
	if !p.EmailVerified {
		t.Error("EmailVerified = false")
	}
}

func TestCompleteOnboarding_CreatesProfile(t *testing.T) {
	ctx, database, _ := setup(t)

	out, err := CompleteOnboarding(ctx, database, "bob", OnboardingInput{
		Description:  strPtr("Fresh pasta daily"),
		PrimaryColor: strPtr("#aa0000"),
		Services:     []string{"Takeout"},
	})
	if err != nil {
		t.Fatalf("CompleteOnboarding failed: %v", err)
	}
	if out.Message != "Onboarding completed successfully" || out.RedirectURL != "/dashboard" || out.ProfileID == "" {
		t.Errorf("out = %+v", out)
	}

	p, err := GetProfile(ctx, database, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != out.ProfileID || !p.OnboardingCompleted {
		t.Errorf("profile = %+v", p)
	}
	if p.BusinessName != "bob's Business" || p.BusinessType != DefaultBusinessType {
		t.Errorf("placeholder details = %q %q", p.BusinessName, p.BusinessType)
	}
	if p.Description != "Fresh pasta daily" || len(p.Services) != 1 {
		t.Errorf("fields not applied: %+v", p)
	}
}

func TestCompleteOnboarding_UpdatesExisting(t *testing.T) {
	ctx, database, _ := setup(t)
	existing := startProfile(t, ctx, database)

	out, err := CompleteOnboarding(ctx, database, owner, OnboardingInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.ProfileID != existing.ID {
		t.Errorf("ProfileID = %s, want %s", out.ProfileID, existing.ID)
	}
	p, _ := GetProfile(ctx, database, owner)
	if p.BusinessName != "Bella Cucina" || !p.OnboardingCompleted {
		t.Errorf("profile = %+v", p)
	}

	if _, err := CompleteOnboarding(ctx, database, owner, OnboardingInput{PrimaryColor: strPtr("blue")}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad color err = %v", err)
	}
}

func TestCheckDomain(t *testing.T) {
	out, err := CheckDomain("  MyBakery.com ")
	if err != nil {
		t.Fatal(err)
	}
	if out.Domain != "mybakery.com" || !out.Available {
		t.Errorf("out = %+v", out)
	}

	for _, d := range []string{"test.com", "Google.com", "twitter.com"} {
		out, err := CheckDomain(d)
		if err != nil {
			t.Fatal(err)
		}
		if out.Available {
			t.Errorf("%s reported available", d)
		}
	}

	_, err = CheckDomain("   ")
	if !errors.Is(err, errors.ErrInvalidRequest) || !strings.Contains(err.Error(), "Domain name is required") {
		t.Errorf("blank err = %v", err)
	}
}

func TestCatalogs(t *testing.T) {
	ctx, database, _ := setup(t)

	res, err := SeedCatalogs(ctx, database, nil)
	if err != nil {
		t.Fatalf("SeedCatalogs failed: %v", err)
	}
	if res.Created != len(DefaultCatalogs) || res.Updated != 0 {
		t.Errorf("first seed = %+v", res)
	}
	res, err = SeedCatalogs(ctx, database, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 0 || res.Updated != len(DefaultCatalogs) {
		t.Errorf("second seed = %+v", res)
	}

	all, _ := ListCatalogs(ctx, database)
	if len(all) != len(DefaultCatalogs) || all[0].BusinessType != "education" {
		t.Errorf("ListCatalogs = %+v", all)
	}

	out, err := GetCatalog(ctx, database, "Healthcare")
	if err != nil {
		t.Fatal(err)
	}
	if out.BusinessType != "healthcare" || len(out.Options) != 9 || out.Options[0] != "Appointment Booking" {
		t.Errorf("healthcare = %+v", out)
	}

	out, err = GetCatalog(ctx, database, "spaceflight")
	if err != nil {
		t.Fatal(err)
	}
	if out.Options == nil || len(out.Options) != 0 {
		t.Errorf("unknown type options = %#v", out.Options)
	}

	if _, err := GetCatalog(ctx, database, ""); err == nil || !strings.Contains(err.Error(), "business_type parameter is required") {
		t.Errorf("blank err = %v", err)
	}
}
