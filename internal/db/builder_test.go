package db

import (
	"context"
	"testing"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

func TestProfiles_OnePerOwner(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	p := &model.BrandProfile{
		ID:           "01P1",
		Owner:        "alice",
		BusinessName: "Alice's Bistro",
		BusinessType: "restaurant",
		ColorSource:  model.ColorSourcePreset,
		Tone:         model.DefaultTone,
		Services:     []string{"Takeout"},
		CreatedAt:    1,
		UpdatedAt:    1,
	}
	if err := InsertProfile(ctx, db, p); err != nil {
		t.Fatalf("InsertProfile failed: %v", err)
	}

	dup := *p
	dup.ID = "01P2"
	if err := InsertProfile(ctx, db, &dup); err != ErrUniqueConstraint {
		t.Errorf("second profile err = %v, want ErrUniqueConstraint", err)
	}

	got, err := GetProfileByOwner(ctx, db, "alice")
	if err != nil {
		t.Fatalf("GetProfileByOwner failed: %v", err)
	}
	if len(got.Services) != 1 || got.LogoPath != nil {
		t.Errorf("profile = %+v", got)
	}

	got.OnboardingCompleted = true
	got.LogoPath = stringPtr("builder/logos/01P1.png")
	got.Services = nil
	if err := UpdateProfile(ctx, db, got); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	got, _ = GetProfileByOwner(ctx, db, "alice")
	if !got.OnboardingCompleted || got.LogoPath == nil || len(got.Services) != 0 {
		t.Errorf("updated profile = %+v", got)
	}

	if _, err := GetProfileByOwner(ctx, db, "bob"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("bob profile err = %v, want NOT_FOUND", err)
	}
}

func TestServiceCatalog_Upsert(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	c := &model.ServiceCatalog{BusinessType: "retail", Services: []string{"Gift Cards"}, UpdatedAt: 1}
	created, err := UpsertServiceCatalog(ctx, db, c)
	if err != nil || !created {
		t.Fatalf("first upsert = %v, %v; want true, nil", created, err)
	}

	c.Services = []string{"Gift Cards", "Wishlist"}
	created, err = UpsertServiceCatalog(ctx, db, c)
	if err != nil || created {
		t.Fatalf("second upsert = %v, %v; want false, nil", created, err)
	}

	got, err := GetServiceCatalog(ctx, db, "retail")
	if err != nil {
		t.Fatalf("GetServiceCatalog failed: %v", err)
	}
	if len(got.Services) != 2 {
		t.Errorf("Services = %v", got.Services)
	}

	missing, err := GetServiceCatalog(ctx, db, "spaceport")
	if err != nil || missing != nil {
		t.Errorf("unknown catalog = %v, %v; want nil, nil", missing, err)
	}

	all, err := ListServiceCatalogs(ctx, db)
	if err != nil || len(all) != 1 {
		t.Errorf("ListServiceCatalogs = %d, %v", len(all), err)
	}
}
