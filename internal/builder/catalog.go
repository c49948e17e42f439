package builder

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/model"
)

// DefaultCatalogs are the services offered per business type out of the box.
var DefaultCatalogs = map[string][]string{
	"restaurant": {
		"Online Ordering", "Menu Display", "Reservations", "Catering Services",
		"Food Delivery", "Event Hosting", "Takeout", "Loyalty Program", "Reviews Display",
	},
	"retail": {
		"Product Catalog", "Online Store", "Inventory Display", "Customer Reviews",
		"Wishlist", "Gift Cards", "Loyalty Program", "Size Guide", "Return Policy",
	},
	"services": {
		"Service Booking", "Consultation", "Portfolio Display", "Testimonials",
		"Contact Form", "Service Packages", "FAQ", "About Us", "Team Profiles",
	},
	"healthcare": {
		"Appointment Booking", "Patient Portal", "Insurance Information", "Services Overview",
		"Doctor Profiles", "Health Tips", "Contact Information", "Emergency Info", "Reviews",
	},
	"professional": {
		"Portfolio Display", "Case Studies", "Service Descriptions", "Team Profiles",
		"Client Testimonials", "Contact Form", "About Company", "News/Blog", "Consultation Booking",
	},
	"education": {
		"Course Catalog", "Enrollment", "Student Portal", "Faculty Profiles",
		"Calendar/Events", "Resources", "Testimonials", "Contact Information", "FAQ",
	},
}

// SeedResult reports what SeedCatalogs changed.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// SeedCatalogs upserts DefaultCatalogs. Running it twice leaves the same rows.
func SeedCatalogs(ctx context.Context, database *sql.DB, logger *slog.Logger) (*SeedResult, error) {
	logger = logging.OrDiscard(logger)

	types := make([]string, 0, len(DefaultCatalogs))
	for t := range DefaultCatalogs {
		types = append(types, t)
	}
	sort.Strings(types)

	res := &SeedResult{}
	now := time.Now().Unix()
	for _, t := range types {
		created, err := db.UpsertServiceCatalog(ctx, database, &model.ServiceCatalog{
			BusinessType: t,
			Services:     DefaultCatalogs[t],
			UpdatedAt:    now,
		})
		if err != nil {
			return nil, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	logger.Info("catalogs.seeded", "created", res.Created, "updated", res.Updated)
	return res, nil
}

// CatalogOutput lists the service options for a business type.
type CatalogOutput struct {
	BusinessType string   `json:"business_type"`
	Options      []string `json:"options"`
}

// GetCatalog returns the service options for businessType. Unknown types
// yield an empty list.
func GetCatalog(ctx context.Context, database *sql.DB, businessType string) (*CatalogOutput, error) {
	bt := strings.ToLower(strings.TrimSpace(businessType))
	if bt == "" {
		return nil, errors.NewInvalidRequest("business_type parameter is required")
	}
	c, err := db.GetServiceCatalog(ctx, database, bt)
	if err != nil {
		return nil, err
	}
	out := &CatalogOutput{BusinessType: bt, Options: []string{}}
	if c != nil && c.Services != nil {
		out.Options = c.Services
	}
	return out, nil
}

// ListCatalogs returns every stored catalog.
func ListCatalogs(ctx context.Context, database *sql.DB) ([]model.ServiceCatalog, error) {
	return db.ListServiceCatalogs(ctx, database)
}
