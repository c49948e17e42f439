package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

// CreateWebsiteTemplateInput contains parameters for CreateWebsiteTemplate.
type CreateWebsiteTemplateInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Sections    []string `json:"sections,omitempty"`
	Preview     string   `json:"preview,omitempty"`
}

// CreateWebsiteTemplate stores a page outline.
func CreateWebsiteTemplate(ctx context.Context, database *sql.DB, input CreateWebsiteTemplateInput) (*model.WebsiteTemplate, error) {
	fields := map[string][]string{}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		fields["name"] = []string{requiredMessage}
	case len(name) > MaxLibraryNameLen:
		fields["name"] = []string{fmt.Sprintf("Ensure this field has no more than %d characters.", MaxLibraryNameLen)}
	}
	category := strings.ToLower(strings.TrimSpace(input.Category))
	if category == "" {
		fields["category"] = []string{requiredMessage}
	} else if !model.ValidWebsiteTemplateCategory(category) {
		fields["category"] = []string{fmt.Sprintf("%q is not a valid choice.", input.Category)}
	}
	if len(fields) > 0 {
		return nil, errors.NewValidation(fields)
	}

	sections := make([]string, 0, len(input.Sections))
	for _, s := range input.Sections {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}

	id, err := NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	wt := &model.WebsiteTemplate{
		ID:          id,
		Name:        name,
		Description: input.Description,
		Category:    category,
		Sections:    sections,
		Preview:     input.Preview,
		CreatedAt:   time.Now().Unix(),
	}
	if err := db.InsertWebsiteTemplate(ctx, database, wt); err != nil {
		return nil, err
	}
	return wt, nil
}

// GetWebsiteTemplate returns one website template.
func GetWebsiteTemplate(ctx context.Context, database *sql.DB, id string) (*model.WebsiteTemplate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetWebsiteTemplate(ctx, database, id)
}

// ListWebsiteTemplates returns website templates newest first.
func ListWebsiteTemplates(ctx context.Context, database *sql.DB, category string) ([]model.WebsiteTemplate, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" && !model.ValidWebsiteTemplateCategory(category) {
		return nil, errors.NewFieldError("category", fmt.Sprintf("%q is not a valid choice.", category))
	}
	list, err := db.ListWebsiteTemplates(ctx, database, category)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.WebsiteTemplate{}
	}
	return list, nil
}

// DeleteWebsiteTemplate removes a website template.
func DeleteWebsiteTemplate(ctx context.Context, database *sql.DB, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewInvalidRequest("id is required")
	}
	return db.DeleteWebsiteTemplate(ctx, database, id)
}
