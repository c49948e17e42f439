package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

const websiteTemplateColumns = `id, name, description, category, sections_json, preview, created_at`

// InsertWebsiteTemplate stores a new website template.
func InsertWebsiteTemplate(ctx context.Context, db *sql.DB, wt *model.WebsiteTemplate) error {
	sections, err := toJSONList(wt.Sections)
	if err != nil {
		return errors.NewInternal(err)
	}
	query := `INSERT INTO website_templates (` + websiteTemplateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, query,
		wt.ID, wt.Name, wt.Description, wt.Category, sections, wt.Preview, wt.CreatedAt,
	); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetWebsiteTemplate retrieves a website template by ID.
func GetWebsiteTemplate(ctx context.Context, db *sql.DB, id string) (*model.WebsiteTemplate, error) {
	query := `SELECT ` + websiteTemplateColumns + ` FROM website_templates WHERE id = ?`
	wt, err := scanWebsiteTemplate(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("website template", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return wt, nil
}

// ListWebsiteTemplates returns templates newest first, optionally by category.
func ListWebsiteTemplates(ctx context.Context, db *sql.DB, category string) ([]model.WebsiteTemplate, error) {
	query := `SELECT ` + websiteTemplateColumns + ` FROM website_templates`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var list []model.WebsiteTemplate
	for rows.Next() {
		wt, err := scanWebsiteTemplate(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		list = append(list, *wt)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return list, nil
}

// DeleteWebsiteTemplate removes a website template.
func DeleteWebsiteTemplate(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM website_templates WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "website template", id)
}

func scanWebsiteTemplate(row scanner) (*model.WebsiteTemplate, error) {
	var (
		wt       model.WebsiteTemplate
		sections string
	)
	if err := row.Scan(&wt.ID, &wt.Name, &wt.Description, &wt.Category, &sections, &wt.Preview, &wt.CreatedAt); err != nil {
		return nil, err
	}
	list, err := fromJSONList(sections)
	if err != nil {
		return nil, err
	}
	wt.Sections = list
	return &wt, nil
}
