package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

const libraryColumns = `id, name, target, category, subcategory, description, tags,
	archive_path, preview_image, source_job_id, created_at`

// LibraryFilter narrows ListLibraryItems. Empty fields match everything.
type LibraryFilter struct {
	Category    string
	Subcategory string
	Target      model.Target
	Query       string // substring match on name, description and tags
}

// CategoryCount is one (category, subcategory) bucket of the library.
type CategoryCount struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Count       int    `json:"count"`
}

// InsertLibraryItem stores a new library item.
func InsertLibraryItem(ctx context.Context, db *sql.DB, item *model.LibraryItem) error {
	query := `INSERT INTO library_items (` + libraryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		item.ID, item.Name, string(item.Target), item.Category, item.Subcategory,
		item.Description, model.JoinTags(item.Tags), item.ArchivePath,
		toNullString(item.PreviewImage), toNullString(item.SourceJobID), item.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetLibraryItem retrieves a library item by ID.
func GetLibraryItem(ctx context.Context, db *sql.DB, id string) (*model.LibraryItem, error) {
	query := `SELECT ` + libraryColumns + ` FROM library_items WHERE id = ?`
	item, err := scanLibraryItem(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("library item", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return item, nil
}

// ListLibraryItems returns items ordered by category, subcategory, name.
func ListLibraryItems(ctx context.Context, db *sql.DB, filter LibraryFilter, page Page) ([]model.LibraryItem, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Subcategory != "" {
		where += " AND subcategory = ?"
		args = append(args, filter.Subcategory)
	}
	if filter.Target != "" {
		where += " AND target = ?"
		args = append(args, string(filter.Target))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`
		args = append(args, like, like, like)
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + libraryColumns + ` FROM library_items` + where +
		` ORDER BY category, subcategory, name, target LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []model.LibraryItem
	for rows.Next() {
		item, err := scanLibraryItem(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return items, total, nil
}

// CountLibraryByCategory groups the library by category and subcategory.
func CountLibraryByCategory(ctx context.Context, db *sql.DB) ([]CategoryCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT category, subcategory, COUNT(*)
		FROM library_items
		GROUP BY category, subcategory
		ORDER BY category, subcategory
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Subcategory, &c.Count); err != nil {
			return nil, errors.NewInternal(err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return counts, nil
}

// DeleteLibraryItem removes a library item row.
func DeleteLibraryItem(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM library_items WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "library item", id)
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanLibraryItem(row scanner) (*model.LibraryItem, error) {
	var (
		item    model.LibraryItem
		target  string
		tags    string
		preview sql.NullString
		source  sql.NullString
	)
	err := row.Scan(
		&item.ID, &item.Name, &target, &item.Category, &item.Subcategory,
		&item.Description, &tags, &item.ArchivePath, &preview, &source, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Target = model.Target(target)
	item.Tags = model.ParseTags(tags)
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.PreviewImage = fromNullString(preview)
	item.SourceJobID = fromNullString(source)
	return &item, nil
}
