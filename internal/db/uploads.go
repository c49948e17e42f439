package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

const uploadColumns = `id, title, image_path, status, notes, created_at`

// InsertUpload stores a new upload.
func InsertUpload(ctx context.Context, db *sql.DB, u *model.Upload) error {
	query := `INSERT INTO uploads (` + uploadColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		u.ID, u.Title, u.ImagePath, string(u.Status), u.Notes, u.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetUpload retrieves an upload by ID.
func GetUpload(ctx context.Context, db *sql.DB, id string) (*model.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE id = ?`
	u, err := scanUpload(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("upload", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return u, nil
}

// ListUploads returns uploads newest first, optionally filtered by status,
// along with the total number of matching rows.
func ListUploads(ctx context.Context, db *sql.DB, status model.UploadStatus, page Page) ([]model.Upload, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		where = " WHERE status = ?"
		args = append(args, string(status))
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + uploadColumns + ` FROM uploads` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var uploads []model.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		uploads = append(uploads, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return uploads, total, nil
}

// UpdateUpload persists the mutable fields of an upload (status and notes).
func UpdateUpload(ctx context.Context, db *sql.DB, u *model.Upload) error {
	result, err := db.ExecContext(ctx,
		`UPDATE uploads SET status = ?, notes = ? WHERE id = ?`,
		string(u.Status), u.Notes, u.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "upload", u.ID)
}

// DeleteUpload removes an upload. Its jobs are removed by the cascade.
func DeleteUpload(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "upload", id)
}

func scanUpload(row scanner) (*model.Upload, error) {
	var (
		u      model.Upload
		status string
	)
	if err := row.Scan(&u.ID, &u.Title, &u.ImagePath, &status, &u.Notes, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Status = model.UploadStatus(status)
	return &u, nil
}
