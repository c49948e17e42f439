package ops

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
)

// ImageExtensions are the upload file extensions accepted.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// CreateUploadInput contains parameters for CreateUpload.
type CreateUploadInput struct {
	Filename string    // original client file name, required
	Title    string    // default: filename up to the first dot
	Notes    string    // optional
	Image    io.Reader // required
}

// CreateUpload stores the image under the uploads area and records a READY upload.
func CreateUpload(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateUploadInput) (*model.Upload, error) {
	if input.Image == nil {
		return nil, errors.NewFieldError("image", "No file was submitted.")
	}
	ext := strings.ToLower(filepath.Ext(input.Filename))
	if !ValidImageExt(ext) {
		return nil, errors.NewFieldError("image",
			fmt.Sprintf("unsupported image type %q; allowed: %s", ext, strings.Join(ImageExtensions, ", ")))
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = model.TitleFromFilename(input.Filename)
	}
	if title == "" {
		return nil, errors.NewFieldError("title", "This field may not be blank.")
	}

	id, err := NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	ref := config.MediaRef(config.UploadsSubdir, id+ext)
	dest := cfg.MediaPath(ref)
	if err := SaveLimited(dest, input.Image, cfg.MaxUploadBytes); err != nil {
		return nil, err
	}

	u := &model.Upload{
		ID:        id,
		Title:     title,
		ImagePath: ref,
		Status:    model.UploadReady,
		Notes:     input.Notes,
		CreatedAt: time.Now().Unix(),
	}
	if err := db.InsertUpload(ctx, database, u); err != nil {
		os.Remove(dest)
		return nil, err
	}
	return u, nil
}

// ValidImageExt reports whether ext (lowercase, with dot) is an accepted image type.
func ValidImageExt(ext string) bool {
	for _, e := range ImageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// SaveLimited copies r to dest, failing with PayloadTooLarge past limit bytes.
// A limit of zero disables the check. Nothing is left behind on failure.
func SaveLimited(dest string, r io.Reader, limit int64) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.NewIOFailure(err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return errors.NewIOFailure(err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return errors.NewIOFailure(err)
	}
	if limit > 0 && n > limit {
		os.Remove(dest)
		return errors.NewPayloadTooLarge(limit)
	}
	return nil
}

// ListUploadsInput contains parameters for ListUploads.
type ListUploadsInput struct {
	Status string // optional filter
	Limit  int    // default: 20, max: 100
	Offset int
}

// ListUploadsOutput contains the result of ListUploads.
type ListUploadsOutput struct {
	Items      []model.Upload `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

// ListUploads returns uploads newest first.
func ListUploads(ctx context.Context, database *sql.DB, input ListUploadsInput) (*ListUploadsOutput, error) {
	status := model.UploadStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	if status != "" && !status.Valid() {
		return nil, errors.NewFieldError("status", fmt.Sprintf("%q is not a valid choice.", input.Status))
	}

	p := page(input.Limit, input.Offset)
	items, total, err := db.ListUploads(ctx, database, status, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Upload{}
	}
	return &ListUploadsOutput{Items: items, Pagination: paginate(p, len(items), total)}, nil
}

// GetUpload returns one upload.
func GetUpload(ctx context.Context, database *sql.DB, id string) (*model.Upload, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetUpload(ctx, database, id)
}

// UpdateUploadInput carries the mutable upload fields. Nil leaves a field unchanged.
type UpdateUploadInput struct {
	ID     string
	Status *string
	Notes  *string
}

// UpdateUpload changes status and/or notes. Title and image are immutable.
func UpdateUpload(ctx context.Context, database *sql.DB, input UpdateUploadInput) (*model.Upload, error) {
	u, err := GetUpload(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Status != nil {
		s := model.UploadStatus(strings.ToUpper(strings.TrimSpace(*input.Status)))
		if !s.Valid() {
			return nil, errors.NewFieldError("status", fmt.Sprintf("%q is not a valid choice.", *input.Status))
		}
		u.Status = s
	}
	if input.Notes != nil {
		u.Notes = *input.Notes
	}
	if err := db.UpdateUpload(ctx, database, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUpload removes the upload, its jobs, the stored image and every
// build archive produced from it. File removal is best effort.
func DeleteUpload(ctx context.Context, database *sql.DB, cfg *config.Config, id string) error {
	u, err := GetUpload(ctx, database, id)
	if err != nil {
		return err
	}
	archives, err := db.ListJobArchives(ctx, database, id)
	if err != nil {
		return err
	}
	if err := db.DeleteUpload(ctx, database, id); err != nil {
		return err
	}

	_ = os.Remove(cfg.MediaPath(u.ImagePath))
	for _, ref := range archives {
		_ = os.Remove(cfg.MediaPath(ref))
	}
	return nil
}
