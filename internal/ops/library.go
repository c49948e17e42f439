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

	"github.com/hpungsan/studio/internal/archive"
	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/pack"
)

// MaxLibraryNameLen bounds library item names.
const MaxLibraryNameLen = 200

// PromoteInput contains parameters for PromoteToLibrary.
type PromoteInput struct {
	JobID        string   `json:"job_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category,omitempty"`    // default: main-website
	Subcategory  string   `json:"subcategory,omitempty"` // default: homepage
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	PreviewImage string   `json:"preview_image,omitempty"`
}

// PromoteToLibrary copies a successful job's archive into the library.
// The job must be SUCCESS with an archive; any other state is InvalidState.
func PromoteToLibrary(ctx context.Context, database *sql.DB, cfg *config.Config, input PromoteInput) (*model.LibraryItem, error) {
	fields := map[string][]string{}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		fields["name"] = []string{requiredMessage}
	case len(name) > MaxLibraryNameLen:
		fields["name"] = []string{fmt.Sprintf("Ensure this field has no more than %d characters.", MaxLibraryNameLen)}
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = model.DefaultLibraryCategory
	}
	if !model.ValidLibraryCategory(category) {
		fields["category"] = []string{fmt.Sprintf("%q is not a valid choice.", category)}
	}
	subcategory := strings.TrimSpace(input.Subcategory)
	if subcategory == "" {
		subcategory = model.DefaultLibrarySubcategory
	}
	if !model.ValidLibrarySubcategory(subcategory) {
		fields["subcategory"] = []string{fmt.Sprintf("%q is not a valid choice.", subcategory)}
	}
	if strings.TrimSpace(input.JobID) == "" {
		fields["job_id"] = []string{requiredMessage}
	}
	if len(fields) > 0 {
		return nil, errors.NewValidation(fields)
	}

	job, err := db.GetJob(ctx, database, input.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobSuccess || !job.HasArchive() {
		return nil, errors.NewInvalidState("job", string(job.Status),
			fmt.Sprintf("job %s is %s; only successful jobs with an archive can be promoted", job.ID, job.Status))
	}

	id, err := NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	ref := config.MediaRef(config.LibrarySubdir, id+".zip")
	dest := cfg.MediaPath(ref)
	if err := copyFile(cfg.MediaPath(*job.ArchivePath), dest); err != nil {
		return nil, err
	}

	tags := model.ParseTags(model.JoinTags(input.Tags))
	if tags == nil {
		tags = []string{}
	}
	item := &model.LibraryItem{
		ID:          id,
		Name:        name,
		Target:      job.Target,
		Category:    category,
		Subcategory: subcategory,
		Description: input.Description,
		Tags:        tags,
		ArchivePath: ref,
		SourceJobID: &job.ID,
		CreatedAt:   time.Now().Unix(),
	}
	if p := strings.TrimSpace(input.PreviewImage); p != "" {
		item.PreviewImage = &p
	}
	if err := db.InsertLibraryItem(ctx, database, item); err != nil {
		os.Remove(dest)
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameAlreadyExists("library item", fmt.Sprintf("%s (%s)", name, job.Target))
		}
		return nil, err
	}
	return item, nil
}

// copyFile copies src to dst via a temp file in dst's directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewIOFailure(errors.FileNotFound("open archive", src))
		}
		return errors.NewIOFailure(err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.NewIOFailure(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*.tmp")
	if err != nil {
		return errors.NewIOFailure(err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOFailure(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIOFailure(err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return errors.NewIOFailure(err)
	}
	return nil
}

// ListLibraryInput contains parameters for ListLibrary.
type ListLibraryInput struct {
	Category    string
	Subcategory string
	Target      string
	Query       string
	Limit       int
	Offset      int
}

// ListLibraryOutput contains the result of ListLibrary.
type ListLibraryOutput struct {
	Items      []model.LibraryItem `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// ListLibrary returns library items ordered by category, subcategory and name.
func ListLibrary(ctx context.Context, database *sql.DB, input ListLibraryInput) (*ListLibraryOutput, error) {
	filter := db.LibraryFilter{
		Category:    strings.TrimSpace(input.Category),
		Subcategory: strings.TrimSpace(input.Subcategory),
		Query:       input.Query,
	}
	if t := strings.ToUpper(strings.TrimSpace(input.Target)); t != "" {
		filter.Target = model.Target(t)
		if !filter.Target.Valid() {
			return nil, errors.NewFieldError("target", fmt.Sprintf("%q is not a valid choice.", input.Target))
		}
	}

	p := page(input.Limit, input.Offset)
	items, total, err := db.ListLibraryItems(ctx, database, filter, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.LibraryItem{}
	}
	return &ListLibraryOutput{Items: items, Pagination: paginate(p, len(items), total)}, nil
}

// GetLibraryItem returns one library item.
func GetLibraryItem(ctx context.Context, database *sql.DB, id string) (*model.LibraryItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetLibraryItem(ctx, database, id)
}

// DeleteLibraryItem removes the item and, best effort, its archive.
func DeleteLibraryItem(ctx context.Context, database *sql.DB, cfg *config.Config, id string) error {
	item, err := GetLibraryItem(ctx, database, id)
	if err != nil {
		return err
	}
	if err := db.DeleteLibraryItem(ctx, database, id); err != nil {
		return err
	}
	_ = os.Remove(cfg.MediaPath(item.ArchivePath))
	return nil
}

// Subcategory is one node of the library category tree.
type Subcategory struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryNode is a library category with its subcategories.
type CategoryNode struct {
	Name          string        `json:"name"`
	Count         int           `json:"count"`
	Subcategories []Subcategory `json:"subcategories"`
}

// LibraryCategories returns every known category and subcategory with item
// counts, in the fixed display order. Unknown stored values are appended.
func LibraryCategories(ctx context.Context, database *sql.DB) ([]CategoryNode, error) {
	counts, err := db.CountLibraryByCategory(ctx, database)
	if err != nil {
		return nil, err
	}
	byKey := map[string]int{}
	for _, c := range counts {
		byKey[c.Category+"/"+c.Subcategory] = c.Count
	}

	tree := make([]CategoryNode, 0, len(model.LibraryCategories))
	for _, cat := range model.LibraryCategories {
		node := CategoryNode{Name: cat, Subcategories: []Subcategory{}}
		for _, sub := range model.LibrarySubcategories[cat] {
			key := cat + "/" + sub
			n := byKey[key]
			delete(byKey, key)
			node.Subcategories = append(node.Subcategories, Subcategory{Name: sub, Count: n})
			node.Count += n
		}
		tree = append(tree, node)
	}

	// Subcategories may be stored under a category they don't belong to.
	for _, c := range counts {
		if _, ok := byKey[c.Category+"/"+c.Subcategory]; !ok {
			continue
		}
		idx := -1
		for i := range tree {
			if tree[i].Name == c.Category {
				idx = i
				break
			}
		}
		if idx < 0 {
			tree = append(tree, CategoryNode{Name: c.Category, Subcategories: []Subcategory{}})
			idx = len(tree) - 1
		}
		tree[idx].Subcategories = append(tree[idx].Subcategories, Subcategory{Name: c.Subcategory, Count: c.Count})
		tree[idx].Count += c.Count
	}
	return tree, nil
}

// ArchiveFile locates a downloadable archive on disk.
type ArchiveFile struct {
	Path     string // absolute path
	Filename string // attachment name
}

// LibraryArchive returns the archive of a library item for download.
func LibraryArchive(ctx context.Context, database *sql.DB, cfg *config.Config, id string) (*ArchiveFile, error) {
	item, err := GetLibraryItem(ctx, database, id)
	if err != nil {
		return nil, err
	}
	path := cfg.MediaPath(item.ArchivePath)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewNotFound("library archive", item.ID)
	}
	return &ArchiveFile{Path: path, Filename: item.DownloadName()}, nil
}

// JobArchive returns the build archive of a successful job for download.
func JobArchive(ctx context.Context, database *sql.DB, cfg *config.Config, id string) (*ArchiveFile, error) {
	job, err := GetJob(ctx, database, id)
	if err != nil {
		return nil, err
	}
	if !job.HasArchive() {
		return nil, errors.NewInvalidState("job", string(job.Status), fmt.Sprintf("job %s has no archive", job.ID))
	}
	path := cfg.MediaPath(*job.ArchivePath)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewNotFound("job archive", job.ID)
	}
	name := fmt.Sprintf("%s_%s_template.zip", job.ID, strings.ToLower(string(job.Target)))
	return &ArchiveFile{Path: path, Filename: name}, nil
}

// LibraryReadme returns the README.md packed inside a library item's archive.
func LibraryReadme(ctx context.Context, database *sql.DB, cfg *config.Config, id string) ([]byte, error) {
	file, err := LibraryArchive(ctx, database, cfg, id)
	if err != nil {
		return nil, err
	}
	data, err := archive.ReadFile(file.Path, pack.ReadmeFile)
	if err != nil {
		if errors.KindOf(err) == errors.KindFileNotFound {
			return nil, errors.NewNotFound("readme", id)
		}
		return nil, errors.NewIOFailure(err)
	}
	return data, nil
}

// LibraryReadmeSection returns one README section of a library item, matched
// case-insensitively by heading. A missing section is NotFound and lists the
// available headings in Details["sections"].
func LibraryReadmeSection(ctx context.Context, database *sql.DB, cfg *config.Config, id, name string) (*pack.ReadmeSection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewFieldError("section", "This field is required.")
	}
	data, err := LibraryReadme(ctx, database, cfg, id)
	if err != nil {
		return nil, err
	}
	sections := pack.ParseReadme(string(data))
	if s := pack.FindReadmeSection(sections, name); s != nil {
		return s, nil
	}
	nf := errors.NewNotFound("readme section", name)
	nf.Details["sections"] = pack.ReadmeSectionNames(sections)
	return nil, nf
}
