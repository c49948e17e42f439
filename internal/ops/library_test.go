package ops

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

func successfulJob(t *testing.T, ctx context.Context, database *sql.DB, cfg *config.Config, target model.Target) *model.Job {
	t.Helper()
	u := createTestUpload(t, ctx, database, cfg)
	job, err := CreateJob(ctx, database, nil, CreateJobInput{Upload: u.ID, Target: target})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	finishJob(t, ctx, database, cfg, job)
	return job
}

func TestPromoteToLibrary_CopiesArchive(t *testing.T) {
	ctx, database, cfg := setup(t)
	job := successfulJob(t, ctx, database, cfg, model.TargetDjango)

	item, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{
		JobID: job.ID,
		Name:  "Bistro Home",
		Tags:  []string{" food ", "", "dark"},
	})
	if err != nil {
		t.Fatalf("PromoteToLibrary failed: %v", err)
	}

	if item.Category != model.DefaultLibraryCategory || item.Subcategory != model.DefaultLibrarySubcategory {
		t.Errorf("defaults not applied: %s/%s", item.Category, item.Subcategory)
	}
	if item.Target != model.TargetDjango {
		t.Errorf("Target = %q", item.Target)
	}
	if item.ArchivePath != "templates/library/"+item.ID+".zip" {
		t.Errorf("ArchivePath = %q", item.ArchivePath)
	}
	if len(item.Tags) != 2 || item.Tags[0] != "food" || item.Tags[1] != "dark" {
		t.Errorf("Tags = %v", item.Tags)
	}

	src, _ := os.ReadFile(cfg.MediaPath(*job.ArchivePath))
	dst, err := os.ReadFile(cfg.MediaPath(item.ArchivePath))
	if err != nil {
		t.Fatalf("library archive missing: %v", err)
	}
	if string(src) != string(dst) {
		t.Error("library archive differs from build archive")
	}
}

func TestPromoteToLibrary_RejectsUnfinishedJobs(t *testing.T) {
	ctx, database, cfg := setup(t)
	u := createTestUpload(t, ctx, database, cfg)

	for _, status := range []model.JobStatus{model.JobQueued, model.JobRunning, model.JobError} {
		t.Run(string(status), func(t *testing.T) {
			job, err := CreateJob(ctx, database, nil, CreateJobInput{Upload: u.ID, Target: model.TargetDjango})
			if err != nil {
				t.Fatal(err)
			}
			job.Status = status
			job.Log = "state under test"
			job.UpdatedAt = time.Now().Unix()
			if err := db.UpdateJobState(ctx, database, job); err != nil {
				t.Fatal(err)
			}

			_, err = PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: job.ID, Name: "x-" + string(status)})
			if !errors.Is(err, errors.ErrInvalidState) {
				t.Errorf("err = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestPromoteToLibrary_SuccessWithoutArchive(t *testing.T) {
	ctx, database, cfg := setup(t)
	u := createTestUpload(t, ctx, database, cfg)
	job, _ := CreateJob(ctx, database, nil, CreateJobInput{Upload: u.ID, Target: model.TargetNextJS})
	job.Status = model.JobSuccess
	if err := db.UpdateJobState(ctx, database, job); err != nil {
		t.Fatal(err)
	}

	if _, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: job.ID, Name: "n"}); !errors.Is(err, errors.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestPromoteToLibrary_Validation(t *testing.T) {
	ctx, database, cfg := setup(t)

	_, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{
		Name:        strings.Repeat("n", MaxLibraryNameLen+1),
		Category:    "cooking",
		Subcategory: "soups",
	})
	fields := errors.FieldErrors(err)
	for _, f := range []string{"name", "category", "subcategory", "job_id"} {
		if len(fields[f]) == 0 {
			t.Errorf("missing field error for %s in %v", f, fields)
		}
	}
}

func TestPromoteToLibrary_DuplicateName(t *testing.T) {
	ctx, database, cfg := setup(t)
	first := successfulJob(t, ctx, database, cfg, model.TargetDjango)
	second := successfulJob(t, ctx, database, cfg, model.TargetDjango)
	other := successfulJob(t, ctx, database, cfg, model.TargetNextJS)

	if _, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: first.ID, Name: "Shop"}); err != nil {
		t.Fatal(err)
	}
	_, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: second.ID, Name: "Shop"})
	if !errors.Is(err, errors.ErrNameAlreadyExists) {
		t.Fatalf("err = %v, want ErrNameAlreadyExists", err)
	}
	entries, _ := os.ReadDir(cfg.MediaPath(config.LibrarySubdir))
	if len(entries) != 1 {
		t.Errorf("library dir has %d files, want 1 (duplicate copy removed)", len(entries))
	}

	// Same name for a different target is allowed.
	if _, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: other.ID, Name: "Shop"}); err != nil {
		t.Errorf("same name, other target: %v", err)
	}
}

func TestLibraryCategories_Counts(t *testing.T) {
	ctx, database, cfg := setup(t)
	for _, in := range []PromoteInput{
		{Name: "a", Category: "blog", Subcategory: "blog-post"},
		{Name: "b", Category: "blog", Subcategory: "blog-post"},
		{Name: "c", Category: "dashboard", Subcategory: "analytics"},
	} {
		in.JobID = successfulJob(t, ctx, database, cfg, model.TargetDjango).ID
		if _, err := PromoteToLibrary(ctx, database, cfg, in); err != nil {
			t.Fatal(err)
		}
	}

	tree, err := LibraryCategories(ctx, database)
	if err != nil {
		t.Fatalf("LibraryCategories failed: %v", err)
	}
	if len(tree) != len(model.LibraryCategories) {
		t.Fatalf("len(tree) = %d, want %d", len(tree), len(model.LibraryCategories))
	}
	counts := map[string]int{}
	for _, node := range tree {
		counts[node.Name] = node.Count
		for _, sub := range node.Subcategories {
			counts[node.Name+"/"+sub.Name] = sub.Count
		}
	}
	if counts["blog"] != 2 || counts["blog/blog-post"] != 2 || counts["dashboard/analytics"] != 1 || counts["ecommerce"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestListLibrary_Filters(t *testing.T) {
	ctx, database, cfg := setup(t)
	for _, in := range []PromoteInput{
		{Name: "Cafe", Description: "cozy coffee", Category: "landing-page", Subcategory: "lead-capture"},
		{Name: "Store", Tags: []string{"coffee"}, Category: "ecommerce", Subcategory: "checkout"},
	} {
		in.JobID = successfulJob(t, ctx, database, cfg, model.TargetNextJS).ID
		if _, err := PromoteToLibrary(ctx, database, cfg, in); err != nil {
			t.Fatal(err)
		}
	}

	out, err := ListLibrary(ctx, database, ListLibraryInput{Query: "COFFEE"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Items) != 2 {
		t.Errorf("query matched %d, want 2", len(out.Items))
	}
	out, _ = ListLibrary(ctx, database, ListLibraryInput{Category: "ecommerce"})
	if len(out.Items) != 1 || out.Items[0].Name != "Store" {
		t.Errorf("category filter = %+v", out.Items)
	}
	out, _ = ListLibrary(ctx, database, ListLibraryInput{Target: "django"})
	if len(out.Items) != 0 {
		t.Errorf("target filter matched %d", len(out.Items))
	}
	if _, err := ListLibrary(ctx, database, ListLibraryInput{Target: "rails"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad target err = %v", err)
	}
}

func TestLibraryArchiveAndReadme(t *testing.T) {
	ctx, database, cfg := setup(t)
	job := successfulJob(t, ctx, database, cfg, model.TargetNextJS)
	item, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: job.ID, Name: "My Site"})
	if err != nil {
		t.Fatal(err)
	}

	file, err := LibraryArchive(ctx, database, cfg, item.ID)
	if err != nil {
		t.Fatalf("LibraryArchive failed: %v", err)
	}
	if file.Filename != "My_Site_nextjs_template.zip" {
		t.Errorf("Filename = %q", file.Filename)
	}

	readme, err := LibraryReadme(ctx, database, cfg, item.ID)
	if err != nil {
		t.Fatalf("LibraryReadme failed: %v", err)
	}
	if string(readme) != "# Pack\n" {
		t.Errorf("readme = %q", readme)
	}

	section, err := LibraryReadmeSection(ctx, database, cfg, item.ID, "pack")
	if err != nil {
		t.Fatalf("LibraryReadmeSection failed: %v", err)
	}
	if section.Name != "Pack" || section.Level != 1 {
		t.Errorf("section = %+v", section)
	}
	_, err = LibraryReadmeSection(ctx, database, cfg, item.ID, "Usage")
	nf, ok := err.(*errors.StudioError)
	if !ok || nf.Code != errors.ErrNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if names, _ := nf.Details["sections"].([]string); len(names) != 1 || names[0] != "Pack" {
		t.Errorf("Details[sections] = %v", nf.Details["sections"])
	}

	jf, err := JobArchive(ctx, database, cfg, job.ID)
	if err != nil {
		t.Fatalf("JobArchive failed: %v", err)
	}
	if !strings.HasSuffix(jf.Filename, "_nextjs_template.zip") {
		t.Errorf("job archive filename = %q", jf.Filename)
	}
}

func TestDeleteLibraryItem_RemovesArchive(t *testing.T) {
	ctx, database, cfg := setup(t)
	job := successfulJob(t, ctx, database, cfg, model.TargetDjango)
	item, err := PromoteToLibrary(ctx, database, cfg, PromoteInput{JobID: job.ID, Name: "gone"})
	if err != nil {
		t.Fatal(err)
	}

	if err := DeleteLibraryItem(ctx, database, cfg, item.ID); err != nil {
		t.Fatalf("DeleteLibraryItem failed: %v", err)
	}
	if _, err := os.Stat(cfg.MediaPath(item.ArchivePath)); !os.IsNotExist(err) {
		t.Errorf("archive still present")
	}
	// The build archive is untouched.
	if _, err := os.Stat(cfg.MediaPath(*job.ArchivePath)); err != nil {
		t.Errorf("build archive removed: %v", err)
	}
	if err := DeleteLibraryItem(ctx, database, cfg, item.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
