package ops

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hpungsan/studio/internal/archive"
	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/model"
)

func stringPtr(s string) *string { return &s }

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

// recordingRunner remembers submitted job IDs without running them.
type recordingRunner struct {
	submitted []string
	err       error
}

func (r *recordingRunner) Submit(_ context.Context, jobID string) error {
	r.submitted = append(r.submitted, jobID)
	return r.err
}

func createTestUpload(t *testing.T, ctx context.Context, database *sql.DB, cfg *config.Config) *model.Upload {
	t.Helper()
	u, err := CreateUpload(ctx, database, cfg, CreateUploadInput{
		Filename: "landing.page.png",
		Image:    bytes.NewReader([]byte("not really a png")),
	})
	if err != nil {
		t.Fatalf("CreateUpload failed: %v", err)
	}
	return u
}

// finishJob marks a job SUCCESS with a real archive under the builds area.
func finishJob(t *testing.T, ctx context.Context, database *sql.DB, cfg *config.Config, job *model.Job) string {
	t.Helper()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "README.md"), []byte("# Pack\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ref := config.MediaRef(config.BuildsSubdir, job.ID+".zip")
	if err := os.MkdirAll(filepath.Dir(cfg.MediaPath(ref)), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := archive.ZipDir(ctx, src, cfg.MediaPath(ref)); err != nil {
		t.Fatalf("ZipDir failed: %v", err)
	}
	job.Status = model.JobSuccess
	job.ArchivePath = &ref
	job.Log = "done"
	job.UpdatedAt = time.Now().Unix()
	if err := db.UpdateJobState(ctx, database, job); err != nil {
		t.Fatalf("UpdateJobState failed: %v", err)
	}
	return ref
}

func TestPage_Clamps(t *testing.T) {
	tests := []struct {
		limit, offset       int
		wantLimit, wantOffs int
	}{
		{0, 0, DefaultListLimit, 0},
		{-5, -3, DefaultListLimit, 0},
		{500, 10, MaxListLimit, 10},
		{7, 2, 7, 2},
	}
	for _, tc := range tests {
		p := page(tc.limit, tc.offset)
		if p.Limit != tc.wantLimit || p.Offset != tc.wantOffs {
			t.Errorf("page(%d, %d) = %+v, want limit %d offset %d", tc.limit, tc.offset, p, tc.wantLimit, tc.wantOffs)
		}
	}
}

func TestPaginate_HasMore(t *testing.T) {
	p := db.Page{Limit: 2, Offset: 0}
	if got := paginate(p, 2, 3); !got.HasMore || got.Total != 3 {
		t.Errorf("paginate = %+v, want HasMore with total 3", got)
	}
	p.Offset = 2
	if got := paginate(p, 1, 3); got.HasMore {
		t.Errorf("paginate on last page = %+v, want HasMore false", got)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID failed: %v", err)
		}
		if len(id) != 26 {
			t.Fatalf("len(id) = %d, want 26", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
