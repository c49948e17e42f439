package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

func stringPtr(s string) *string {
	return &s
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUpload(id string) *model.Upload {
	return &model.Upload{
		ID:        id,
		Title:     "landing",
		ImagePath: "templates/uploads/" + id + ".png",
		Status:    model.UploadReady,
		CreatedAt: time.Now().Unix(),
	}
}

func newTestJob(id, uploadID string, createdAt int64) *model.Job {
	return &model.Job{
		ID:        id,
		UploadID:  uploadID,
		Target:    model.TargetDjango,
		Status:    model.JobQueued,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestUploads_CRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	u := newTestUpload("01UP1")
	if err := InsertUpload(ctx, db, u); err != nil {
		t.Fatalf("InsertUpload failed: %v", err)
	}

	got, err := GetUpload(ctx, db, "01UP1")
	if err != nil {
		t.Fatalf("GetUpload failed: %v", err)
	}
	if got.Title != "landing" || got.Status != model.UploadReady {
		t.Errorf("GetUpload = %+v", got)
	}

	got.Status = model.UploadFailed
	got.Notes = "bad scan"
	if err := UpdateUpload(ctx, db, got); err != nil {
		t.Fatalf("UpdateUpload failed: %v", err)
	}
	got, _ = GetUpload(ctx, db, "01UP1")
	if got.Status != model.UploadFailed || got.Notes != "bad scan" {
		t.Errorf("after update = %+v", got)
	}

	list, total, err := ListUploads(ctx, db, model.UploadFailed, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListUploads failed: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("ListUploads total=%d len=%d, want 1/1", total, len(list))
	}

	if err := DeleteUpload(ctx, db, "01UP1"); err != nil {
		t.Fatalf("DeleteUpload failed: %v", err)
	}
	if _, err := GetUpload(ctx, db, "01UP1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetUpload after delete err = %v, want NOT_FOUND", err)
	}
	if err := DeleteUpload(ctx, db, "01UP1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second DeleteUpload err = %v, want NOT_FOUND", err)
	}
}

func TestDeleteUpload_CascadesJobs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InsertUpload(ctx, db, newTestUpload("01UP1")); err != nil {
		t.Fatalf("InsertUpload failed: %v", err)
	}
	for i, id := range []string{"01JOB1", "01JOB2"} {
		if err := InsertJob(ctx, db, newTestJob(id, "01UP1", int64(100+i))); err != nil {
			t.Fatalf("InsertJob(%s) failed: %v", id, err)
		}
	}

	if err := DeleteUpload(ctx, db, "01UP1"); err != nil {
		t.Fatalf("DeleteUpload failed: %v", err)
	}

	_, total, err := ListJobs(ctx, db, JobFilter{UploadID: "01UP1"}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if total != 0 {
		t.Errorf("jobs after upload delete = %d, want 0", total)
	}
}

func TestInsertJob_UnknownUpload(t *testing.T) {
	db := openTestDB(t)

	err := InsertJob(context.Background(), db, newTestJob("01JOB1", "missing", 1))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("InsertJob err = %v, want NOT_FOUND", err)
	}
}

func TestListJobs_NewestFirstWithFilters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InsertUpload(ctx, db, newTestUpload("01UP1")); err != nil {
		t.Fatalf("InsertUpload failed: %v", err)
	}
	old := newTestJob("01JOB1", "01UP1", 100)
	mid := newTestJob("01JOB2", "01UP1", 200)
	mid.Target = model.TargetNextJS
	recent := newTestJob("01JOB3", "01UP1", 300)
	for _, j := range []*model.Job{old, mid, recent} {
		if err := InsertJob(ctx, db, j); err != nil {
			t.Fatalf("InsertJob failed: %v", err)
		}
	}

	jobs, total, err := ListJobs(ctx, db, JobFilter{}, Page{Limit: 2})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if total != 3 || len(jobs) != 2 {
		t.Fatalf("total=%d len=%d, want 3/2", total, len(jobs))
	}
	if jobs[0].ID != "01JOB3" || jobs[1].ID != "01JOB2" {
		t.Errorf("order = %s,%s, want 01JOB3,01JOB2", jobs[0].ID, jobs[1].ID)
	}

	jobs, total, err = ListJobs(ctx, db, JobFilter{Target: model.TargetNextJS}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if total != 1 || jobs[0].ID != "01JOB2" {
		t.Errorf("target filter returned %d jobs", total)
	}
}

func TestTransitionJob_OnlyFromExpectedStatus(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InsertUpload(ctx, db, newTestUpload("01UP1")); err != nil {
		t.Fatalf("InsertUpload failed: %v", err)
	}
	if err := InsertJob(ctx, db, newTestJob("01JOB1", "01UP1", 1)); err != nil {
		t.Fatalf("InsertJob failed: %v", err)
	}

	ok, err := TransitionJob(ctx, db, "01JOB1", model.JobQueued, model.JobRunning, "Starting", 2)
	if err != nil || !ok {
		t.Fatalf("first TransitionJob = %v, %v; want true, nil", ok, err)
	}
	ok, err = TransitionJob(ctx, db, "01JOB1", model.JobQueued, model.JobRunning, "Starting", 3)
	if err != nil || ok {
		t.Errorf("second TransitionJob = %v, %v; want false, nil", ok, err)
	}

	j, err := GetJob(ctx, db, "01JOB1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if j.Status != model.JobRunning || j.Log != "Starting" || j.UpdatedAt != 2 {
		t.Errorf("job = %+v", j)
	}
}

func TestFinishJob_OnlyWhileRunning(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InsertUpload(ctx, db, newTestUpload("01UP1")); err != nil {
		t.Fatalf("InsertUpload failed: %v", err)
	}
	j := newTestJob("01JOB1", "01UP1", 1)
	if err := InsertJob(ctx, db, j); err != nil {
		t.Fatalf("InsertJob failed: %v", err)
	}

	j.Status = model.JobSuccess
	j.Log = "done"
	j.UpdatedAt = 2
	if ok, err := FinishJob(ctx, db, j); err != nil || ok {
		t.Fatalf("FinishJob on QUEUED = %v, %v; want false, nil", ok, err)
	}

	if ok, err := TransitionJob(ctx, db, "01JOB1", model.JobQueued, model.JobRunning, "Starting", 3); err != nil || !ok {
		t.Fatalf("TransitionJob = %v, %v", ok, err)
	}
	if n, err := FailStaleJobs(ctx, db, []model.JobStatus{model.JobRunning}, "interrupted", 4); err != nil || n != 1 {
		t.Fatalf("FailStaleJobs = %d, %v", n, err)
	}
	if ok, err := FinishJob(ctx, db, j); err != nil || ok {
		t.Fatalf("FinishJob after failure = %v, %v; want false, nil", ok, err)
	}

	got, err := GetJob(ctx, db, "01JOB1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != model.JobError || got.Log != "interrupted" {
		t.Errorf("job = %+v, want the ERROR state kept", got)
	}
}

func TestUpdateJobState_AttachesArchive(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InsertUpload(ctx, db, newTestUpload("01UP1")); err != nil {
		t.Fatalf("InsertUpload failed: %v", err)
	}
	j := newTestJob("01JOB1", "01UP1", 1)
	if err := InsertJob(ctx, db, j); err != nil {
		t.Fatalf("InsertJob failed: %v", err)
	}

	j.Status = model.JobSuccess
	j.Log = "done"
	j.ArchivePath = stringPtr("templates/builds/x.zip")
	j.UpdatedAt = 5
	if err := UpdateJobState(ctx, db, j); err != nil {
		t.Fatalf("UpdateJobState failed: %v", err)
	}

	got, _ := GetJob(ctx, db, "01JOB1")
	if !got.HasArchive() || *got.ArchivePath != "templates/builds/x.zip" {
		t.Errorf("ArchivePath = %v", got.ArchivePath)
	}

	archives, err := ListJobArchives(ctx, db, "01UP1")
	if err != nil {
		t.Fatalf("ListJobArchives failed: %v", err)
	}
	if len(archives) != 1 {
		t.Errorf("archives = %v, want 1 entry", archives)
	}
}

func TestFailStaleJobs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InsertUpload(ctx, db, newTestUpload("01UP1")); err != nil {
		t.Fatalf("InsertUpload failed: %v", err)
	}
	running := newTestJob("01JOB1", "01UP1", 1)
	running.Status = model.JobRunning
	done := newTestJob("01JOB2", "01UP1", 2)
	done.Status = model.JobSuccess
	for _, j := range []*model.Job{running, done} {
		if err := InsertJob(ctx, db, j); err != nil {
			t.Fatalf("InsertJob failed: %v", err)
		}
	}

	n, err := FailStaleJobs(ctx, db, []model.JobStatus{model.JobRunning}, "interrupted", 9)
	if err != nil {
		t.Fatalf("FailStaleJobs failed: %v", err)
	}
	if n != 1 {
		t.Errorf("FailStaleJobs affected %d, want 1", n)
	}

	got, _ := GetJob(ctx, db, "01JOB1")
	if got.Status != model.JobError || got.Log != "interrupted" {
		t.Errorf("running job = %+v", got)
	}
	got, _ = GetJob(ctx, db, "01JOB2")
	if got.Status != model.JobSuccess {
		t.Errorf("success job status = %s, want SUCCESS", got.Status)
	}
}

func TestLibraryItems_UniqueAndFilters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	item := &model.LibraryItem{
		ID:          "01LIB1",
		Name:        "Bistro",
		Target:      model.TargetDjango,
		Category:    "main-website",
		Subcategory: "homepage",
		Description: "Warm 50% layout",
		Tags:        []string{"food", "dark"},
		ArchivePath: "templates/library/01LIB1.zip",
		CreatedAt:   1,
	}
	if err := InsertLibraryItem(ctx, db, item); err != nil {
		t.Fatalf("InsertLibraryItem failed: %v", err)
	}

	dup := *item
	dup.ID = "01LIB2"
	if err := InsertLibraryItem(ctx, db, &dup); err != ErrUniqueConstraint {
		t.Errorf("duplicate insert err = %v, want ErrUniqueConstraint", err)
	}

	other := *item
	other.ID = "01LIB3"
	other.Target = model.TargetNextJS
	other.Tags = nil
	other.Description = ""
	if err := InsertLibraryItem(ctx, db, &other); err != nil {
		t.Fatalf("same name for other target should be allowed: %v", err)
	}

	items, total, err := ListLibraryItems(ctx, db, LibraryFilter{Query: "50%"}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListLibraryItems failed: %v", err)
	}
	if total != 1 || items[0].ID != "01LIB1" {
		t.Errorf("query filter total=%d, want only 01LIB1", total)
	}

	items, _, err = ListLibraryItems(ctx, db, LibraryFilter{Target: model.TargetNextJS}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListLibraryItems failed: %v", err)
	}
	if len(items) != 1 || items[0].Tags == nil {
		t.Errorf("target filter = %+v, want one item with non-nil tags", items)
	}

	counts, err := CountLibraryByCategory(ctx, db)
	if err != nil {
		t.Fatalf("CountLibraryByCategory failed: %v", err)
	}
	if len(counts) != 1 || counts[0].Count != 2 {
		t.Errorf("counts = %+v", counts)
	}

	if err := DeleteLibraryItem(ctx, db, "01LIB1"); err != nil {
		t.Fatalf("DeleteLibraryItem failed: %v", err)
	}
	if _, err := GetLibraryItem(ctx, db, "01LIB1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetLibraryItem after delete err = %v", err)
	}
}

func TestWebsiteTemplates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	wt := &model.WebsiteTemplate{
		ID:        "01WT1",
		Name:      "Cafe home",
		Category:  "homepage",
		Sections:  []string{"hero", "menu"},
		CreatedAt: 1,
	}
	if err := InsertWebsiteTemplate(ctx, db, wt); err != nil {
		t.Fatalf("InsertWebsiteTemplate failed: %v", err)
	}

	got, err := GetWebsiteTemplate(ctx, db, "01WT1")
	if err != nil {
		t.Fatalf("GetWebsiteTemplate failed: %v", err)
	}
	if len(got.Sections) != 2 || got.Sections[1] != "menu" {
		t.Errorf("Sections = %v", got.Sections)
	}

	list, err := ListWebsiteTemplates(ctx, db, "about")
	if err != nil {
		t.Fatalf("ListWebsiteTemplates failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("about templates = %d, want 0", len(list))
	}

	if err := DeleteWebsiteTemplate(ctx, db, "01WT1"); err != nil {
		t.Fatalf("DeleteWebsiteTemplate failed: %v", err)
	}
}
