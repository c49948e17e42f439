package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"github.com/hpungsan/studio/internal/convert"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
)

// runningJob creates a job and claims it as a live converter would.
func runningJob(t *testing.T, env *cliEnv) string {
	t.Helper()
	ctx := context.Background()
	u, err := ops.CreateUpload(ctx, env.db, env.cfg, ops.CreateUploadInput{
		Filename: "shot.png",
		Image:    bytes.NewReader([]byte("png")),
	})
	if err != nil {
		t.Fatalf("CreateUpload failed: %v", err)
	}
	job, err := ops.CreateJob(ctx, env.db, nil, ops.CreateJobInput{Upload: u.ID, Target: model.TargetDjango})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if ok, err := db.TransitionJob(ctx, env.db, job.ID, model.JobQueued, model.JobRunning, convert.StartLog, 1); err != nil || !ok {
		t.Fatalf("TransitionJob = %v, %v", ok, err)
	}
	return job.ID
}

func jobStatus(t *testing.T, env *cliEnv, id string) model.JobStatus {
	t.Helper()
	j, err := db.GetJob(context.Background(), env.db, id)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	return j.Status
}

func TestStartJobs_SkipsRecoveryWhileOtherProcessHoldsLock(t *testing.T) {
	env := setupTestEnv(t)
	id := runningJob(t, env)

	other := flock.New(filepath.Join(env.dataDir, jobsLockFile))
	if err := other.RLock(); err != nil {
		t.Fatalf("RLock failed: %v", err)
	}

	release, err := startJobs(context.Background(), env, nil)
	if err != nil {
		t.Fatalf("startJobs failed: %v", err)
	}
	if got := jobStatus(t, env, id); got != model.JobRunning {
		t.Errorf("status = %s, want RUNNING while another process holds the lock", got)
	}
	release()
	_ = other.Unlock()

	release, err = startJobs(context.Background(), env, nil)
	if err != nil {
		t.Fatalf("startJobs failed: %v", err)
	}
	defer release()
	j, err := db.GetJob(context.Background(), env.db, id)
	if err != nil {
		t.Fatal(err)
	}
	if j.Status != model.JobError || j.Log != convert.InterruptedLog {
		t.Errorf("job = %s %q, want ERROR with interrupted log", j.Status, j.Log)
	}
}

func TestStartJobs_HoldsSharedLock(t *testing.T) {
	env := setupTestEnv(t)

	release, err := startJobs(context.Background(), env, nil)
	if err != nil {
		t.Fatalf("startJobs failed: %v", err)
	}

	excl := flock.New(filepath.Join(env.dataDir, jobsLockFile))
	ok, err := excl.TryLock()
	if err != nil || ok {
		t.Fatalf("exclusive TryLock = %v, %v; want false while jobs are live", ok, err)
	}
	release()

	ok, err = excl.TryLock()
	if err != nil || !ok {
		t.Errorf("exclusive TryLock after release = %v, %v; want true", ok, err)
	}
	_ = excl.Unlock()
}

func TestCLIJobsCreate_LeavesOtherRunningJobs(t *testing.T) {
	env := setupTestEnv(t)
	id := runningJob(t, env)

	u := mustRun[model.Upload](t, env, "uploads", "add", writeFile(t, t.TempDir(), "home.png", "png"))
	job := mustRun[model.Job](t, env, "jobs", "create", "--upload", u.ID, "--target", "nextjs")
	if job.Status != model.JobSuccess {
		t.Errorf("new job status = %s", job.Status)
	}
	if got := jobStatus(t, env, id); got != model.JobRunning {
		t.Errorf("other job status = %s, want RUNNING", got)
	}
}
