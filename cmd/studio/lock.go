package main

import (
	"context"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/hpungsan/studio/internal/convert"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/ops"
)

// jobsLockFile is held shared by every process that may run conversions.
// An exclusive hold means no other process has live jobs.
const jobsLockFile = "jobs.lock"

// holdJobsLock takes the shared jobs lock, waiting out a recovery in progress.
func holdJobsLock(env *cliEnv) (release func(), err error) {
	lock := flock.New(filepath.Join(env.dataDir, jobsLockFile))
	if err := lock.RLock(); err != nil {
		return nil, errors.NewIOFailure(err)
	}
	return func() { _ = lock.Unlock() }, nil
}

// startJobs prepares this process to run conversions. When no other studio
// process holds the jobs lock, jobs left RUNNING by a dead process are
// failed. The shared lock is then held until release, and QUEUED jobs are
// handed to requeue when it is non-nil.
func startJobs(ctx context.Context, env *cliEnv, requeue ops.Runner) (release func(), err error) {
	lock := flock.New(filepath.Join(env.dataDir, jobsLockFile))
	exclusive, err := lock.TryLock()
	if err != nil {
		return nil, errors.NewIOFailure(err)
	}
	if exclusive {
		_, _, rerr := convert.Recover(ctx, env.db, nil, env.logger)
		if err := lock.Unlock(); err != nil {
			return nil, errors.NewIOFailure(err)
		}
		if rerr != nil {
			return nil, rerr
		}
	} else {
		env.logger.Info("recover.skipped", "reason", "another studio process is running jobs")
	}

	release, err = holdJobsLock(env)
	if err != nil {
		return nil, err
	}
	if requeue != nil {
		if _, err := convert.Requeue(ctx, env.db, requeue, env.logger); err != nil {
			release()
			return nil, err
		}
	}
	return release, nil
}
