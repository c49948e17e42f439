package convert

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/metrics"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/ops"
)

// Executor runs a single job to completion.
type Executor interface {
	Run(ctx context.Context, jobID string) error
}

// Sync runs each job inside Submit, so the caller observes the final state.
type Sync struct {
	Exec Executor
}

// Submit runs the job before returning.
func (s Sync) Submit(ctx context.Context, jobID string) error {
	return s.Exec.Run(ctx, jobID)
}

// Pool runs jobs on a fixed set of background workers fed by a bounded queue.
type Pool struct {
	exec    Executor
	workers int
	logger  *slog.Logger
	metrics *metrics.Metrics

	queue chan string

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool returns a stopped pool. Workers and queue size default to 1.
func NewPool(exec Executor, workers, queueSize int, logger *slog.Logger, m *metrics.Metrics) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Pool{
		exec:    exec,
		workers: workers,
		logger:  logging.OrDiscard(logger).With("component", "conversion-pool"),
		metrics: m,
		queue:   make(chan string, queueSize),
	}
}

// Start launches the workers. They stop when ctx is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return stderrors.New("conversion pool already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.work(runCtx, i)
	}
	p.logger.Info("pool.start", "workers", p.workers, "queue_size", cap(p.queue))
	return nil
}

// Stop cancels the workers and waits for in-flight jobs to record their outcome.
// Jobs still queued stay QUEUED in the store and are picked up by Recover.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("pool.stop", "pending", len(p.queue))
}

// Submit enqueues a job, waiting for queue space until ctx is done.
func (p *Pool) Submit(ctx context.Context, jobID string) error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return errors.NewConflict("conversion pool is not running")
	}

	select {
	case p.queue <- jobID:
		p.metrics.SetQueueDepth(len(p.queue))
		p.logger.Debug("pool.enqueue", "job_id", jobID, "depth", len(p.queue))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work(ctx context.Context, worker int) {
	defer p.wg.Done()
	logger := p.logger.With("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-p.queue:
			p.metrics.SetQueueDepth(len(p.queue))
			if err := p.exec.Run(ctx, jobID); err != nil {
				if stderrors.Is(err, context.Canceled) {
					return
				}
				logger.Error("pool.run_failed", "job_id", jobID, "error", err)
			}
		}
	}
}

// InterruptedLog is written to jobs found RUNNING at startup.
const InterruptedLog = "CONVERSION ERROR: conversion was interrupted before it finished.\n\n" +
	"Technical Details:\nthe process stopped while the job was RUNNING"

// Recover marks jobs left RUNNING by a previous process as ERROR. When
// runner is non-nil, QUEUED jobs are then resubmitted to it. Callers must
// ensure no other process is converting, or its live jobs are failed too.
func Recover(ctx context.Context, database *sql.DB, runner ops.Runner, logger *slog.Logger) (failed int64, requeued int, err error) {
	logger = logging.OrDiscard(logger)

	failed, err = db.FailStaleJobs(ctx, database, []model.JobStatus{model.JobRunning}, InterruptedLog, time.Now().Unix())
	if err != nil {
		return 0, 0, err
	}
	if failed > 0 {
		logger.Warn("recover.stale_jobs_failed", "count", failed)
	}
	if runner == nil {
		return failed, 0, nil
	}
	requeued, err = Requeue(ctx, database, runner, logger)
	return failed, requeued, err
}

// Requeue submits every QUEUED job to runner, oldest first. Safe while other
// processes run jobs: only one claim of a QUEUED job succeeds.
func Requeue(ctx context.Context, database *sql.DB, runner ops.Runner, logger *slog.Logger) (int, error) {
	logger = logging.OrDiscard(logger)

	ids, err := db.ListJobIDsByStatus(ctx, database, model.JobQueued)
	if err != nil {
		return 0, err
	}
	requeued := 0
	for _, id := range ids {
		if err := runner.Submit(ctx, id); err != nil {
			return requeued, err
		}
		requeued++
	}
	if requeued > 0 {
		logger.Info("recover.requeued", "count", requeued)
	}
	return requeued, nil
}
