// Package convert runs conversion jobs: it claims a queued job, generates
// the template pack for its upload, archives the pack and records the
// outcome on the job row.
package convert

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/studio/internal/archive"
	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/db"
	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/metrics"
	"github.com/hpungsan/studio/internal/model"
	"github.com/hpungsan/studio/internal/pack"
)

// StartLog is written when a job is claimed.
const StartLog = "Starting template conversion..."

// GenerateFunc renders a pack for an image. pack.Generate in production.
type GenerateFunc func(ctx context.Context, imagePath string, target model.Target, opts pack.Options) (*pack.Result, error)

// Converter executes conversion jobs against the store and media root.
type Converter struct {
	db       *sql.DB
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	generate GenerateFunc
	now      func() time.Time
}

// Option customizes a Converter.
type Option func(*Converter)

// WithGenerate replaces the pack generator.
func WithGenerate(fn GenerateFunc) Option {
	return func(c *Converter) { c.generate = fn }
}

// WithMetrics records conversion outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// New returns a Converter. A nil logger discards.
func New(database *sql.DB, cfg *config.Config, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{
		db:       database,
		cfg:      cfg,
		logger:   logging.OrDiscard(logger).With("component", "converter"),
		generate: pack.Generate,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one job. Only a QUEUED job is claimed; any other state is a
// no-op. Conversion failures are recorded on the job and do not produce an
// error; only store failures are returned.
func (c *Converter) Run(ctx context.Context, jobID string) error {
	started := c.now()
	claimed, err := db.TransitionJob(ctx, c.db, jobID, model.JobQueued, model.JobRunning, StartLog, started.Unix())
	if err != nil {
		return err
	}
	if !claimed {
		c.logger.Debug("convert.skip", "job_id", jobID, "reason", "not queued")
		return nil
	}

	job, err := db.GetJob(ctx, c.db, jobID)
	if err != nil {
		return err
	}
	logger := c.logger.With("job_id", job.ID, "upload_id", job.UploadID, "target", job.Target)
	logger.Info("convert.start")

	tl := newTimeline(started)
	ref, convErr := c.convert(ctx, job, tl)

	// The outcome is persisted even when ctx was cancelled mid-run.
	persistCtx := context.WithoutCancel(ctx)
	job.UpdatedAt = c.now().Unix()
	kind := errors.KindNone
	if convErr != nil {
		kind = errors.KindOf(convErr)
		job.Status = model.JobError
		job.Log = FailureLog(convErr, tl)
		logger.Error("convert.failed", "kind", kind, "error", convErr, "elapsed", tl.elapsed())
	} else {
		job.Status = model.JobSuccess
		job.ArchivePath = &ref
		job.Log = SuccessLog(job.Target)
		logger.Info("convert.ok", "archive", ref, "elapsed", tl.elapsed())
	}
	c.metrics.ObserveConversion(string(job.Target), string(job.Status), string(kind), c.now().Sub(started))

	finished, err := db.FinishJob(persistCtx, c.db, job)
	if err != nil {
		logger.Error("convert.persist_failed", "error", err)
		return err
	}
	if !finished {
		// Another process settled the job (crash recovery); its state stands.
		logger.Warn("convert.superseded")
		if convErr == nil {
			_ = os.Remove(c.cfg.MediaPath(ref))
		}
	}
	return nil
}

func (c *Converter) convert(ctx context.Context, job *model.Job, tl *timeline) (string, error) {
	upload, err := db.GetUpload(ctx, c.db, job.UploadID)
	if err != nil {
		tl.fail("resolve upload", err)
		return "", err
	}
	imagePath := c.cfg.MediaPath(upload.ImagePath)
	if _, err := os.Stat(imagePath); err != nil {
		if os.IsNotExist(err) {
			err = errors.FileNotFound("open image", imagePath)
		} else {
			err = errors.WithKind(errors.KindOf(err), "open image", err)
		}
		tl.fail("resolve image", err)
		return "", err
	}
	tl.ok("resolve image")

	result, err := c.generate(ctx, imagePath, job.Target, pack.Options{
		Encoding: c.cfg.PackEncoding,
		Logger:   c.logger,
	})
	if err != nil {
		tl.fail("generate pack", err)
		return "", err
	}
	defer result.Cleanup()
	tl.ok(fmt.Sprintf("generate pack (%s layout, %dx%d, %d files)",
		result.Layout, result.Dimensions.Width, result.Dimensions.Height, len(result.Files)))

	ref := config.MediaRef(config.BuildsSubdir, uuid.NewString()+".zip")
	n, err := archive.ZipDir(ctx, result.Dir, c.cfg.MediaPath(ref))
	if err != nil {
		tl.fail("archive pack", err)
		return "", err
	}
	tl.ok(fmt.Sprintf("archive pack (%d entries)", n))
	return ref, nil
}
