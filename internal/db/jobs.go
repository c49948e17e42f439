package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/model"
)

const jobColumns = `id, upload_id, target, status, log, archive_path, created_at, updated_at`

// JobFilter narrows ListJobs. Empty fields match everything.
type JobFilter struct {
	UploadID string
	Status   model.JobStatus
	Target   model.Target
}

// InsertJob stores a new conversion job.
func InsertJob(ctx context.Context, db *sql.DB, j *model.Job) error {
	query := `INSERT INTO jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		j.ID, j.UploadID, string(j.Target), string(j.Status), j.Log,
		toNullString(j.ArchivePath), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return errors.NewNotFound("upload", j.UploadID)
		}
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func GetJob(ctx context.Context, db *sql.DB, id string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	j, err := scanJob(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("job", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return j, nil
}

// ListJobs returns jobs newest first and the total count of matching rows.
func ListJobs(ctx context.Context, db *sql.DB, filter JobFilter, page Page) ([]model.Job, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.UploadID != "" {
		where += " AND upload_id = ?"
		args = append(args, filter.UploadID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Target != "" {
		where += " AND target = ?"
		args = append(args, string(filter.Target))
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return jobs, total, nil
}

// ListJobArchives returns the archive paths of every job belonging to an upload.
func ListJobArchives(ctx context.Context, db *sql.DB, uploadID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT archive_path FROM jobs WHERE upload_id = ? AND archive_path IS NOT NULL AND archive_path != ''`,
		uploadID,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.NewInternal(err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return paths, nil
}

// UpdateJobState writes status, log and archive reference in one statement.
func UpdateJobState(ctx context.Context, db *sql.DB, j *model.Job) error {
	result, err := db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, log = ?, archive_path = ?, updated_at = ? WHERE id = ?`,
		string(j.Status), j.Log, toNullString(j.ArchivePath), j.UpdatedAt, j.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireAffected(result, "job", j.ID)
}

// FinishJob records a RUNNING job's terminal status, log and archive. It
// reports false, writing nothing, when the job is no longer RUNNING.
func FinishJob(ctx context.Context, db *sql.DB, j *model.Job) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, log = ?, archive_path = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(j.Status), j.Log, toNullString(j.ArchivePath), j.UpdatedAt, j.ID, string(model.JobRunning),
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n == 1, nil
}

// TransitionJob moves a job from one status to another only if it is
// currently in the expected status. Reports whether the row was claimed.
func TransitionJob(ctx context.Context, db *sql.DB, id string, from, to model.JobStatus, log string, now int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, log = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), log, now, id, string(from),
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n == 1, nil
}

// FailStaleJobs marks every job in one of the given statuses as ERROR with
// the provided log. Returns the number of jobs affected.
func FailStaleJobs(ctx context.Context, db *sql.DB, statuses []model.JobStatus, log string, now int64) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	query := `UPDATE jobs SET status = ?, log = ?, updated_at = ? WHERE status IN (?` +
		repeatPlaceholders(len(statuses)-1) + `)`
	args := []any{string(model.JobError), log, now}
	for _, s := range statuses {
		args = append(args, string(s))
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// ListJobIDsByStatus returns IDs of jobs in the given status, oldest first.
func ListJobIDsByStatus(ctx context.Context, db *sql.DB, status model.JobStatus) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC`, string(status))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}

func repeatPlaceholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ", ?"
	}
	return s
}

func scanJob(row scanner) (*model.Job, error) {
	var (
		j       model.Job
		target  string
		status  string
		archive sql.NullString
	)
	if err := row.Scan(&j.ID, &j.UploadID, &target, &status, &j.Log, &archive, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Target = model.Target(target)
	j.Status = model.JobStatus(status)
	j.ArchivePath = fromNullString(archive)
	return &j, nil
}
