package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

type ExportJobRepository struct {
	db *sql.DB
}

func NewExportJobRepository(db *sql.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

func (r *ExportJobRepository) CreateJob(ctx context.Context, job *domain.ExportJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO export_jobs (job_id, session_id, format, status, artifact_key, error_message, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?)
`, job.ID, job.SessionID, string(job.Format), string(job.Status), job.ArtifactKey, job.Error,
		formatTime(job.CreatedAt), formatTime(job.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	return nil
}

func (r *ExportJobRepository) GetJob(ctx context.Context, id string) (*domain.ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT job_id, session_id, format, status, artifact_key, error_message, created_at, updated_at
FROM export_jobs
WHERE job_id = ?
`, id)

	var job domain.ExportJob
	var format, status, createdAt, updatedAt string
	err := row.Scan(&job.ID, &job.SessionID, &format, &status, &job.ArtifactKey, &job.Error, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrExportNotFound, "get export job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan export job: %w", err)
	}
	job.Format = domain.ExportFormat(format)
	job.Status = domain.ExportStatus(status)
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return &job, nil
}

func (r *ExportJobRepository) UpdateJobStatus(ctx context.Context, id string, status domain.ExportStatus, artifactKey, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE export_jobs
SET status = ?, artifact_key = CASE WHEN ? = '' THEN artifact_key ELSE ? END, error_message = ?, updated_at = ?
WHERE job_id = ?
`, string(status), artifactKey, artifactKey, errMessage, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update export job rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrExportNotFound, "update export job", fmt.Errorf("id=%s", id))
	}
	return nil
}
