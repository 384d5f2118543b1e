package postgres

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
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, job.ID, job.SessionID, string(job.Format), string(job.Status), job.ArtifactKey, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	return nil
}

func (r *ExportJobRepository) GetJob(ctx context.Context, id string) (*domain.ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT job_id, session_id, format, status, artifact_key, error_message, created_at, updated_at
FROM export_jobs
WHERE job_id = $1
`, id)

	var job domain.ExportJob
	var format, status string
	err := row.Scan(&job.ID, &job.SessionID, &format, &status, &job.ArtifactKey, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrExportNotFound, "get export job", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan export job: %w", err)
	}
	job.Format = domain.ExportFormat(format)
	job.Status = domain.ExportStatus(status)
	return &job, nil
}

func (r *ExportJobRepository) UpdateJobStatus(ctx context.Context, id string, status domain.ExportStatus, artifactKey, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE export_jobs
SET status = $2, artifact_key = CASE WHEN $3 = '' THEN artifact_key ELSE $3 END, error_message = $4, updated_at = $5
WHERE job_id = $1
`, id, string(status), artifactKey, errMessage, time.Now().UTC())
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
