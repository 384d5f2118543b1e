package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/diagnostiq/qft-results/internal/core/domain"
	"github.com/diagnostiq/qft-results/internal/core/ports"
)

// ExportUseCase accepts export requests and hands them to the render worker
// through the queue.
type ExportUseCase struct {
	sessions  ports.SessionRepository
	jobs      ports.ExportJobRepository
	queue     ports.MessageQueue
	artifacts ports.ArtifactStore
}

func NewExportUseCase(
	sessions ports.SessionRepository,
	jobs ports.ExportJobRepository,
	queue ports.MessageQueue,
	artifacts ports.ArtifactStore,
) *ExportUseCase {
	return &ExportUseCase{
		sessions:  sessions,
		jobs:      jobs,
		queue:     queue,
		artifacts: artifacts,
	}
}

// Request records a pending export job for the session and publishes it.
func (uc *ExportUseCase) Request(ctx context.Context, sessionID string, format domain.ExportFormat) (*domain.ExportJob, error) {
	if _, err := uc.sessions.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.ExportJob{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Format:    format,
		Status:    domain.ExportPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}

	if err := uc.queue.PublishExportRequested(ctx, job.ID); err != nil {
		_ = uc.jobs.UpdateJobStatus(ctx, job.ID, domain.ExportFailed, "", "publish failed: "+err.Error())
		return nil, fmt.Errorf("publish export request: %w", err)
	}
	return job, nil
}

func (uc *ExportUseCase) GetJob(ctx context.Context, id string) (*domain.ExportJob, error) {
	return uc.jobs.GetJob(ctx, id)
}

// OpenArtifact streams the rendered report of a finished job.
func (uc *ExportUseCase) OpenArtifact(ctx context.Context, id string) (*domain.ExportJob, io.ReadCloser, error) {
	job, err := uc.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != domain.ExportDone || job.ArtifactKey == "" {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "open artifact",
			fmt.Errorf("job %s is %s", id, job.Status))
	}
	rc, err := uc.artifacts.Open(ctx, job.ArtifactKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open artifact %s: %w", job.ArtifactKey, err)
	}
	return job, rc, nil
}
