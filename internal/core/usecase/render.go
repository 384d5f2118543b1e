package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/diagnostiq/qft-results/internal/core/domain"
	"github.com/diagnostiq/qft-results/internal/core/ports"
)

// RenderExportUseCase is the worker side of the export pipeline: it loads a
// queued job, renders the session through the matching renderer, and stores
// the artifact. A render failure marks the job failed and is reported to the
// subscriber loop; it never takes the worker down.
type RenderExportUseCase struct {
	sessions  ports.SessionRepository
	jobs      ports.ExportJobRepository
	renderers map[domain.ExportFormat]ports.ReportRenderer
	artifacts ports.ArtifactStore
	settings  domain.DisplaySettings
}

func NewRenderExportUseCase(
	sessions ports.SessionRepository,
	jobs ports.ExportJobRepository,
	renderers []ports.ReportRenderer,
	artifacts ports.ArtifactStore,
	settings domain.DisplaySettings,
) *RenderExportUseCase {
	byFormat := make(map[domain.ExportFormat]ports.ReportRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &RenderExportUseCase{
		sessions:  sessions,
		jobs:      jobs,
		renderers: byFormat,
		artifacts: artifacts,
		settings:  settings,
	}
}

func (uc *RenderExportUseCase) RenderByID(ctx context.Context, jobID string) error {
	job, err := uc.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == domain.ExportDone {
		return nil
	}

	if err := uc.jobs.UpdateJobStatus(ctx, job.ID, domain.ExportRendering, "", ""); err != nil {
		return fmt.Errorf("mark rendering: %w", err)
	}

	artifactKey, err := uc.render(ctx, job)
	if err != nil {
		_ = uc.jobs.UpdateJobStatus(ctx, job.ID, domain.ExportFailed, "", err.Error())
		return fmt.Errorf("render job %s: %w", job.ID, err)
	}

	if err := uc.jobs.UpdateJobStatus(ctx, job.ID, domain.ExportDone, artifactKey, ""); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	return nil
}

func (uc *RenderExportUseCase) render(ctx context.Context, job *domain.ExportJob) (string, error) {
	renderer, ok := uc.renderers[job.Format]
	if !ok {
		return "", fmt.Errorf("no renderer for format %s", job.Format)
	}

	session, err := uc.sessions.GetSessionByID(ctx, job.SessionID)
	if err != nil {
		return "", err
	}
	records, err := uc.sessions.ListRecords(ctx, job.SessionID)
	if err != nil {
		return "", fmt.Errorf("list records: %w", err)
	}

	report := domain.Report{
		SessionName: session.Name,
		GeneratedAt: time.Now().UTC(),
		Records:     records,
		Settings:    uc.settings,
	}

	var buf bytes.Buffer
	if err := renderer.Render(ctx, report, &buf); err != nil {
		return "", fmt.Errorf("render %s: %w", job.Format, err)
	}

	key := fmt.Sprintf("%s.%s", job.ID, job.Format)
	if err := uc.artifacts.Save(ctx, key, &buf); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	return key, nil
}
