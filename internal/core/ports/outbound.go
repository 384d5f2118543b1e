package ports

import (
	"context"
	"io"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

// SessionRepository persists named result sessions and their records.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session, records []domain.LabResult) error
	MergeRecords(ctx context.Context, sessionID string, records []domain.LabResult) (int, error)
	GetSessionByID(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByName(ctx context.Context, name string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.Session, error)
	ListRecords(ctx context.Context, sessionID string) ([]domain.LabResult, error)
	RenameSession(ctx context.Context, id, newName string) error
	DeleteSession(ctx context.Context, id string) error
	SearchByBarcode(ctx context.Context, term string) ([]domain.SearchHit, error)
}

// ExportJobRepository tracks export job lifecycle state.
type ExportJobRepository interface {
	CreateJob(ctx context.Context, job *domain.ExportJob) error
	GetJob(ctx context.Context, id string) (*domain.ExportJob, error)
	UpdateJobStatus(ctx context.Context, id string, status domain.ExportStatus, artifactKey, errMessage string) error
}

// MessageQueue publishes/consumes export render requests.
type MessageQueue interface {
	PublishExportRequested(ctx context.Context, jobID string) error
	SubscribeExportRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// ArtifactStore stores rendered report artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ResultParser turns an uploaded spreadsheet into lab result records.
type ResultParser interface {
	Parse(ctx context.Context, filename string, r io.Reader) ([]domain.LabResult, error)
}

// ReportRenderer writes one report format for a record set.
type ReportRenderer interface {
	Format() domain.ExportFormat
	Render(ctx context.Context, report domain.Report, w io.Writer) error
}
