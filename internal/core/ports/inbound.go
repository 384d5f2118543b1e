package ports

import (
	"context"
	"io"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

// ResultImporter is the inbound contract for spreadsheet import.
type ResultImporter interface {
	Import(ctx context.Context, filename, sessionName string, merge bool, body io.Reader) (*domain.Session, int, error)
}

// SessionService is the inbound contract for session management.
type SessionService interface {
	List(ctx context.Context) ([]domain.Session, error)
	Get(ctx context.Context, id string, sortField domain.SortField, descending bool) (*domain.Session, []domain.LabResult, error)
	Rename(ctx context.Context, id, newName string) error
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, id string) (*domain.Summary, error)
}

// SampleSearcher is the inbound contract for cross-session barcode search.
type SampleSearcher interface {
	Search(ctx context.Context, barcode string) ([]domain.SearchHit, error)
}

// ExportService is the inbound contract for export job submission and reads.
type ExportService interface {
	Request(ctx context.Context, sessionID string, format domain.ExportFormat) (*domain.ExportJob, error)
	GetJob(ctx context.Context, id string) (*domain.ExportJob, error)
	OpenArtifact(ctx context.Context, id string) (*domain.ExportJob, io.ReadCloser, error)
}

// ExportProcessor is the inbound contract for asynchronous report rendering.
type ExportProcessor interface {
	RenderByID(ctx context.Context, jobID string) error
}
