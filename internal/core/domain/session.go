package domain

import (
	"fmt"
	"strings"
	"time"
)

// Session is a named, persisted batch of imported results.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ImportDate   time.Time `json:"import_date"`
	LastModified time.Time `json:"last_modified"`
	RecordCount  int       `json:"record_count,omitempty"`
}

// SearchHit is one record matched by a global barcode search, tagged with the
// session it came from and its derived annotation.
type SearchHit struct {
	SessionName string    `json:"session_name"`
	Record      LabResult `json:"record"`
	Comment     string    `json:"comment"`
}

// ExportFormat names a report output format.
type ExportFormat string

const (
	ExportPDF   ExportFormat = "pdf"
	ExportExcel ExportFormat = "xlsx"
	ExportCSV   ExportFormat = "csv"
)

// ParseExportFormat validates a user-supplied format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportPDF, ExportExcel, ExportCSV:
		return f, nil
	}
	return "", WrapError(ErrInvalidInput, "parse export format", fmt.Errorf("unsupported format %q", s))
}

// ExportStatus is the lifecycle state of an export job.
type ExportStatus string

const (
	ExportPending   ExportStatus = "pending"
	ExportRendering ExportStatus = "rendering"
	ExportDone      ExportStatus = "done"
	ExportFailed    ExportStatus = "failed"
)

// ExportJob tracks one requested report render.
type ExportJob struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	Format      ExportFormat `json:"format"`
	Status      ExportStatus `json:"status"`
	ArtifactKey string       `json:"artifact_key,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Report is everything a renderer needs to produce one output document.
type Report struct {
	SessionName string
	GeneratedAt time.Time
	Records     []LabResult
	Settings    DisplaySettings
}
