package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diagnostiq/qft-results/internal/core/domain"
	"github.com/diagnostiq/qft-results/internal/core/ports"
)

// ImportResultsUseCase turns an uploaded spreadsheet into a persisted
// session, either creating a new one or merging new barcodes into an
// existing one.
type ImportResultsUseCase struct {
	repo   ports.SessionRepository
	parser ports.ResultParser
}

func NewImportResultsUseCase(repo ports.SessionRepository, parser ports.ResultParser) *ImportResultsUseCase {
	return &ImportResultsUseCase{repo: repo, parser: parser}
}

// Import parses the upload and saves it under sessionName. With merge set,
// records whose barcode already exists in the named session are skipped and
// the remainder appended. Returns the session and the number of records
// stored.
func (uc *ImportResultsUseCase) Import(
	ctx context.Context,
	filename, sessionName string,
	merge bool,
	body io.Reader,
) (*domain.Session, int, error) {
	sessionName = strings.TrimSpace(sessionName)
	if sessionName == "" {
		sessionName = defaultSessionName(filename)
	}

	records, err := uc.parser.Parse(ctx, filename, body)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", filename, err)
	}
	if len(records) == 0 {
		return nil, 0, domain.WrapError(domain.ErrInvalidInput, "import", fmt.Errorf("no data rows in %s", filename))
	}

	if merge {
		existing, err := uc.repo.GetSessionByName(ctx, sessionName)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve merge target: %w", err)
		}
		added, err := uc.repo.MergeRecords(ctx, existing.ID, records)
		if err != nil {
			return nil, 0, fmt.Errorf("merge records: %w", err)
		}
		merged, err := uc.repo.GetSessionByID(ctx, existing.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("reload session: %w", err)
		}
		return merged, added, nil
	}

	if _, err := uc.repo.GetSessionByName(ctx, sessionName); err == nil {
		return nil, 0, domain.WrapError(domain.ErrDuplicateName, "import", fmt.Errorf("session %q", sessionName))
	} else if !domain.IsKind(err, domain.ErrSessionNotFound) {
		return nil, 0, fmt.Errorf("check session name: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:           uuid.NewString(),
		Name:         sessionName,
		ImportDate:   now,
		LastModified: now,
		RecordCount:  len(records),
	}
	if err := uc.repo.CreateSession(ctx, session, records); err != nil {
		return nil, 0, fmt.Errorf("create session: %w", err)
	}
	return session, len(records), nil
}

// defaultSessionName derives a session name from the upload, the way the
// viewer suggested names from the imported file.
func defaultSessionName(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if strings.TrimSpace(base) == "" {
		base = "Session"
	}
	return fmt.Sprintf("%s_%s", base, time.Now().UTC().Format("20060102_150405"))
}
