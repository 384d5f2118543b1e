package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnostiq/qft-results/internal/core/domain"
	"github.com/diagnostiq/qft-results/internal/core/ports"
)

// SessionUseCase reads and manages persisted sessions.
type SessionUseCase struct {
	repo ports.SessionRepository
}

func NewSessionUseCase(repo ports.SessionRepository) *SessionUseCase {
	return &SessionUseCase{repo: repo}
}

func (uc *SessionUseCase) List(ctx context.Context) ([]domain.Session, error) {
	return uc.repo.ListSessions(ctx)
}

// Get returns a session and its records, optionally sorted.
func (uc *SessionUseCase) Get(
	ctx context.Context,
	id string,
	sortField domain.SortField,
	descending bool,
) (*domain.Session, []domain.LabResult, error) {
	session, err := uc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	records, err := uc.repo.ListRecords(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list records: %w", err)
	}
	if sortField != "" {
		domain.SortRecords(records, sortField, descending)
	}
	session.RecordCount = len(records)
	return session, records, nil
}

func (uc *SessionUseCase) Rename(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.WrapError(domain.ErrInvalidInput, "rename session", fmt.Errorf("empty name"))
	}
	if other, err := uc.repo.GetSessionByName(ctx, newName); err == nil && other.ID != id {
		return domain.WrapError(domain.ErrDuplicateName, "rename session", fmt.Errorf("session %q", newName))
	} else if err != nil && !domain.IsKind(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("check session name: %w", err)
	}
	return uc.repo.RenameSession(ctx, id, newName)
}

func (uc *SessionUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.DeleteSession(ctx, id)
}

// Summary aggregates a session's records; totals are derived from the same
// classification that annotates individual rows.
func (uc *SessionUseCase) Summary(ctx context.Context, id string) (*domain.Summary, error) {
	if _, err := uc.repo.GetSessionByID(ctx, id); err != nil {
		return nil, err
	}
	records, err := uc.repo.ListRecords(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	summary := domain.Summarize(records)
	return &summary, nil
}
