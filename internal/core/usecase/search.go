package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnostiq/qft-results/internal/core/domain"
	"github.com/diagnostiq/qft-results/internal/core/ports"
)

// SearchUseCase looks a barcode up across every stored session.
type SearchUseCase struct {
	repo ports.SessionRepository
}

func NewSearchUseCase(repo ports.SessionRepository) *SearchUseCase {
	return &SearchUseCase{repo: repo}
}

// Search returns all records whose barcode contains term, newest session
// first, each annotated with its classification comment.
func (uc *SearchUseCase) Search(ctx context.Context, term string) ([]domain.SearchHit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("empty barcode term"))
	}

	hits, err := uc.repo.SearchByBarcode(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search by barcode: %w", err)
	}
	for i := range hits {
		hits[i].Comment = domain.Comment(hits[i].Record)
	}
	return hits, nil
}
