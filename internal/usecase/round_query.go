package usecase

import (
	"context"
	"fmt"

	"ShotTrace/internal/domain/models"
	domrepo "ShotTrace/internal/domain/repository"
)

// RoundQueryUseCase looks up a stored analysis, cache first.
type RoundQueryUseCase struct {
	cache domrepo.RoundCache
	store domrepo.RoundStorage
}

func NewRoundQueryUseCase(c domrepo.RoundCache, store domrepo.RoundStorage) *RoundQueryUseCase {
	return &RoundQueryUseCase{cache: c, store: store}
}

// GetRound falls through to storage on any cache failure, then refills the
// cache.
func (uc *RoundQueryUseCase) GetRound(ctx context.Context, roundID string) (*models.RoundAnalysis, error) {
	if roundID == "" {
		return nil, fmt.Errorf("round id required")
	}
	if uc.cache != nil {
		if a, err := uc.cache.Get(ctx, roundID); err == nil {
			return a, nil
		}
	}
	if uc.store == nil {
		return nil, domrepo.ErrRoundNotFound
	}
	a, err := uc.store.Get(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("get round: %w", err)
	}
	if uc.cache != nil {
		_ = uc.cache.Put(ctx, a)
	}
	return a, nil
}
