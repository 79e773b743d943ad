package service

import (
	"context"
	"time"

	"ShotTrace/internal/domain/models"
)

// StabilityFetcher resolves motion-stability windows from the pose service
// before a round is analysed.
type StabilityFetcher interface {
	Fetch(ctx context.Context, roundID string, around []time.Time, halfWindow time.Duration) ([]models.StabilityWindow, error)
}
