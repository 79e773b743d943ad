package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShotTrace/internal/domain/models"
	domrepo "ShotTrace/internal/domain/repository"
	"ShotTrace/pkg/cache"
)

// RoundCache stores each round's latest analysis as one JSON document and
// holds the per-round processing lock, both on a cache.Service (redis in
// production, memory when redis is disabled).
type RoundCache struct {
	svc cache.Service
	ttl time.Duration
}

func NewRoundCache(svc cache.Service, ttl time.Duration) *RoundCache {
	return &RoundCache{svc: svc, ttl: ttl}
}

func roundKey(id string) string { return cache.Key("round", id) }

func lockKey(id string) string { return cache.Key("lock", "round", id) }

func (c *RoundCache) Put(ctx context.Context, a *models.RoundAnalysis) error {
	if a == nil || a.RoundID == "" {
		return fmt.Errorf("cache round: round id required")
	}
	return c.svc.Set(ctx, roundKey(a.RoundID), a, c.ttl)
}

// Get returns domrepo.ErrRoundNotFound on a miss.
func (c *RoundCache) Get(ctx context.Context, roundID string) (*models.RoundAnalysis, error) {
	var a models.RoundAnalysis
	if err := c.svc.Get(ctx, roundKey(roundID), &a); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrRoundNotFound
		}
		return nil, fmt.Errorf("cache get round: %w", err)
	}
	return &a, nil
}

func (c *RoundCache) Lock(ctx context.Context, roundID string, ttl time.Duration) (bool, error) {
	return c.svc.TryLock(ctx, lockKey(roundID), ttl)
}

func (c *RoundCache) Unlock(ctx context.Context, roundID string) error {
	return c.svc.Unlock(ctx, lockKey(roundID))
}

var _ domrepo.RoundCache = (*RoundCache)(nil)
