package repository

import (
	"context"
	"errors"
	"time"

	"ShotTrace/internal/domain/models"
)

var ErrRoundNotFound = errors.New("round not found")

// DeviceStream is the live feed of frames from capture devices.
type DeviceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.DeviceMessage, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, a *models.RoundAnalysis) error
	Close() error
}

type RoundStorage interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, a *models.RoundAnalysis) error
	Get(ctx context.Context, roundID string) (*models.RoundAnalysis, error)
	Health(ctx context.Context) error
	Close() error
}

// RoundCache holds the latest analysis per round as a single document and
// guards a round against concurrent processing.
type RoundCache interface {
	Put(ctx context.Context, a *models.RoundAnalysis) error
	Get(ctx context.Context, roundID string) (*models.RoundAnalysis, error)
	Lock(ctx context.Context, roundID string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, roundID string) error
}

type Metrics interface {
	RecordRoundAnalyzed(backend string)
	RecordShots(total, needsReview int)
	RecordStrokesGained(category string, sg float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
