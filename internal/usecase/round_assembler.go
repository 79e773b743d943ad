package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
	mid "ShotTrace/internal/middleware"
	applogger "ShotTrace/pkg/logger"

	"github.com/google/uuid"
)

// RoundRunner is what the assembler hands completed rounds to.
type RoundRunner interface {
	Process(ctx context.Context, in models.RoundInput) (*models.RoundAnalysis, error)
}

type roundBuffer struct {
	input   models.RoundInput
	updated time.Time
}

// RoundAssembler accumulates live device frames per round and runs the
// round once its round_end frame arrives.
type RoundAssembler struct {
	runner  RoundRunner
	metrics drepo.Metrics
	now     func() time.Time

	mu     sync.Mutex
	rounds map[string]*roundBuffer
	l      *applogger.Logger
}

func NewRoundAssembler(runner RoundRunner, metrics drepo.Metrics) *RoundAssembler {
	return &RoundAssembler{
		runner:  runner,
		metrics: metrics,
		now:     time.Now,
		rounds:  make(map[string]*roundBuffer),
	}
}

// SetLogger injects a structured logger.
func (a *RoundAssembler) SetLogger(l *applogger.Logger) { a.l = l }

// Handle buffers one frame. A round_end frame triggers processing; on
// failure the buffered round is kept so a retried frame can run it again.
func (a *RoundAssembler) Handle(ctx context.Context, m *models.DeviceMessage) error {
	if m.Type == models.DeviceRoundEnd {
		return a.finish(ctx, m.RoundID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	buf, ok := a.rounds[m.RoundID]
	if !ok {
		buf = &roundBuffer{input: models.RoundInput{RoundID: m.RoundID}}
		a.rounds[m.RoundID] = buf
	}
	buf.updated = a.now()

	switch m.Type {
	case models.DeviceSample:
		s := *m.Sample
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		buf.input.Samples = append(buf.input.Samples, s)
	case models.DeviceShot:
		ev := *m.Shot
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		buf.input.Events = append(buf.input.Events, ev)
	case models.DeviceStability:
		buf.input.Stability = append(buf.input.Stability, *m.Stability)
	default:
		return fmt.Errorf("unknown device message type %q", m.Type)
	}
	return nil
}

func (a *RoundAssembler) finish(ctx context.Context, roundID string) error {
	a.mu.Lock()
	buf, ok := a.rounds[roundID]
	var in models.RoundInput
	if ok {
		in = snapshot(buf.input)
	}
	a.mu.Unlock()

	if !ok || len(in.Events) == 0 {
		a.metrics.RecordError("round_end_empty")
		a.drop(roundID)
		return nil
	}

	_, err := a.runner.Process(ctx, in)
	switch {
	case err == nil:
		a.drop(roundID)
		return nil
	case errors.Is(err, ErrRoundInProgress):
		if a.l != nil {
			a.l.Warn("round already in progress, skipping", applogger.String("round_id", roundID))
		}
		return nil
	default:
		if a.l != nil {
			a.l.Error("round processing failed", applogger.String("round_id", roundID), applogger.Error(err))
		}
		return fmt.Errorf("finish round %s: %w", roundID, err)
	}
}

func (a *RoundAssembler) drop(roundID string) {
	a.mu.Lock()
	delete(a.rounds, roundID)
	a.mu.Unlock()
}

// EvictIdle forgets rounds with no frame for longer than maxIdle and
// returns the dropped round ids.
func (a *RoundAssembler) EvictIdle(maxIdle time.Duration) []string {
	cutoff := a.now().Add(-maxIdle)
	a.mu.Lock()
	defer a.mu.Unlock()
	var evicted []string
	for id, buf := range a.rounds {
		if buf.updated.Before(cutoff) {
			delete(a.rounds, id)
			evicted = append(evicted, id)
		}
	}
	if len(evicted) > 0 {
		a.metrics.RecordError("round_evicted_idle")
	}
	return evicted
}

// Pending returns the number of rounds still being assembled.
func (a *RoundAssembler) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rounds)
}

func snapshot(in models.RoundInput) models.RoundInput {
	return models.RoundInput{
		RoundID:   in.RoundID,
		Events:    append([]models.ShotEvent(nil), in.Events...),
		Samples:   append([]models.LocationSample(nil), in.Samples...),
		Stability: append([]models.StabilityWindow(nil), in.Stability...),
	}
}

var _ mid.Handler = (*RoundAssembler)(nil)
