package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"ShotTrace/internal/domain/models"
	domrepo "ShotTrace/internal/domain/repository"
)

const maxPenaltyStrokes = 10

// Handler is the downstream the pipeline feeds.
type Handler interface {
	Handle(ctx context.Context, m *models.DeviceMessage) error
}

// DevicePipeline sits between the device websocket and round assembly.
// It validates frames, throttles location samples per round, and buffers
// frames the downstream rejected so they can be retried.
type DevicePipeline struct {
	next     Handler
	metrics  domrepo.Metrics
	maxRate  int // location samples per second per round
	bufSize  int
	bufCh    chan *models.DeviceMessage
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time
	// optional frame rewrite, e.g. clock-skew correction
	transform func(*models.DeviceMessage) *models.DeviceMessage
}

type PipelineOption func(*DevicePipeline)

// WithMaxSampleRate caps accepted location samples per second per round.
func WithMaxSampleRate(n int) PipelineOption {
	return func(p *DevicePipeline) {
		if n > 0 {
			p.maxRate = n
		}
	}
}

func WithBufferSize(n int) PipelineOption {
	return func(p *DevicePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithTransform(fn func(*models.DeviceMessage) *models.DeviceMessage) PipelineOption {
	return func(p *DevicePipeline) { p.transform = fn }
}

func NewDevicePipeline(next Handler, metrics domrepo.Metrics, opts ...PipelineOption) *DevicePipeline {
	p := &DevicePipeline{
		next:     next,
		metrics:  metrics,
		maxRate:  10,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.DeviceMessage, p.bufSize)
	return p
}

// Start launches background retry of buffered frames.
func (p *DevicePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case m := <-p.bufCh:
				if err := p.next.Handle(ctx, m); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_retry")
					select {
					case <-time.After(backoff):
					case <-p.stopCh:
						return
					}
					select {
					case p.bufCh <- m:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

func (p *DevicePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles and forwards one frame. Throttled samples are
// dropped without error.
func (p *DevicePipeline) Process(ctx context.Context, m *models.DeviceMessage) error {
	start := time.Now()
	if err := ValidateMessage(m); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		m = p.transform(m)
		if err := ValidateMessage(m); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	switch m.Type {
	case models.DeviceSample:
		if !p.allow(m.RoundID, m.Sample.Timestamp) {
			p.metrics.RecordError("pipeline_throttle")
			return nil
		}
	case models.DeviceRoundEnd:
		p.Forget(m.RoundID)
	}

	if err := p.next.Handle(ctx, m); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- m:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// Buffered returns the number of frames awaiting retry.
func (p *DevicePipeline) Buffered() int { return len(p.bufCh) }

// Tracked returns the number of rounds holding throttle state.
func (p *DevicePipeline) Tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lastSeen)
}

// ValidateMessage rejects frames the assembler cannot use.
func ValidateMessage(m *models.DeviceMessage) error {
	if m == nil {
		return fmt.Errorf("message nil")
	}
	if m.RoundID == "" {
		return fmt.Errorf("round id empty")
	}
	switch m.Type {
	case models.DeviceSample:
		s := m.Sample
		if s == nil {
			return fmt.Errorf("sample frame without sample")
		}
		if s.Timestamp.IsZero() {
			return fmt.Errorf("sample timestamp missing")
		}
		if math.Abs(s.Latitude) > 90 || math.Abs(s.Longitude) > 180 {
			return fmt.Errorf("sample coordinate out of range")
		}
		if s.HorizontalAccuracy < 0 || math.IsNaN(s.HorizontalAccuracy) {
			return fmt.Errorf("sample accuracy invalid")
		}
	case models.DeviceShot:
		if m.Shot == nil {
			return fmt.Errorf("shot frame without shot")
		}
		if m.Shot.EventTimestamp.IsZero() {
			return fmt.Errorf("shot timestamp missing")
		}
		if m.Shot.PenaltyStrokes < 0 || m.Shot.PenaltyStrokes > maxPenaltyStrokes {
			return fmt.Errorf("penalty strokes out of range")
		}
	case models.DeviceStability:
		w := m.Stability
		if w == nil {
			return fmt.Errorf("stability frame without window")
		}
		if w.To.Before(w.From) || w.Score < 0 || w.Score > 1 {
			return fmt.Errorf("stability window invalid")
		}
	case models.DeviceRoundEnd:
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// allow spaces accepted samples by their own timestamps, so a device that
// uploads a backlog in one burst is thinned the same way as a live one.
func (p *DevicePipeline) allow(roundID string, ts time.Time) bool {
	if p.maxRate <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[roundID]
	if ok {
		gap := ts.Sub(last)
		if gap < 0 {
			gap = -gap
		}
		if gap < time.Second/time.Duration(p.maxRate) {
			return false
		}
	}
	p.lastSeen[roundID] = ts
	return true
}

// Forget drops the throttle state of a round that ended or was evicted.
func (p *DevicePipeline) Forget(roundID string) {
	p.mu.Lock()
	delete(p.lastSeen, roundID)
	p.mu.Unlock()
}
