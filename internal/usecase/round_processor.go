package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
	domsvc "ShotTrace/internal/domain/service"
	applogger "ShotTrace/pkg/logger"
)

var ErrRoundInProgress = errors.New("round is already being processed")

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// RoundProcessor analyses a completed round, caches the result and routes
// it to the configured backend.
type RoundProcessor struct {
	analyzer      *RoundAnalyzer
	fetcher       domsvc.StabilityFetcher
	cache         drepo.RoundCache
	pub           drepo.Publisher
	store         drepo.RoundStorage
	metrics       drepo.Metrics
	backend       string
	lockTTL       time.Duration
	stabilityHalf time.Duration
	l             *applogger.Logger
}

type ProcessorOption func(*RoundProcessor)

// WithStabilityFetcher resolves stability windows remotely when a round
// arrives without them.
func WithStabilityFetcher(f domsvc.StabilityFetcher) ProcessorOption {
	return func(p *RoundProcessor) { p.fetcher = f }
}

func WithRoundCache(c drepo.RoundCache) ProcessorOption {
	return func(p *RoundProcessor) { p.cache = c }
}

func WithLockTTL(ttl time.Duration) ProcessorOption {
	return func(p *RoundProcessor) {
		if ttl > 0 {
			p.lockTTL = ttl
		}
	}
}

// WithFetchHalfWindow sets how far either side of each shot the stability
// service is asked to score.
func WithFetchHalfWindow(half time.Duration) ProcessorOption {
	return func(p *RoundProcessor) {
		if half > 0 {
			p.stabilityHalf = half
		}
	}
}

func NewRoundProcessor(
	analyzer *RoundAnalyzer,
	pub drepo.Publisher,
	store drepo.RoundStorage,
	metrics drepo.Metrics,
	backend string,
	opts ...ProcessorOption,
) *RoundProcessor {
	p := &RoundProcessor{
		analyzer:      analyzer,
		pub:           pub,
		store:         store,
		metrics:       metrics,
		backend:       backend,
		lockTTL:       2 * time.Minute,
		stabilityHalf: defaultStabilityHalf,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetLogger injects a structured logger.
func (p *RoundProcessor) SetLogger(l *applogger.Logger) { p.l = l }

// Process runs the pipeline for one round. The same round cannot be
// processed twice at once when a cache is configured.
func (p *RoundProcessor) Process(ctx context.Context, in models.RoundInput) (*models.RoundAnalysis, error) {
	if in.RoundID == "" {
		return nil, fmt.Errorf("round id required")
	}
	if len(in.Events) == 0 {
		return nil, fmt.Errorf("round %s has no shot events", in.RoundID)
	}
	start := time.Now()

	if p.cache != nil {
		ok, err := p.cache.Lock(ctx, in.RoundID, p.lockTTL)
		if err != nil {
			p.metrics.RecordError("round_lock")
			return nil, fmt.Errorf("lock round: %w", err)
		}
		if !ok {
			return nil, ErrRoundInProgress
		}
		defer func() {
			if err := p.cache.Unlock(context.WithoutCancel(ctx), in.RoundID); err != nil {
				p.warn("round unlock failed", in.RoundID, err)
			}
		}()
	}

	if p.fetcher != nil && len(in.Stability) == 0 {
		in.Stability = p.fetchStability(ctx, in)
	}

	analysis := p.analyzer.Analyze(in)
	p.recordAnalysis(analysis)

	if p.cache != nil {
		if err := p.cache.Put(ctx, analysis); err != nil {
			p.metrics.RecordError("round_cache")
			p.warn("round cache put failed", in.RoundID, err)
		}
	}

	if err := p.route(ctx, analysis); err != nil {
		p.metrics.RecordError("process")
		return analysis, fmt.Errorf("process round: %w", err)
	}

	p.metrics.RecordRoundAnalyzed(p.backend)
	p.metrics.RecordLatency("process_round", time.Since(start).Seconds())
	if p.l != nil {
		p.l.Info("round processed",
			applogger.String("round_id", in.RoundID),
			applogger.Int("shots", analysis.Summary.ShotCount),
			applogger.Float64("total_sg", analysis.Summary.TotalSG),
			applogger.Int("needs_review", analysis.Summary.Confidence.ReviewCount),
			applogger.Duration("elapsed_ms", time.Since(start)),
		)
	}
	return analysis, nil
}

func (p *RoundProcessor) route(ctx context.Context, a *models.RoundAnalysis) error {
	switch p.backend {
	case BackendKafka:
		return p.pub.Publish(ctx, a)
	case BackendClickHouse:
		return p.store.Store(ctx, a)
	default:
		return fmt.Errorf("unknown backend: %s", p.backend)
	}
}

// fetchStability degrades to no stability data when the pose service is
// unavailable; the classifier simply loses its putting-stance boost.
func (p *RoundProcessor) fetchStability(ctx context.Context, in models.RoundInput) []models.StabilityWindow {
	around := make([]time.Time, 0, len(in.Events))
	for _, ev := range in.Events {
		around = append(around, ev.EventTimestamp)
	}
	start := time.Now()
	ws, err := p.fetcher.Fetch(ctx, in.RoundID, around, p.stabilityHalf)
	p.metrics.RecordLatency("stability_fetch", time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordError("stability_fetch")
		p.warn("stability fetch failed", in.RoundID, err)
		return nil
	}
	return ws
}

func (p *RoundProcessor) recordAnalysis(a *models.RoundAnalysis) {
	review := 0
	for _, s := range a.Shots {
		if s.Confidence.NeedsReview {
			review++
		}
		if s.StrokesGained != nil && s.Category != nil {
			p.metrics.RecordStrokesGained(string(*s.Category), *s.StrokesGained)
		}
	}
	p.metrics.RecordShots(len(a.Shots), review)
}

func (p *RoundProcessor) warn(msg, roundID string, err error) {
	if p.l == nil {
		return
	}
	p.l.Warn(msg, applogger.String("round_id", roundID), applogger.Error(err))
}

// Close closes underlying resources if available.
func (p *RoundProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
