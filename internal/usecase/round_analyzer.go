package usecase

import (
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
	"ShotTrace/internal/services/stability"
	"ShotTrace/internal/services/strokes"
)

// RoundAnalyzer runs the full pipeline for one round: derive, score and
// aggregate. It performs no I/O. Each call builds its own deriver, so
// hole-resolver state never leaks between rounds.
type RoundAnalyzer struct {
	course     drepo.CourseGeometry
	calculator *strokes.Calculator
	aggregator *RoundAggregator
	deriveOpts []DeriverOption
	now        func() time.Time
}

func NewRoundAnalyzer(geo drepo.CourseGeometry, model *strokes.Model, opts ...DeriverOption) *RoundAnalyzer {
	return &RoundAnalyzer{
		course:     geo,
		calculator: strokes.NewCalculator(model),
		aggregator: NewRoundAggregator(),
		deriveOpts: opts,
		now:        time.Now,
	}
}

func (a *RoundAnalyzer) Analyze(in models.RoundInput) *models.RoundAnalysis {
	var provider drepo.StabilityProvider
	if len(in.Stability) > 0 {
		provider = stability.NewTable(in.Stability)
	}

	shots := NewShotDeriver(a.course, a.deriveOpts...).Derive(in.Events, in.Samples, provider)
	a.calculator.Apply(shots)

	return &models.RoundAnalysis{
		RoundID:    in.RoundID,
		AnalyzedAt: a.now().UTC(),
		Shots:      shots,
		Summary:    a.aggregator.Aggregate(in.RoundID, shots),
	}
}
