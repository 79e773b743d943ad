package models

import "time"

// RoundInput is everything the pipeline needs for one round.
type RoundInput struct {
	RoundID   string            `json:"round_id"`
	Events    []ShotEvent       `json:"events"`
	Samples   []LocationSample  `json:"samples"`
	Stability []StabilityWindow `json:"stability,omitempty"`
}

type ConfidenceStats struct {
	Mean        float64  `json:"mean"`
	Min         float64  `json:"min"`
	Max         float64  `json:"max"`
	HighCount   int      `json:"high_count"`
	ReviewCount int      `json:"review_count"`
	ReviewIDs   []string `json:"review_ids,omitempty"`
}

type InsightKind string

const (
	InsightWin  InsightKind = "win"
	InsightLeak InsightKind = "leak"
)

type InsightCard struct {
	Kind          InsightKind `json:"kind"`
	ShotID        string      `json:"shot_id"`
	HoleNumber    *int        `json:"hole_number,omitempty"`
	ShotNumber    int         `json:"shot_number"`
	Category      SGCategory  `json:"category"`
	StrokesGained float64     `json:"strokes_gained"`
	Title         string      `json:"title"`
	Tip           string      `json:"tip"`
}

type RoundSummary struct {
	RoundID         string                 `json:"round_id"`
	TotalSG         float64                `json:"total_sg"`
	AdjustedTotalSG float64                `json:"adjusted_total_sg"`
	ShotCount       int                    `json:"shot_count"`
	ScoredShotCount int                    `json:"scored_shot_count"`
	ByCategory      map[SGCategory]float64 `json:"by_category"`
	ByHole          map[int]float64        `json:"by_hole"`
	ByDistanceBand  map[string]float64     `json:"by_distance_band"`
	ByPuttingBand   map[string]float64     `json:"by_putting_band"`
	Confidence      ConfidenceStats        `json:"confidence"`
	Wins            []InsightCard          `json:"wins"`
	Leaks           []InsightCard          `json:"leaks"`
	Tips            []string               `json:"tips,omitempty"`
}

// RoundAnalysis is the stored, cached and published unit.
type RoundAnalysis struct {
	RoundID    string        `json:"round_id"`
	AnalyzedAt time.Time     `json:"analyzed_at"`
	Shots      []DerivedShot `json:"shots"`
	Summary    RoundSummary  `json:"summary"`
}
