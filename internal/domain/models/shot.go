package models

import (
	"math"
	"time"
)

type Lie string

const (
	LieTee       Lie = "tee"
	LieFairway   Lie = "fairway"
	LieRough     Lie = "rough"
	LieDeepRough Lie = "deepRough"
	LieBunker    Lie = "bunker"
	LieGreen     Lie = "green"
	LieFringe    Lie = "fringe"
	LieRecovery  Lie = "recovery"
	LieUnknown   Lie = "unknown"
)

// Lies lists every lie the model knows about.
var Lies = []Lie{LieTee, LieFairway, LieRough, LieDeepRough, LieBunker, LieGreen, LieFringe, LieRecovery, LieUnknown}

func (l Lie) Valid() bool {
	for _, x := range Lies {
		if x == l {
			return true
		}
	}
	return false
}

type ShotType string

const (
	ShotDrive    ShotType = "drive"
	ShotApproach ShotType = "approach"
	ShotChip     ShotType = "chip"
	ShotPitch    ShotType = "pitch"
	ShotPutt     ShotType = "putt"
	ShotBunker   ShotType = "bunkerShot"
	ShotUnknown  ShotType = "unknown"
)

type SGCategory string

const (
	CategoryOffTheTee SGCategory = "offTheTee"
	CategoryApproach  SGCategory = "approach"
	CategoryShortGame SGCategory = "shortGame"
	CategoryPutting   SGCategory = "putting"
)

// Categories in reporting order.
var Categories = []SGCategory{CategoryOffTheTee, CategoryApproach, CategoryShortGame, CategoryPutting}

type DistanceUnit string

const (
	UnitYards DistanceUnit = "yards"
	UnitFeet  DistanceUnit = "feet"
)

// FeetPerYard is the conversion used whenever a distance switches to
// on-green units.
const FeetPerYard = 3.0

type EndStateSource string

const (
	EndFromNextShot EndStateSource = "nextShotStartUsed"
	EndFromFallback EndStateSource = "fallbackUsed"
	EndHoledOut     EndStateSource = "holedOut"
)

// ShotEvent marks that a swing happened. Offsets are seconds into the
// recorded clip.
type ShotEvent struct {
	ID               string    `json:"id"`
	EventTimestamp   time.Time `json:"event_timestamp" validate:"required"`
	ClipStartSeconds *float64  `json:"clip_start_seconds,omitempty" validate:"omitempty,gte=0"`
	ImpactSeconds    *float64  `json:"impact_seconds,omitempty" validate:"omitempty,gte=0"`
	ClipEndSeconds   *float64  `json:"clip_end_seconds,omitempty" validate:"omitempty,gte=0"`
	// Optional manual annotations from the capture app.
	ShotTypeHint   *ShotType `json:"shot_type_hint,omitempty"`
	PenaltyStrokes int       `json:"penalty_strokes,omitempty" validate:"gte=0,lte=10"`
}

// ShotState is where the ball was at one end of a shot.
type ShotState struct {
	Location        Provenance[LocationSample] `json:"location"`
	DistanceToPin   Provenance[float64]        `json:"distance_to_pin"`
	DistanceUnit    DistanceUnit               `json:"distance_unit"`
	Lie             Provenance[Lie]            `json:"lie"`
	ExpectedStrokes *float64                   `json:"expected_strokes,omitempty"`
	EndStateSource  EndStateSource             `json:"end_state_source,omitempty"`
}

// DistanceYards returns the distance to the pin in yards regardless of
// the unit it is stored in.
func (s ShotState) DistanceYards() (float64, bool) {
	d, ok := s.DistanceToPin.Get()
	if !ok {
		return 0, false
	}
	if s.DistanceUnit == UnitFeet {
		return d / FeetPerYard, true
	}
	return d, true
}

// Audit rules.
const (
	AuditFallbackTiming    = "fallback_timing"
	AuditHoledOut          = "holed_out_transition"
	AuditDistanceIncrease  = "distance_increase"
	AuditHoleDiscontinuity = "hole_discontinuity"
	AuditNoLocation        = "no_location"
)

type AuditEvent struct {
	Rule    string    `json:"rule"`
	Message string    `json:"message"`
	ShotID  string    `json:"shot_id"`
	At      time.Time `json:"at"`
}

// Confidence thresholds. These are fixed contracts.
const (
	HighConfidenceThreshold = 0.7
	ReviewThreshold         = 0.5
)

type ConfidenceScore struct {
	Hole             float64 `json:"hole"`
	StartLocation    float64 `json:"start_location"`
	EndLocation      float64 `json:"end_location"`
	Distance         float64 `json:"distance"`
	Lie              float64 `json:"lie"`
	ShotType         float64 `json:"shot_type"`
	Overall          float64 `json:"overall"`
	IsHighConfidence bool    `json:"is_high_confidence"`
	NeedsReview      bool    `json:"needs_review"`
}

// NewConfidenceScore fills Overall and the two flags from the sub-scores.
// Overall is rounded to 6 decimals so that equal sub-scores of 0.7 land on
// 0.7 exactly.
func NewConfidenceScore(hole, startLoc, endLoc, distance, lie, shotType float64) ConfidenceScore {
	c := ConfidenceScore{
		Hole:          hole,
		StartLocation: startLoc,
		EndLocation:   endLoc,
		Distance:      distance,
		Lie:           lie,
		ShotType:      shotType,
	}
	mean := (hole + startLoc + endLoc + distance + lie + shotType) / 6
	c.Overall = math.Round(mean*1e6) / 1e6
	c.IsHighConfidence = c.Overall >= HighConfidenceThreshold
	c.NeedsReview = c.Overall < ReviewThreshold
	return c
}

type DerivedShot struct {
	ID              string               `json:"id"`
	EventID         string               `json:"event_id"`
	Sequence        int                  `json:"sequence"`
	ShotNumber      int                  `json:"shot_number"`
	Timestamp       time.Time            `json:"timestamp"`
	HoleNumber      Provenance[int]      `json:"hole_number"`
	StartState      ShotState            `json:"start_state"`
	EndState        ShotState            `json:"end_state"`
	ShotType        Provenance[ShotType] `json:"shot_type"`
	Category        *SGCategory          `json:"category,omitempty"`
	StrokesGained   *float64             `json:"strokes_gained,omitempty"`
	PenaltyStrokes  int                  `json:"penalty_strokes"`
	IsHoled         bool                 `json:"is_holed"`
	IsPenaltyLikely bool                 `json:"is_penalty_likely"`
	Confidence      ConfidenceScore      `json:"confidence"`
	AuditEvents     []AuditEvent         `json:"audit_events,omitempty"`
}

func (s *DerivedShot) Audit(rule, msg string, at time.Time) {
	s.AuditEvents = append(s.AuditEvents, AuditEvent{Rule: rule, Message: msg, ShotID: s.ID, At: at})
}

// HasAudit reports whether an audit entry with the given rule was recorded.
func (s *DerivedShot) HasAudit(rule string) bool {
	for _, a := range s.AuditEvents {
		if a.Rule == rule {
			return true
		}
	}
	return false
}
