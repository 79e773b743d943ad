package course

import (
	"ShotTrace/internal/domain/models"
	"ShotTrace/internal/domain/repository"
)

// Reason tags, one per classification rule.
const (
	ReasonHintPutt       = "hint_putt"
	ReasonHintDrive      = "hint_drive_first_shot"
	ReasonHintBunker     = "hint_bunker_shot"
	ReasonFirstShotTee   = "first_shot_tee"
	ReasonOnGreen        = "geometry_on_green"
	ReasonPuttingStance  = "putting_stance"
	ReasonNearGreen      = "geometry_near_green"
	ReasonDistanceGreen  = "distance_green"
	ReasonDistanceFringe = "distance_fringe"
	ReasonDefaultFairway = "default_fairway"
)

const (
	fringeMarginYards   = 5.0
	puttingStanceBelow  = 0.2
	greenDistanceYards  = 3.0
	fringeDistanceYards = 30.0
)

// LieInput is what is known about a ball position when classifying it.
// Any pointer may be nil.
type LieInput struct {
	ShotNumber    int
	Hint          *models.ShotType
	Coordinate    *models.Coordinate
	Hole          repository.HoleLayout
	DistanceYards *float64
	Stability     *float64
}

// ClassifyLie applies the rules in fixed order; the first match wins.
func ClassifyLie(in LieInput) models.Provenance[models.Lie] {
	if in.Hint != nil {
		switch {
		case *in.Hint == models.ShotPutt:
			return models.Known(models.LieGreen, 0.9, models.SourceManual, ReasonHintPutt)
		case *in.Hint == models.ShotDrive && in.ShotNumber == 1:
			return models.Known(models.LieTee, 0.95, models.SourceManual, ReasonHintDrive)
		case *in.Hint == models.ShotBunker:
			return models.Known(models.LieBunker, 0.85, models.SourceManual, ReasonHintBunker)
		}
	}

	if in.ShotNumber == 1 {
		return models.Known(models.LieTee, 0.9, models.SourceDerived, ReasonFirstShotTee)
	}

	if in.Hole != nil && in.Coordinate != nil {
		if in.Hole.IsOnGreen(*in.Coordinate) {
			if in.Stability != nil && *in.Stability < puttingStanceBelow {
				return models.Known(models.LieGreen, 0.92, models.SourceGPS, ReasonOnGreen, ReasonPuttingStance)
			}
			return models.Known(models.LieGreen, 0.85, models.SourceGPS, ReasonOnGreen)
		}
		if in.Hole.DistanceToPin(*in.Coordinate) <= in.Hole.GreenRadius()+fringeMarginYards {
			return models.Known(models.LieFringe, 0.7, models.SourceGPS, ReasonNearGreen)
		}
	}

	if in.DistanceYards != nil {
		d := *in.DistanceYards
		switch {
		case d <= greenDistanceYards:
			return models.Known(models.LieGreen, 0.75, models.SourceDerived, ReasonDistanceGreen)
		case d <= fringeDistanceYards && in.ShotNumber > 1:
			return models.Known(models.LieFringe, 0.5, models.SourceDerived, ReasonDistanceFringe)
		}
	}

	return models.Known(models.LieFairway, 0.4, models.SourceDerived, ReasonDefaultFairway)
}
