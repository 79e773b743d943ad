package models

import "time"

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSample is one raw position fix from the device.
type LocationSample struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp" validate:"required"`
	Latitude           float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude          float64   `json:"longitude" validate:"gte=-180,lte=180"`
	HorizontalAccuracy float64   `json:"horizontal_accuracy_m" validate:"gte=0"`
	Altitude           *float64  `json:"altitude,omitempty"`
}

func (s LocationSample) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Diagnostic flags emitted by the smoother.
const (
	FlagLowSampleCount   = "low_sample_count"
	FlagModerateAccuracy = "moderate_accuracy"
	FlagPoorAccuracy     = "poor_accuracy"
)

// SmoothedLocation is a confidence-scored position estimate for one instant.
// Never persisted.
type SmoothedLocation struct {
	Coordinate  Coordinate `json:"coordinate"`
	Altitude    *float64   `json:"altitude,omitempty"`
	Confidence  float64    `json:"confidence"`
	SampleCount int        `json:"sample_count"`
	AvgAccuracy float64    `json:"avg_accuracy_m"`
	Flags       []string   `json:"flags,omitempty"`
}

// AsSample turns the estimate into the sample carried by a shot state.
func (s SmoothedLocation) AsSample(id string, ts time.Time) LocationSample {
	return LocationSample{
		ID:                 id,
		Timestamp:          ts,
		Latitude:           s.Coordinate.Latitude,
		Longitude:          s.Coordinate.Longitude,
		HorizontalAccuracy: s.AvgAccuracy,
		Altitude:           s.Altitude,
	}
}

// StabilityWindow is a motion-stability reading for a time range, as
// produced by the pose service. Lower score means steadier.
type StabilityWindow struct {
	From  time.Time `json:"from" validate:"required"`
	To    time.Time `json:"to" validate:"required,gtefield=From"`
	Score float64   `json:"score" validate:"gte=0,lte=1"`
}
