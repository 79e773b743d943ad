package repository

import "time"

// StabilityProvider answers motion-stability queries for a time window.
// Scores are in [0,1], lower meaning steadier. ok is false when nothing
// covers the window.
type StabilityProvider interface {
	Stability(from, to time.Time) (score float64, ok bool)
}
