package course

import (
	"math"
	"time"

	"ShotTrace/internal/domain/models"
	"ShotTrace/internal/domain/repository"
	"ShotTrace/internal/services/location"
)

// Reason tags for hole resolution.
const (
	ReasonInitialLock     = "initial_lock"
	ReasonUnlockedNearest = "unlocked_nearest"
	ReasonHoleSwitch      = "hole_switch"
	ReasonHysteresisHold  = "hysteresis_hold"
)

const (
	defaultLockYards   = 50.0
	defaultSwitchYards = 30.0
)

type Resolution struct {
	Hole       int
	Confidence float64
	Reason     string
	At         time.Time
}

// HoleResolver maps positions to hole numbers. It remembers the current
// hole and only switches when a different tee is close enough, so it must
// be Reset at the start of every round.
type HoleResolver struct {
	course      repository.CourseGeometry
	lockYards   float64
	switchYards float64
	current     int // 0 means unset
}

type ResolverOption func(*HoleResolver)

func WithLockDistance(yards float64) ResolverOption {
	return func(r *HoleResolver) { r.lockYards = yards }
}

func WithSwitchDistance(yards float64) ResolverOption {
	return func(r *HoleResolver) { r.switchYards = yards }
}

func NewHoleResolver(course repository.CourseGeometry, opts ...ResolverOption) *HoleResolver {
	r := &HoleResolver{course: course, lockYards: defaultLockYards, switchYards: defaultSwitchYards}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HoleResolver) Reset() { r.current = 0 }

func (r *HoleResolver) CurrentHole() (int, bool) {
	return r.current, r.current != 0
}

// Resolve returns the hole for c. ok is false only when the course has no
// holes.
func (r *HoleResolver) Resolve(c models.Coordinate, ts time.Time) (Resolution, bool) {
	nearest, dist, ok := r.nearestTee(c)
	if !ok {
		return Resolution{}, false
	}

	if r.current == 0 {
		if dist < r.lockYards {
			r.current = nearest
			return Resolution{Hole: nearest, Confidence: 0.85, Reason: ReasonInitialLock, At: ts}, true
		}
		return Resolution{Hole: nearest, Confidence: 0.5, Reason: ReasonUnlockedNearest, At: ts}, true
	}

	if nearest != r.current && dist < r.switchYards {
		r.current = nearest
		return Resolution{Hole: nearest, Confidence: 0.9, Reason: ReasonHoleSwitch, At: ts}, true
	}
	return Resolution{Hole: r.current, Confidence: 0.8, Reason: ReasonHysteresisHold, At: ts}, true
}

// nearestTee breaks ties toward the lower hole number.
func (r *HoleResolver) nearestTee(c models.Coordinate) (int, float64, bool) {
	best, bestDist := 0, math.Inf(1)
	for _, h := range r.course.Holes() {
		d := location.DistanceYards(c, h.Tee())
		if d < bestDist || (d == bestDist && h.Number() < best) {
			best, bestDist = h.Number(), d
		}
	}
	return best, bestDist, best != 0
}
