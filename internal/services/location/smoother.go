package location

import (
	"math"
	"time"

	"ShotTrace/internal/domain/models"
)

const (
	DefaultWindow = 10 * time.Second

	minAccuracyMeters    = 1.0
	fullSampleCount      = 5
	accuracyCeiling      = 30.0
	lowSampleThreshold   = 3
	moderateAccuracyOver = 15.0
	poorAccuracyOver     = 30.0
)

// Smoother builds a confidence-scored position estimate from raw fixes.
type Smoother struct {
	window time.Duration
}

type SmootherOption func(*Smoother)

func WithWindow(w time.Duration) SmootherOption {
	return func(s *Smoother) {
		if w >= 0 {
			s.window = w
		}
	}
}

func NewSmoother(opts ...SmootherOption) *Smoother {
	s := &Smoother{window: DefaultWindow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Smoother) Window() time.Duration { return s.window }

// At smooths with the configured window.
func (s *Smoother) At(samples []models.LocationSample, ts time.Time) (models.SmoothedLocation, bool) {
	return Smooth(samples, ts, s.window)
}

// Smooth returns the weighted estimate for ts using every sample within
// window/2 of it. Each sample weighs 1/max(accuracy,1m) scaled down
// linearly with its time distance.
func Smooth(samples []models.LocationSample, ts time.Time, window time.Duration) (models.SmoothedLocation, bool) {
	half := window / 2
	selected := make([]models.LocationSample, 0, 8)
	for _, sm := range samples {
		if absDuration(sm.Timestamp.Sub(ts)) <= half {
			selected = append(selected, sm)
		}
	}
	if len(selected) == 0 {
		return models.SmoothedLocation{}, false
	}

	weights := make([]float64, len(selected))
	total := 0.0
	for i, sm := range selected {
		w := accuracyWeight(sm)
		if half > 0 {
			w *= 1 - float64(absDuration(sm.Timestamp.Sub(ts)))/float64(half)
		}
		weights[i] = w
		total += w
	}
	// Samples sitting exactly on the window edge all weigh zero.
	if total <= 0 {
		total = 0
		for i, sm := range selected {
			weights[i] = accuracyWeight(sm)
			total += weights[i]
		}
	}

	var lat, lon, accSum, altSum, altWeight float64
	for i, sm := range selected {
		w := weights[i] / total
		lat += sm.Latitude * w
		lon += sm.Longitude * w
		accSum += sm.HorizontalAccuracy
		if sm.Altitude != nil {
			altSum += *sm.Altitude * weights[i]
			altWeight += weights[i]
		}
	}

	n := len(selected)
	avgAcc := accSum / float64(n)
	out := models.SmoothedLocation{
		Coordinate:  models.Coordinate{Latitude: lat, Longitude: lon},
		SampleCount: n,
		AvgAccuracy: avgAcc,
		Confidence:  confidence(n, avgAcc),
		Flags:       flags(n, avgAcc),
	}
	if altWeight > 0 {
		alt := altSum / altWeight
		out.Altitude = &alt
	}
	return out, true
}

func accuracyWeight(sm models.LocationSample) float64 {
	return 1 / math.Max(sm.HorizontalAccuracy, minAccuracyMeters)
}

// confidence stays in [0,1] even for devices reporting negative accuracy.
func confidence(n int, avgAcc float64) float64 {
	acc := math.Max(avgAcc, 0)
	c := 0.4*math.Min(float64(n)/fullSampleCount, 1) + 0.6*math.Max(0, 1-acc/accuracyCeiling)
	return math.Min(math.Max(c, 0), 1)
}

func flags(n int, avgAcc float64) []string {
	var out []string
	if n < lowSampleThreshold {
		out = append(out, models.FlagLowSampleCount)
	}
	switch {
	case avgAcc > poorAccuracyOver:
		out = append(out, models.FlagPoorAccuracy)
	case avgAcc > moderateAccuracyOver:
		out = append(out, models.FlagModerateAccuracy)
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
