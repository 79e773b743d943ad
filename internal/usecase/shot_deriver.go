package usecase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
	"ShotTrace/internal/services/course"
	"ShotTrace/internal/services/location"

	"github.com/google/uuid"
)

const (
	defaultFallbackOffset   = 10 * time.Second
	defaultStabilityHalf    = time.Second
	defaultPenaltyIncrease  = 30.0 // yards
	fallbackConfidenceScale = 0.7
	holedOutConfidence      = 0.7
	inheritedHoleConfidence = 0.4
	unknownShotTypeConf     = 0.2
)

// Reason tags added by the deriver.
const (
	reasonNoLocation     = "no_location"
	reasonInheritedHole  = "inherited_previous_hole"
	reasonCourseGeometry = "course_geometry"
	reasonNoHoleLayout   = "no_hole_layout"
	reasonHoledOut       = "holed_out"
	reasonFallbackTiming = "fallback_timing"
	reasonFromStartLie   = "from_start_lie"
	reasonNoDistance     = "distance_unknown"
)

// ShotDeriver turns a round's shot events and location samples into derived
// shots. It owns a HoleResolver, so one deriver serves one round at a time.
type ShotDeriver struct {
	course          drepo.CourseGeometry
	smoother        *location.Smoother
	resolver        *course.HoleResolver
	fallbackOffset  time.Duration
	stabilityHalf   time.Duration
	penaltyIncrease float64
	newID           func() string
}

type DeriverOption func(*ShotDeriver)

func WithSmoother(s *location.Smoother) DeriverOption {
	return func(d *ShotDeriver) { d.smoother = s }
}

// WithFallbackOffset sets the time after the swing used when no clip
// timing is available.
func WithFallbackOffset(off time.Duration) DeriverOption {
	return func(d *ShotDeriver) { d.fallbackOffset = off }
}

func WithStabilityHalfWindow(half time.Duration) DeriverOption {
	return func(d *ShotDeriver) { d.stabilityHalf = half }
}

func WithIDGenerator(fn func() string) DeriverOption {
	return func(d *ShotDeriver) { d.newID = fn }
}

func NewShotDeriver(geo drepo.CourseGeometry, opts ...DeriverOption) *ShotDeriver {
	d := &ShotDeriver{
		course:          geo,
		smoother:        location.NewSmoother(),
		fallbackOffset:  defaultFallbackOffset,
		stabilityHalf:   defaultStabilityHalf,
		penaltyIncrease: defaultPenaltyIncrease,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.resolver = course.NewHoleResolver(geo)
	return d
}

// startInfo is the start of one shot before its end is known.
type startInfo struct {
	event      models.ShotEvent
	shotNumber int
	hole       models.Provenance[int]
	state      models.ShotState
}

// Derive runs both passes. stability may be nil.
func (d *ShotDeriver) Derive(events []models.ShotEvent, samples []models.LocationSample, stability drepo.StabilityProvider) []models.DerivedShot {
	d.resolver.Reset()
	if len(events) == 0 {
		return nil
	}

	ordered := make([]models.ShotEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EventTimestamp.Before(ordered[j].EventTimestamp)
	})

	// Starts are resolved in event order so the resolver sees every position
	// once and chronologically.
	starts := make([]startInfo, len(ordered))
	for i, ev := range ordered {
		if ev.ID == "" {
			ev.ID = d.newID()
		}
		var prev *startInfo
		if i > 0 {
			prev = &starts[i-1]
		}
		starts[i] = d.startState(ev, prev, samples, stability)
	}

	shots := make([]models.DerivedShot, len(starts))
	for i := range starts {
		var next *startInfo
		if i+1 < len(starts) {
			next = &starts[i+1]
		}
		shots[i] = d.deriveShot(i+1, &starts[i], next, samples, stability)
	}

	DetectPenalties(shots, d.penaltyIncrease)
	return shots
}

func (d *ShotDeriver) startState(ev models.ShotEvent, prev *startInfo, samples []models.LocationSample, stability drepo.StabilityProvider) startInfo {
	info := startInfo{event: ev}
	ts := ev.EventTimestamp

	sm, ok := d.smoother.At(samples, ts)
	if ok {
		info.state.Location = models.Known(sm.AsSample(ev.ID+"-start", ts), sm.Confidence, models.SourceGPS, sm.Flags...)
		if res, ok := d.resolver.Resolve(sm.Coordinate, ts); ok {
			info.hole = models.Known(res.Hole, res.Confidence, models.SourceDerived, res.Reason)
		} else {
			info.hole = models.Unknown[int](reasonNoHoleLayout)
		}
	} else {
		info.state.Location = models.Unknown[models.LocationSample](reasonNoLocation)
		if prev != nil && prev.hole.IsKnown() {
			info.hole = models.Known(prev.hole.OrZero(), inheritedHoleConfidence, models.SourceDerived, reasonInheritedHole)
		} else {
			info.hole = models.Unknown[int](reasonNoLocation)
		}
	}

	info.shotNumber = 1
	if prev != nil && !holeChanged(prev.hole, info.hole) {
		info.shotNumber = prev.shotNumber + 1
	}

	info.state = d.locate(info.state.Location, info.hole, info.shotNumber, ev.ShotTypeHint, ts, stability)
	return info
}

// locate fills distance, lie and units for a state whose location and hole
// are already decided.
func (d *ShotDeriver) locate(
	loc models.Provenance[models.LocationSample],
	hole models.Provenance[int],
	shotNumber int,
	hint *models.ShotType,
	ts time.Time,
	stability drepo.StabilityProvider,
) models.ShotState {
	st := models.ShotState{Location: loc, DistanceUnit: models.UnitYards}

	var layout drepo.HoleLayout
	if h, ok := hole.Get(); ok {
		layout, _ = d.course.Hole(h)
	}

	in := course.LieInput{ShotNumber: shotNumber, Hint: hint, Hole: layout}
	sample, hasLoc := loc.Get()
	switch {
	case !hasLoc:
		st.DistanceToPin = models.Unknown[float64](reasonNoLocation)
	case layout == nil:
		st.DistanceToPin = models.Unknown[float64](reasonNoHoleLayout)
	default:
		c := sample.Coordinate()
		yards := layout.DistanceToPin(c)
		in.Coordinate = &c
		in.DistanceYards = &yards
		st.DistanceToPin = models.Known(yards, math.Min(loc.Confidence, hole.Confidence), models.SourceDerived, reasonCourseGeometry)
	}
	if stability != nil {
		if s, ok := stability.Stability(ts.Add(-d.stabilityHalf), ts.Add(d.stabilityHalf)); ok {
			in.Stability = &s
		}
	}

	st.Lie = course.ClassifyLie(in)
	if lie, _ := st.Lie.Get(); lie == models.LieGreen && st.DistanceToPin.IsKnown() {
		feet := st.DistanceToPin.OrZero() * models.FeetPerYard
		st.DistanceToPin.Value = &feet
		st.DistanceUnit = models.UnitFeet
	}
	return st
}

func (d *ShotDeriver) deriveShot(seq int, start, next *startInfo, samples []models.LocationSample, stability drepo.StabilityProvider) models.DerivedShot {
	ev := start.event
	shot := models.DerivedShot{
		ID:             ev.ID,
		EventID:        ev.ID,
		Sequence:       seq,
		ShotNumber:     start.shotNumber,
		Timestamp:      ev.EventTimestamp,
		HoleNumber:     start.hole,
		StartState:     start.state,
		PenaltyStrokes: ev.PenaltyStrokes,
	}
	if !start.state.Location.IsKnown() {
		shot.Audit(models.AuditNoLocation, "no location samples around the swing", ev.EventTimestamp)
	}

	switch {
	case next != nil && holeChanged(start.hole, next.hole):
		shot.EndState = d.holedOutState(start.hole)
		shot.IsHoled = true
		shot.Audit(models.AuditHoledOut,
			fmt.Sprintf("next shot resolved to hole %d, treated as holed", next.hole.OrZero()), ev.EventTimestamp)
	case next != nil && next.state.Location.IsKnown():
		shot.EndState = next.state
		shot.EndState.EndStateSource = models.EndFromNextShot
	default:
		shot.EndState = d.fallbackState(start, samples, stability)
		shot.Audit(models.AuditFallbackTiming, "end position estimated from swing timing", ev.EventTimestamp)
	}

	shot.ShotType = classifyShotType(shot.StartState)
	shot.Confidence = models.NewConfidenceScore(
		shot.HoleNumber.Confidence,
		shot.StartState.Location.Confidence,
		shot.EndState.Location.Confidence,
		math.Min(shot.StartState.DistanceToPin.Confidence, shot.EndState.DistanceToPin.Confidence),
		math.Min(shot.StartState.Lie.Confidence, shot.EndState.Lie.Confidence),
		shot.ShotType.Confidence,
	)
	return shot
}

func (d *ShotDeriver) holedOutState(hole models.Provenance[int]) models.ShotState {
	st := models.ShotState{
		Location:       models.Unknown[models.LocationSample](reasonHoledOut),
		DistanceToPin:  models.Known(0.0, holedOutConfidence, models.SourceDerived, reasonHoledOut),
		DistanceUnit:   models.UnitFeet,
		Lie:            models.Known(models.LieGreen, holedOutConfidence, models.SourceDerived, reasonHoledOut),
		EndStateSource: models.EndHoledOut,
	}
	if h, ok := hole.Get(); ok {
		if layout, ok := d.course.Hole(h); ok {
			pin := layout.Pin()
			st.Location = models.Known(models.LocationSample{
				Latitude:  pin.Latitude,
				Longitude: pin.Longitude,
			}, holedOutConfidence, models.SourceDerived, reasonHoledOut)
		}
	}
	return st
}

// fallbackState estimates where the ball came to rest from the swing
// timing. The hole resolver is not consulted so its state only follows
// real shot starts.
func (d *ShotDeriver) fallbackState(start *startInfo, samples []models.LocationSample, stability drepo.StabilityProvider) models.ShotState {
	ev := start.event
	ts := ev.EventTimestamp.Add(d.fallbackDelay(ev))

	loc := models.Unknown[models.LocationSample](reasonNoLocation, reasonFallbackTiming)
	if sm, ok := d.smoother.At(samples, ts); ok {
		loc = models.Known(sm.AsSample(ev.ID+"-end", ts), sm.Confidence, models.SourceGPS, sm.Flags...).
			Scaled(fallbackConfidenceScale, reasonFallbackTiming)
	}
	st := d.locate(loc, start.hole, start.shotNumber+1, nil, ts, stability)
	st.EndStateSource = models.EndFromFallback
	return st
}

func (d *ShotDeriver) fallbackDelay(ev models.ShotEvent) time.Duration {
	if ev.ClipEndSeconds != nil && ev.ImpactSeconds != nil {
		if off := *ev.ClipEndSeconds - *ev.ImpactSeconds; off > 0 {
			return time.Duration(off * float64(time.Second))
		}
	}
	return d.fallbackOffset
}

// classifyShotType derives the shot type from the start lie alone.
func classifyShotType(start models.ShotState) models.Provenance[models.ShotType] {
	lie, ok := start.Lie.Get()
	if !ok || lie == models.LieUnknown {
		return models.Known(models.ShotUnknown, unknownShotTypeConf, models.SourceDerived, reasonFromStartLie)
	}
	conf := start.Lie.Confidence
	known := func(t models.ShotType) models.Provenance[models.ShotType] {
		return models.Known(t, conf, models.SourceDerived, reasonFromStartLie)
	}
	d, hasDist := start.DistanceYards()

	switch lie {
	case models.LieTee:
		return known(models.ShotDrive)
	case models.LieGreen:
		return known(models.ShotPutt)
	case models.LieBunker:
		return known(models.ShotBunker)
	case models.LieRecovery:
		return known(models.ShotApproach)
	case models.LieFringe:
		if !hasDist {
			return models.Known(models.ShotChip, conf/2, models.SourceDerived, reasonFromStartLie, reasonNoDistance)
		}
		if d < 10 {
			return known(models.ShotChip)
		}
		return known(models.ShotPitch)
	default: // fairway, rough, deep rough
		if !hasDist {
			return models.Known(models.ShotApproach, conf/2, models.SourceDerived, reasonFromStartLie, reasonNoDistance)
		}
		switch {
		case d <= 20:
			return known(models.ShotChip)
		case d <= 50:
			return known(models.ShotPitch)
		default:
			return known(models.ShotApproach)
		}
	}
}

// DetectPenalties is the second pass over a fully derived round. It only
// ever flags shots and records audits; outcomes are left untouched.
func DetectPenalties(shots []models.DerivedShot, increaseYards float64) {
	for i := 1; i < len(shots); i++ {
		prev, cur := &shots[i-1], &shots[i]

		if sameHole(prev.HoleNumber, cur.HoleNumber) {
			prevEnd, ok1 := prev.EndState.DistanceYards()
			curStart, ok2 := cur.StartState.DistanceYards()
			if ok1 && ok2 && curStart-prevEnd > increaseYards {
				cur.IsPenaltyLikely = true
				cur.Audit(models.AuditDistanceIncrease,
					fmt.Sprintf("start is %.1f yd further than previous end", curStart-prevEnd), cur.Timestamp)
			}
			continue
		}

		if holeChanged(prev.HoleNumber, cur.HoleNumber) && !prev.IsHoled {
			prev.Audit(models.AuditHoleDiscontinuity,
				fmt.Sprintf("hole changed %d -> %d without a hole-out", prev.HoleNumber.OrZero(), cur.HoleNumber.OrZero()), prev.Timestamp)
		}
	}
}

func sameHole(a, b models.Provenance[int]) bool {
	return a.IsKnown() && b.IsKnown() && a.OrZero() == b.OrZero()
}

func holeChanged(a, b models.Provenance[int]) bool {
	return a.IsKnown() && b.IsKnown() && a.OrZero() != b.OrZero()
}
