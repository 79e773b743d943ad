package strokes

import (
	"math"

	"ShotTrace/internal/domain/models"
)

// SafeDefault is returned when a lookup cannot be answered from a table.
const SafeDefault = 3.5

const (
	// recoveryPenalty is added on top of fairway values for recovery lies.
	// Carried as-is from the baseline data; it has no stated derivation.
	recoveryPenalty  = 0.5
	deepRoughPenalty = 0.25
)

// Breakpoint maps a distance to the expected strokes to hole out from it.
type Breakpoint struct {
	Distance float64
	Strokes  float64
}

// Table is an ascending list of breakpoints.
type Table []Breakpoint

// Lookup interpolates linearly between bracketing breakpoints. Below the
// first breakpoint the first value is returned; past the last one the slope
// of the final segment is extended.
func (t Table) Lookup(d float64) float64 {
	if len(t) == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return SafeDefault
	}
	if d <= t[0].Distance {
		return t[0].Strokes
	}
	last := len(t) - 1
	if d >= t[last].Distance {
		if last == 0 {
			return t[0].Strokes
		}
		return along(t[last-1], t[last], t[last], d)
	}
	for i := 0; i < last; i++ {
		lo, hi := t[i], t[i+1]
		if d >= lo.Distance && d < hi.Distance {
			return along(lo, hi, lo, d)
		}
	}
	return t[last].Strokes
}

// along evaluates the line through a and b at d, anchored on from so that
// d == from.Distance returns from.Strokes exactly.
func along(a, b, from Breakpoint, d float64) float64 {
	slope := (b.Strokes - a.Strokes) / (b.Distance - a.Distance)
	return from.Strokes + slope*(d-from.Distance)
}

func (t Table) shifted(by float64) Table {
	out := make(Table, len(t))
	for i, bp := range t {
		out[i] = Breakpoint{Distance: bp.Distance, Strokes: bp.Strokes + by}
	}
	return out
}

// Baseline tables. Putting distances are feet, everything else yards.
var (
	PuttingTable = Table{
		{1, 1.00}, {2, 1.01}, {3, 1.04}, {4, 1.13}, {5, 1.23}, {6, 1.34}, {7, 1.42}, {8, 1.50},
		{10, 1.61}, {15, 1.78}, {20, 1.87}, {30, 1.98}, {40, 2.06}, {50, 2.14}, {60, 2.21}, {90, 2.40},
	}
	TeeTable = Table{
		{100, 2.92}, {150, 2.99}, {200, 3.12}, {250, 3.45}, {300, 3.71}, {350, 3.86},
		{400, 3.99}, {450, 4.17}, {500, 4.41}, {550, 4.59}, {600, 4.82},
	}
	FairwayTable = Table{
		{10, 2.18}, {20, 2.40}, {40, 2.60}, {60, 2.70}, {80, 2.75}, {100, 2.80}, {120, 2.85}, {140, 2.91},
		{160, 2.98}, {180, 3.08}, {200, 3.19}, {220, 3.32}, {240, 3.45}, {260, 3.65}, {280, 3.90}, {300, 4.15},
	}
	RoughTable = Table{
		{10, 2.34}, {20, 2.59}, {40, 2.78}, {60, 2.91}, {80, 2.96}, {100, 3.02}, {120, 3.08},
		{140, 3.15}, {160, 3.23}, {180, 3.31}, {200, 3.42}, {250, 3.71}, {300, 4.21},
	}
	BunkerTable = Table{
		{10, 2.43}, {20, 2.53}, {40, 2.82}, {60, 3.15}, {80, 3.24}, {100, 3.28},
		{150, 3.50}, {200, 3.79}, {250, 4.00}, {300, 4.40},
	}
	FringeTable = Table{
		{3, 2.10}, {5, 2.20}, {10, 2.35}, {15, 2.45}, {20, 2.53}, {30, 2.65},
	}
)

// Model is the expected-strokes baseline. It holds no per-round state and
// is safe to share.
type Model struct {
	tables map[models.Lie]Table
}

type ModelOption func(*Model)

// WithTable replaces the table used for a lie.
func WithTable(lie models.Lie, t Table) ModelOption {
	return func(m *Model) {
		m.tables[lie] = t
	}
}

func NewModel(opts ...ModelOption) *Model {
	m := &Model{tables: map[models.Lie]Table{
		models.LieGreen:     PuttingTable,
		models.LieTee:       TeeTable,
		models.LieFairway:   FairwayTable,
		models.LieRough:     RoughTable,
		models.LieDeepRough: RoughTable.shifted(deepRoughPenalty),
		models.LieBunker:    BunkerTable,
		models.LieFringe:    FringeTable,
		models.LieRecovery:  FairwayTable.shifted(recoveryPenalty),
		models.LieUnknown:   FairwayTable,
	}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Table returns the table a lie resolves to.
func (m *Model) Table(lie models.Lie, isPutt bool) Table {
	if isPutt || lie == models.LieGreen {
		return m.tables[models.LieGreen]
	}
	t, ok := m.tables[lie]
	if !ok {
		return m.tables[models.LieUnknown]
	}
	return t
}

// ExpectedStrokes returns the strokes expected to hole out. Distance is
// feet for putts or green lies and yards otherwise.
func (m *Model) ExpectedStrokes(distance float64, lie models.Lie, isPutt bool) float64 {
	return m.Table(lie, isPutt).Lookup(distance)
}
