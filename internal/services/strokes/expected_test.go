package strokes

import (
	"math"
	"testing"

	"ShotTrace/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestExpectedStrokesBreakpoints(t *testing.T) {
	m := NewModel()
	tests := []struct {
		name   string
		dist   float64
		lie    models.Lie
		isPutt bool
		want   float64
	}{
		{"putt at 3ft breakpoint", 3, models.LieGreen, true, 1.04},
		{"green lie uses putting table", 10, models.LieGreen, false, 1.61},
		{"putt flag overrides lie", 8, models.LieFairway, true, 1.50},
		{"below first breakpoint clamps", 0.2, models.LieGreen, true, 1.00},
		{"negative clamps", -5, models.LieFairway, false, 2.18},
		{"fairway midpoint", 150, models.LieFairway, false, 2.945},
		{"tee exact", 400, models.LieTee, false, 3.99},
		{"tee below first", 50, models.LieTee, false, 2.92},
		{"unknown falls back to fairway", 100, models.LieUnknown, false, 2.80},
		{"recovery is fairway plus penalty", 100, models.LieRecovery, false, 3.30},
		{"deep rough is rough plus penalty", 100, models.LieDeepRough, false, 3.27},
		{"fringe in yards", 10, models.LieFringe, false, 2.35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.ExpectedStrokes(tt.dist, tt.lie, tt.isPutt), 1e-9)
		})
	}
}

func TestExpectedStrokesExactAtBreakpoint(t *testing.T) {
	m := NewModel()
	assert.Equal(t, 1.04, m.ExpectedStrokes(3, models.LieGreen, true))
	for _, bp := range FairwayTable {
		assert.Equal(t, bp.Strokes, m.ExpectedStrokes(bp.Distance, models.LieFairway, false))
	}
}

func TestExpectedStrokesExtrapolation(t *testing.T) {
	m := NewModel()
	got := m.ExpectedStrokes(1000, models.LieFairway, false)
	slope := (4.15 - 3.90) / 20
	assert.InDelta(t, 4.15+slope*700, got, 1e-9)
	assert.Greater(t, got, 4.15)
}

func TestExpectedStrokesMonotoneAndContinuous(t *testing.T) {
	m := NewModel()
	for _, lie := range models.Lies {
		table := m.Table(lie, false)
		prev := math.Inf(-1)
		for d := 0.0; d <= 700; d += 0.5 {
			v := m.ExpectedStrokes(d, lie, false)
			assert.GreaterOrEqual(t, v, prev, "lie %s at %v", lie, d)
			prev = v
		}
		for _, bp := range table {
			left := table.Lookup(bp.Distance - 1e-7)
			right := table.Lookup(bp.Distance + 1e-7)
			assert.InDelta(t, bp.Strokes, left, 1e-4, "lie %s left of %v", lie, bp.Distance)
			assert.InDelta(t, bp.Strokes, right, 1e-4, "lie %s right of %v", lie, bp.Distance)
		}
	}
}

func TestExpectedStrokesLinearBetweenBreakpoints(t *testing.T) {
	table := RoughTable
	for i := 0; i+1 < len(table); i++ {
		lo, hi := table[i], table[i+1]
		for _, f := range []float64{0.1, 0.25, 0.5, 0.9} {
			d := lo.Distance + f*(hi.Distance-lo.Distance)
			want := lo.Strokes + f*(hi.Strokes-lo.Strokes)
			assert.InDelta(t, want, table.Lookup(d), 1e-9)
		}
	}
}

func TestExpectedStrokesSafeDefaults(t *testing.T) {
	m := NewModel(WithTable(models.LieBunker, Table{}))
	assert.Equal(t, SafeDefault, m.ExpectedStrokes(40, models.LieBunker, false))
	assert.Equal(t, SafeDefault, m.ExpectedStrokes(math.NaN(), models.LieFairway, false))
	assert.Equal(t, SafeDefault, m.ExpectedStrokes(math.Inf(1), models.LieFairway, false))
}

// Recovery and unknown lies compose with the fairway table without any
// justification in the data. These assertions pin that behavior.
func TestRecoveryAndUnknownCompositionIsDocumented(t *testing.T) {
	m := NewModel()
	for _, bp := range FairwayTable {
		assert.InDelta(t, bp.Strokes+recoveryPenalty, m.ExpectedStrokes(bp.Distance, models.LieRecovery, false), 1e-9)
		assert.Equal(t, bp.Strokes, m.ExpectedStrokes(bp.Distance, models.LieUnknown, false))
	}
}
