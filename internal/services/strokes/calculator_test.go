package strokes

import (
	"testing"

	"ShotTrace/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func state(d float64, unit models.DistanceUnit, lie models.Lie) models.ShotState {
	return models.ShotState{
		DistanceToPin: models.Known(d, 0.9, models.SourceDerived),
		DistanceUnit:  unit,
		Lie:           models.Known(lie, 0.9, models.SourceDerived),
	}
}

func TestCalculateHoledPutt(t *testing.T) {
	c := NewCalculator(nil)
	shot := models.DerivedShot{
		ShotNumber: 3,
		StartState: state(3, models.UnitFeet, models.LieGreen),
		EndState:   state(0, models.UnitFeet, models.LieGreen),
		IsHoled:    true,
	}
	sg, ok := c.Calculate(shot)
	require.True(t, ok)
	assert.InDelta(t, NewModel().ExpectedStrokes(3, models.LieGreen, true)-1, sg, 1e-12)
}

func TestCalculateApproachWithPenalty(t *testing.T) {
	c := NewCalculator(NewModel())
	shot := models.DerivedShot{
		ShotNumber:     2,
		StartState:     state(150, models.UnitYards, models.LieFairway),
		EndState:       state(30, models.UnitFeet, models.LieGreen),
		PenaltyStrokes: 1,
	}
	sg, ok := c.Calculate(shot)
	require.True(t, ok)
	assert.InDelta(t, 2.945-1.98-2, sg, 1e-9)
}

func TestCalculateMissingDataIsAbsent(t *testing.T) {
	c := NewCalculator(nil)
	full := state(100, models.UnitYards, models.LieFairway)

	noDist := full
	noDist.DistanceToPin = models.Unknown[float64]("no_location")
	noLie := full
	noLie.Lie = models.Unknown[models.Lie]()

	for name, shot := range map[string]models.DerivedShot{
		"start distance": {StartState: noDist, EndState: full},
		"start lie":      {StartState: noLie, EndState: full},
		"end distance":   {StartState: full, EndState: noDist},
		"end lie":        {StartState: full, EndState: noLie},
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := c.Calculate(shot)
			assert.False(t, ok)
		})
	}

	// A holed shot does not need an end state.
	_, ok := c.Calculate(models.DerivedShot{StartState: full, EndState: noDist, IsHoled: true})
	assert.True(t, ok)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		shot models.DerivedShot
		want models.SGCategory
	}{
		{"green is putting", models.DerivedShot{ShotNumber: 2, StartState: state(40, models.UnitFeet, models.LieGreen)}, models.CategoryPutting},
		{"short from fringe", models.DerivedShot{ShotNumber: 3, StartState: state(12, models.UnitYards, models.LieFringe)}, models.CategoryShortGame},
		{"30 yards is short game", models.DerivedShot{ShotNumber: 2, StartState: state(30, models.UnitYards, models.LieRough)}, models.CategoryShortGame},
		{"long drive", models.DerivedShot{ShotNumber: 1, StartState: state(410, models.UnitYards, models.LieTee)}, models.CategoryOffTheTee},
		{"short par 3 tee shot", models.DerivedShot{ShotNumber: 1, StartState: state(160, models.UnitYards, models.LieTee)}, models.CategoryApproach},
		{"short tee shot is not short game", models.DerivedShot{ShotNumber: 1, StartState: state(25, models.UnitYards, models.LieTee)}, models.CategoryApproach},
		{"second shot from tee", models.DerivedShot{ShotNumber: 2, StartState: state(400, models.UnitYards, models.LieTee)}, models.CategoryApproach},
		{"unknown everything", models.DerivedShot{ShotNumber: 2}, models.CategoryApproach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.shot))
		})
	}
}

func TestApply(t *testing.T) {
	shots := []models.DerivedShot{
		{ShotNumber: 1, StartState: state(420, models.UnitYards, models.LieTee), EndState: state(150, models.UnitYards, models.LieFairway)},
		{ShotNumber: 2, StartState: state(150, models.UnitYards, models.LieFairway), EndState: models.ShotState{}},
		{ShotNumber: 3, StartState: state(6, models.UnitFeet, models.LieGreen), EndState: state(0, models.UnitFeet, models.LieGreen), IsHoled: true},
	}
	NewCalculator(nil).Apply(shots)

	require.NotNil(t, shots[0].StrokesGained)
	assert.Equal(t, models.CategoryOffTheTee, *shots[0].Category)
	assert.InDelta(t, 4.062-2.945-1, *shots[0].StrokesGained, 1e-9)

	assert.Nil(t, shots[1].StrokesGained)
	require.NotNil(t, shots[1].StartState.ExpectedStrokes)
	assert.Nil(t, shots[1].EndState.ExpectedStrokes)

	require.NotNil(t, shots[2].EndState.ExpectedStrokes)
	assert.Equal(t, 0.0, *shots[2].EndState.ExpectedStrokes)
	assert.InDelta(t, 0.34, *shots[2].StrokesGained, 1e-9)
	assert.Equal(t, models.CategoryPutting, *shots[2].Category)
}
