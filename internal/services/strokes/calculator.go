package strokes

import "ShotTrace/internal/domain/models"

const shortGameMaxYards = 30.0
const offTheTeeMinYards = 200.0

// Calculator turns derived shots into strokes gained against the baseline.
type Calculator struct {
	model *Model
}

func NewCalculator(model *Model) *Calculator {
	if model == nil {
		model = NewModel()
	}
	return &Calculator{model: model}
}

// Expected returns the baseline strokes for a state, if its distance and
// lie are known.
func (c *Calculator) Expected(s models.ShotState) (float64, bool) {
	d, ok := s.DistanceToPin.Get()
	if !ok {
		return 0, false
	}
	lie, ok := s.Lie.Get()
	if !ok {
		return 0, false
	}
	return c.model.ExpectedStrokes(d, lie, s.DistanceUnit == models.UnitFeet), true
}

// Calculate returns expected(start) - expected(end) - (1 + penalties).
// A holed shot ends at zero expected strokes. ok is false when either end
// of the shot is missing data; that is different from a zero gain.
func (c *Calculator) Calculate(shot models.DerivedShot) (float64, bool) {
	start, ok := c.Expected(shot.StartState)
	if !ok {
		return 0, false
	}
	end := 0.0
	if !shot.IsHoled {
		if end, ok = c.Expected(shot.EndState); !ok {
			return 0, false
		}
	}
	return start - end - float64(1+shot.PenaltyStrokes), true
}

// Categorize buckets a shot by its start state. Anything ambiguous lands in
// approach.
func Categorize(shot models.DerivedShot) models.SGCategory {
	lie, _ := shot.StartState.Lie.Get()
	if lie == models.LieGreen {
		return models.CategoryPutting
	}
	d, known := shot.StartState.DistanceYards()
	if known && d <= shortGameMaxYards && lie != models.LieTee {
		return models.CategoryShortGame
	}
	if lie == models.LieTee && shot.ShotNumber == 1 && known && d > offTheTeeMinYards {
		return models.CategoryOffTheTee
	}
	return models.CategoryApproach
}

// Apply fills category, strokes gained and state expectations in place.
func (c *Calculator) Apply(shots []models.DerivedShot) {
	for i := range shots {
		s := &shots[i]
		cat := Categorize(*s)
		s.Category = &cat

		if v, ok := c.Expected(s.StartState); ok {
			s.StartState.ExpectedStrokes = &v
		}
		if s.IsHoled {
			zero := 0.0
			s.EndState.ExpectedStrokes = &zero
		} else if v, ok := c.Expected(s.EndState); ok {
			s.EndState.ExpectedStrokes = &v
		}

		s.StrokesGained = nil
		if sg, ok := c.Calculate(*s); ok {
			s.StrokesGained = &sg
		}
	}
}
