package usecase

import (
	"fmt"
	"math"
	"sort"

	"ShotTrace/internal/domain/models"
)

const insightCount = 3

type band struct {
	label string
	upTo  float64
}

// Distance bands in yards for full swings, putting bands in feet.
var (
	distanceBands = []band{{"0-50", 50}, {"51-100", 100}, {"101-150", 150}, {"151-200", 200}, {"201-250", 250}, {"251+", math.Inf(1)}}
	puttingBands  = []band{{"0-3ft", 3}, {"3-6ft", 6}, {"6-10ft", 10}, {"10-20ft", 20}, {"20-40ft", 40}, {"40ft+", math.Inf(1)}}
)

var leakTips = map[models.SGCategory]string{
	models.CategoryOffTheTee: "Favor position over distance off the tee; a club that finds the fairway often gains more than extra yards.",
	models.CategoryApproach:  "Work on distance control with approach shots and aim for the middle of the green.",
	models.CategoryShortGame: "Practice up-and-downs from 10-30 yards with one reliable landing spot.",
	models.CategoryPutting:   "Spend time on lag putting from 20-40 feet to cut down on three-putts.",
}

var winNotes = map[models.SGCategory]string{
	models.CategoryOffTheTee: "Driving was a strength. Keep the same tempo under pressure.",
	models.CategoryApproach:  "Approach play gained strokes. Trust those yardages.",
	models.CategoryShortGame: "Short game saved strokes around the green.",
	models.CategoryPutting:   "Putting gained strokes. Keep the same routine.",
}

func bandFor(bands []band, d float64) string {
	for _, b := range bands {
		if d <= b.upTo {
			return b.label
		}
	}
	return bands[len(bands)-1].label
}

// RoundAggregator rolls derived shots up into a RoundSummary.
type RoundAggregator struct{}

func NewRoundAggregator() *RoundAggregator { return &RoundAggregator{} }

type scored struct {
	shot *models.DerivedShot
	sg   float64
}

func (a *RoundAggregator) Aggregate(roundID string, shots []models.DerivedShot) models.RoundSummary {
	sum := models.RoundSummary{
		RoundID:        roundID,
		ShotCount:      len(shots),
		ByCategory:     make(map[models.SGCategory]float64, len(models.Categories)),
		ByHole:         make(map[int]float64),
		ByDistanceBand: make(map[string]float64),
		ByPuttingBand:  make(map[string]float64),
		Wins:           []models.InsightCard{},
		Leaks:          []models.InsightCard{},
	}
	for _, c := range models.Categories {
		sum.ByCategory[c] = 0
	}

	var valid []scored
	for i := range shots {
		s := &shots[i]
		if s.StrokesGained == nil {
			continue
		}
		sg := *s.StrokesGained
		valid = append(valid, scored{shot: s, sg: sg})
		sum.TotalSG += sg
		if s.Confidence.IsHighConfidence {
			sum.AdjustedTotalSG += sg
		}
		if s.Category != nil {
			sum.ByCategory[*s.Category] += sg
		}
		if h, ok := s.HoleNumber.Get(); ok {
			sum.ByHole[h] += sg
		}
		addToBand(&sum, s, sg)
	}
	sum.ScoredShotCount = len(valid)
	sum.Confidence = confidenceStats(shots)

	wins := append([]scored(nil), valid...)
	sort.SliceStable(wins, func(i, j int) bool { return wins[i].sg > wins[j].sg })
	leaks := append([]scored(nil), valid...)
	sort.SliceStable(leaks, func(i, j int) bool { return leaks[i].sg < leaks[j].sg })

	seenTip := make(map[string]bool)
	for i := 0; i < len(wins) && i < insightCount; i++ {
		sum.Wins = append(sum.Wins, card(models.InsightWin, wins[i]))
	}
	for i := 0; i < len(leaks) && i < insightCount; i++ {
		c := card(models.InsightLeak, leaks[i])
		sum.Leaks = append(sum.Leaks, c)
		if !seenTip[c.Tip] {
			seenTip[c.Tip] = true
			sum.Tips = append(sum.Tips, c.Tip)
		}
	}
	return sum
}

func addToBand(sum *models.RoundSummary, s *models.DerivedShot, sg float64) {
	d, ok := s.StartState.DistanceToPin.Get()
	if !ok {
		return
	}
	if s.StartState.DistanceUnit == models.UnitFeet {
		sum.ByPuttingBand[bandFor(puttingBands, d)] += sg
		return
	}
	sum.ByDistanceBand[bandFor(distanceBands, d)] += sg
}

func confidenceStats(shots []models.DerivedShot) models.ConfidenceStats {
	var st models.ConfidenceStats
	if len(shots) == 0 {
		return st
	}
	st.Min = math.Inf(1)
	st.Max = math.Inf(-1)
	total := 0.0
	for _, s := range shots {
		o := s.Confidence.Overall
		total += o
		st.Min = math.Min(st.Min, o)
		st.Max = math.Max(st.Max, o)
		if s.Confidence.IsHighConfidence {
			st.HighCount++
		}
		if s.Confidence.NeedsReview {
			st.ReviewCount++
			st.ReviewIDs = append(st.ReviewIDs, s.ID)
		}
	}
	st.Mean = total / float64(len(shots))
	return st
}

func card(kind models.InsightKind, sc scored) models.InsightCard {
	cat := models.CategoryApproach
	if sc.shot.Category != nil {
		cat = *sc.shot.Category
	}
	c := models.InsightCard{
		Kind:          kind,
		ShotID:        sc.shot.ID,
		ShotNumber:    sc.shot.ShotNumber,
		Category:      cat,
		StrokesGained: sc.sg,
	}
	where := fmt.Sprintf("Shot %d", sc.shot.Sequence)
	if h, ok := sc.shot.HoleNumber.Get(); ok {
		c.HoleNumber = &h
		where = fmt.Sprintf("Hole %d, shot %d", h, sc.shot.ShotNumber)
	}
	c.Title = fmt.Sprintf("%s: %+.2f strokes (%s)", where, sc.sg, cat)
	if kind == models.InsightWin {
		c.Tip = winNotes[cat]
	} else {
		c.Tip = leakTips[cat]
	}
	return c
}
