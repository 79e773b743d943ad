package usecase

import (
	"time"

	"ShotTrace/internal/domain/models"
	"ShotTrace/internal/services/course"
	"ShotTrace/internal/services/location"
)

var (
	origin = models.Coordinate{Latitude: 36.5, Longitude: -121.9}
	t0     = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
)

func north(yards float64) models.Coordinate { return location.OffsetNorth(origin, yards) }

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

// testCourse: hole 1 plays 400 yards north from the origin, hole 2 tee sits
// 40 yards past the first pin and plays 180 yards further north.
func testCourse() *course.Course {
	return course.NewCourse("fixture",
		course.NewHole(1, 4, north(0), north(400), 15),
		course.NewHole(2, 3, north(440), north(620), 12),
	)
}

// fixes returns three accurate samples at a position starting at sec.
func fixes(sec int, c models.Coordinate) []models.LocationSample {
	out := make([]models.LocationSample, 0, 3)
	for i := 0; i < 3; i++ {
		out = append(out, models.LocationSample{
			Timestamp:          at(sec + i),
			Latitude:           c.Latitude,
			Longitude:          c.Longitude,
			HorizontalAccuracy: 3,
		})
	}
	return out
}

func event(id string, sec int) models.ShotEvent {
	return models.ShotEvent{ID: id, EventTimestamp: at(sec)}
}

// fullRound is four shots on hole 1 and a tee shot on hole 2 whose end comes
// from the timing fallback.
func fullRound() ([]models.ShotEvent, []models.LocationSample) {
	events := []models.ShotEvent{
		event("s1", 0), event("s2", 60), event("s3", 120), event("s4", 180), event("s5", 300),
	}
	var samples []models.LocationSample
	samples = append(samples, fixes(0, north(0))...)
	samples = append(samples, fixes(60, north(250))...)
	samples = append(samples, fixes(120, north(392))...)
	samples = append(samples, fixes(180, north(399))...)
	samples = append(samples, fixes(300, north(440))...)
	samples = append(samples, fixes(310, north(580))...)
	return events, samples
}
