package repository

import "ShotTrace/internal/domain/models"

// HoleLayout is the geometry of one hole. Distances are yards.
type HoleLayout interface {
	Number() int
	Tee() models.Coordinate
	Pin() models.Coordinate
	GreenRadius() float64
	DistanceToPin(c models.Coordinate) float64
	IsOnGreen(c models.Coordinate) bool
}

// CourseGeometry gives access to every hole of a loaded course.
type CourseGeometry interface {
	Hole(number int) (HoleLayout, bool)
	Holes() []HoleLayout
}
