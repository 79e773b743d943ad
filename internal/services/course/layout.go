package course

import (
	"fmt"
	"os"
	"sort"

	"ShotTrace/internal/domain/models"
	"ShotTrace/internal/domain/repository"
	"ShotTrace/internal/services/location"

	"gopkg.in/yaml.v3"
)

type point struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

func (p point) coordinate() models.Coordinate {
	return models.Coordinate{Latitude: p.Lat, Longitude: p.Lon}
}

type layoutFile struct {
	Name  string `yaml:"name"`
	Holes []struct {
		Number      int     `yaml:"number"`
		Par         int     `yaml:"par"`
		Tee         point   `yaml:"tee"`
		Pin         point   `yaml:"pin"`
		GreenRadius float64 `yaml:"green_radius_yards"`
	} `yaml:"holes"`
}

// Hole is a hole described by its tee, pin and a circular green.
type Hole struct {
	number      int
	par         int
	tee         models.Coordinate
	pin         models.Coordinate
	greenRadius float64
}

func NewHole(number, par int, tee, pin models.Coordinate, greenRadius float64) *Hole {
	return &Hole{number: number, par: par, tee: tee, pin: pin, greenRadius: greenRadius}
}

func (h *Hole) Number() int { return h.number }
func (h *Hole) Par() int { return h.par }
func (h *Hole) Tee() models.Coordinate { return h.tee }
func (h *Hole) Pin() models.Coordinate { return h.pin }
func (h *Hole) GreenRadius() float64 { return h.greenRadius }

func (h *Hole) DistanceToPin(c models.Coordinate) float64 {
	return location.DistanceYards(c, h.pin)
}

func (h *Hole) IsOnGreen(c models.Coordinate) bool {
	return h.DistanceToPin(c) <= h.greenRadius
}

// Course is a loaded course layout.
type Course struct {
	Name  string
	holes map[int]*Hole
}

func NewCourse(name string, holes ...*Hole) *Course {
	c := &Course{Name: name, holes: make(map[int]*Hole, len(holes))}
	for _, h := range holes {
		c.holes[h.number] = h
	}
	return c
}

func (c *Course) Hole(number int) (repository.HoleLayout, bool) {
	h, ok := c.holes[number]
	if !ok {
		return nil, false
	}
	return h, true
}

// Holes returns every hole ordered by number.
func (c *Course) Holes() []repository.HoleLayout {
	nums := make([]int, 0, len(c.holes))
	for n := range c.holes {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	out := make([]repository.HoleLayout, 0, len(nums))
	for _, n := range nums {
		out = append(out, c.holes[n])
	}
	return out
}

// LoadLayout reads a course layout YAML file.
func LoadLayout(path string) (*Course, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course layout: %w", err)
	}
	return ParseLayout(b)
}

func ParseLayout(b []byte) (*Course, error) {
	var f layoutFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse course layout: %w", err)
	}
	if len(f.Holes) == 0 {
		return nil, fmt.Errorf("course layout %q has no holes", f.Name)
	}
	holes := make([]*Hole, 0, len(f.Holes))
	seen := make(map[int]bool, len(f.Holes))
	for _, h := range f.Holes {
		if h.Number <= 0 {
			return nil, fmt.Errorf("hole number must be positive, got %d", h.Number)
		}
		if seen[h.Number] {
			return nil, fmt.Errorf("duplicate hole %d", h.Number)
		}
		if h.GreenRadius <= 0 {
			return nil, fmt.Errorf("hole %d: green_radius_yards must be positive", h.Number)
		}
		seen[h.Number] = true
		holes = append(holes, NewHole(h.Number, h.Par, h.Tee.coordinate(), h.Pin.coordinate(), h.GreenRadius))
	}
	return NewCourse(f.Name, holes...), nil
}

var _ repository.CourseGeometry = (*Course)(nil)
