package stability

import (
	"sort"
	"time"

	"ShotTrace/internal/domain/models"
	"ShotTrace/internal/domain/repository"
)

// Table answers stability queries from windows that were resolved ahead of
// the analysis.
type Table struct {
	windows []models.StabilityWindow
}

func NewTable(windows []models.StabilityWindow) *Table {
	ws := make([]models.StabilityWindow, 0, len(windows))
	for _, w := range windows {
		if w.To.Before(w.From) || w.Score < 0 || w.Score > 1 {
			continue
		}
		ws = append(ws, w)
	}
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].From.Before(ws[j].From) })
	return &Table{windows: ws}
}

// Stability averages every window overlapping [from, to].
func (t *Table) Stability(from, to time.Time) (float64, bool) {
	sum, n := 0.0, 0
	for _, w := range t.windows {
		if w.From.After(to) {
			break
		}
		if w.To.Before(from) {
			continue
		}
		sum += w.Score
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (t *Table) Len() int { return len(t.windows) }

var _ repository.StabilityProvider = (*Table)(nil)
