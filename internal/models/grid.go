package models

import (
	"fmt"
	"time"
)

// Grid is a regular lattice of ice concentration in percent. Invalid cells
// are land or no-data and are excluded from every statistic.
type Grid struct {
	NX, NY int
	Cells  []Value // row-major, length NX*NY
}

// NewGrid allocates an all-missing grid.
func NewGrid(nx, ny int) Grid {
	return Grid{NX: nx, NY: ny, Cells: make([]Value, nx*ny)}
}

func (g Grid) At(i, j int) Value {
	return g.Cells[i*g.NY+j]
}

func (g *Grid) Set(i, j int, v Value) {
	g.Cells[i*g.NY+j] = v
}

// SameShape reports whether two grids share dimensions.
func (g Grid) SameShape(o Grid) bool {
	return g.NX == o.NX && g.NY == o.NY
}

// IceGridPair is one day's modeled and observed concentration grids on a
// common lattice.
type IceGridPair struct {
	Date  time.Time
	Model Grid
	Obs   Grid
}

// Validate enforces the common-lattice assumption. A mismatch is fatal for
// the day, not for the run.
func (p IceGridPair) Validate() error {
	if !p.Model.SameShape(p.Obs) {
		return fmt.Errorf("grid dimension mismatch on %s: model %dx%d, obs %dx%d",
			p.Date.Format("2006-01-02"), p.Model.NX, p.Model.NY, p.Obs.NX, p.Obs.NY)
	}
	return nil
}

// ClimatologyGrid holds per-calendar-day long-term mean grids. It is a
// statistical reference only and is never mutated after construction.
type ClimatologyGrid struct {
	days map[string]Grid
}

// NewClimatologyGrid builds the day-of-year lookup. Keys are "01-02" style
// month-day strings.
func NewClimatologyGrid(days map[string]Grid) *ClimatologyGrid {
	copied := make(map[string]Grid, len(days))
	for k, v := range days {
		copied[k] = v
	}
	return &ClimatologyGrid{days: copied}
}

// ForDate returns the climatology grid for a calendar day.
func (c *ClimatologyGrid) ForDate(t time.Time) (Grid, bool) {
	g, ok := c.days[t.Format("01-02")]
	return g, ok
}
