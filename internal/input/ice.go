package input

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

type gridJSON struct {
	NX    int        `json:"nx"`
	NY    int        `json:"ny"`
	Cells []*float64 `json:"cells"`
}

type iceDayJSON struct {
	Date  time.Time `json:"date"`
	Model gridJSON  `json:"model"`
	Obs   gridJSON  `json:"obs"`
}

type iceFileJSON struct {
	Days        []iceDayJSON        `json:"days"`
	Climatology map[string]gridJSON `json:"climatology,omitempty"`
}

// LoadIce reads the daily grid pairs and optional day-of-year climatology
// for the ice path. Climatology keys are "01-02" style month-day strings.
func LoadIce(path string) ([]models.IceGridPair, *models.ClimatologyGrid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read ice dataset: %w", err)
	}
	var fj iceFileJSON
	if err := json.Unmarshal(raw, &fj); err != nil {
		return nil, nil, fmt.Errorf("decode ice dataset %s: %w", path, err)
	}

	pairs := make([]models.IceGridPair, 0, len(fj.Days))
	for _, d := range fj.Days {
		model, err := toGrid(d.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("model grid for %s: %w", d.Date.Format("2006-01-02"), err)
		}
		obs, err := toGrid(d.Obs)
		if err != nil {
			return nil, nil, fmt.Errorf("obs grid for %s: %w", d.Date.Format("2006-01-02"), err)
		}
		pairs = append(pairs, models.IceGridPair{Date: d.Date.UTC(), Model: model, Obs: obs})
	}

	var clim *models.ClimatologyGrid
	if len(fj.Climatology) > 0 {
		days := make(map[string]models.Grid, len(fj.Climatology))
		for key, g := range fj.Climatology {
			grid, err := toGrid(g)
			if err != nil {
				return nil, nil, fmt.Errorf("climatology grid %s: %w", key, err)
			}
			days[key] = grid
		}
		clim = models.NewClimatologyGrid(days)
	}
	return pairs, clim, nil
}

func toGrid(g gridJSON) (models.Grid, error) {
	if len(g.Cells) != g.NX*g.NY {
		return models.Grid{}, fmt.Errorf("cell count %d does not match %dx%d", len(g.Cells), g.NX, g.NY)
	}
	grid := models.NewGrid(g.NX, g.NY)
	for i, c := range g.Cells {
		grid.Cells[i] = optional(c)
	}
	return grid, nil
}
