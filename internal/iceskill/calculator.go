// Package iceskill computes gridded ice-concentration skill. Daily model
// and observed grids on a common lattice reduce to per-day basin statistics,
// and the ordered daily sequence reduces to season statistics (onset, thaw,
// ice days).
package iceskill

import (
	"math"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

const (
	// ExtentThreshold is the concentration in percent at or above which a
	// cell counts as ice covered.
	ExtentThreshold = 10.0
	// statThreshold gates cells into the ice-only statistics: a cell
	// participates when the summed model and observed concentration
	// reaches it.
	statThreshold = 1.0
	// minValidCells is the minimum cell count for RMSE and correlation.
	minValidCells = 5
)

// DailyStats is one day's basin-wide reduction of a model/observation grid
// pair.
type DailyStats struct {
	Date time.Time

	MeanModel   models.Value
	StdModel    models.Value
	MeanObs     models.Value
	StdObs      models.Value
	ExtentModel models.Value // percent of valid cells at or above ExtentThreshold
	ExtentObs   models.Value

	RMSEAll models.Value // every cell valid in both grids
	RMSEIce models.Value // cells where model or observation has ice
	R       models.Value

	SkillScore models.Value // 1 - MSE(model,obs)/MSE(climatology,obs)
	CSI        models.Value

	Hits        int
	FalseAlarms int
	Misses      int
	ValidCells  int

	HitRateModel models.Value // percent of modeled ice cells observed as ice
	HitRateObs   models.Value // percent of observed ice cells modeled as ice
}

// Calculator reduces daily grid pairs against an optional climatology.
type Calculator struct {
	clim *models.ClimatologyGrid
}

// NewCalculator builds a daily grid reducer. clim may be nil, in which case
// the skill score is always missing.
func NewCalculator(clim *models.ClimatologyGrid) *Calculator {
	return &Calculator{clim: clim}
}

// ComputeDaily reduces one day's grid pair. A lattice dimension mismatch is
// an error for the day only; callers skip the day and continue the season.
func (c *Calculator) ComputeDaily(p models.IceGridPair) (DailyStats, error) {
	if err := p.Validate(); err != nil {
		return DailyStats{}, err
	}

	d := DailyStats{Date: p.Date}

	var modAll, obsAll []float64
	var modIce, obsIce []float64
	var modIceCells, obsIceCells, overlapCells int
	var hits, falseAlarms, misses int

	for idx, ov := range p.Obs.Cells {
		mv := p.Model.Cells[idx]
		if !ov.Valid || !mv.Valid {
			continue
		}
		d.ValidCells++
		modAll = append(modAll, mv.Float64)
		obsAll = append(obsAll, ov.Float64)
		if mv.Float64+ov.Float64 >= statThreshold {
			modIce = append(modIce, mv.Float64)
			obsIce = append(obsIce, ov.Float64)
		}

		modIced := mv.Float64 >= ExtentThreshold
		obsIced := ov.Float64 >= ExtentThreshold
		if modIced {
			modIceCells++
		}
		if obsIced {
			obsIceCells++
		}
		switch {
		case modIced && obsIced:
			hits++
			overlapCells++
		case modIced:
			falseAlarms++
		case obsIced:
			misses++
		}
	}
	d.Hits, d.FalseAlarms, d.Misses = hits, falseAlarms, misses

	if d.ValidCells > 0 {
		d.MeanModel = models.Some(mean(modAll))
		d.StdModel = models.Some(stdDev(modAll))
		d.MeanObs = models.Some(mean(obsAll))
		d.StdObs = models.Some(stdDev(obsAll))
		d.ExtentModel = models.Some(float64(modIceCells) / float64(d.ValidCells) * 100)
		d.ExtentObs = models.Some(float64(obsIceCells) / float64(d.ValidCells) * 100)
	}

	if d.ValidCells > minValidCells {
		d.RMSEAll = models.Some(rmse(modAll, obsAll))
		d.SkillScore = c.skillScore(p, d.RMSEAll)
	}
	if len(modIce) > minValidCells {
		d.RMSEIce = models.Some(rmse(modIce, obsIce))
		d.R = pearson(obsIce, modIce)
	}

	if denom := hits + falseAlarms + misses; denom > 0 {
		d.CSI = models.Some(float64(hits) / float64(denom))
	}
	if modIceCells > 0 {
		d.HitRateModel = models.Some(float64(overlapCells) / float64(modIceCells) * 100)
	}
	if obsIceCells > 0 {
		d.HitRateObs = models.Some(float64(overlapCells) / float64(obsIceCells) * 100)
	}
	return d, nil
}

// skillScore compares the model against climatology as the reference
// forecast: 1 - MSE(model,obs)/MSE(climatology,obs). Positive values favor
// the model, zero means equal skill, one is a perfect match. A zero
// reference MSE leaves the score undefined.
func (c *Calculator) skillScore(p models.IceGridPair, rmseAll models.Value) models.Value {
	if c.clim == nil || !rmseAll.Valid {
		return models.Missing()
	}
	ref, ok := c.clim.ForDate(p.Date)
	if !ok || !ref.SameShape(p.Obs) {
		return models.Missing()
	}
	var sum float64
	var n int
	for idx, ov := range p.Obs.Cells {
		cv := ref.Cells[idx]
		if !ov.Valid || !cv.Valid || !p.Model.Cells[idx].Valid {
			continue
		}
		diff := cv.Float64 - ov.Float64
		sum += diff * diff
		n++
	}
	if n == 0 {
		return models.Missing()
	}
	mseRef := sum / float64(n)
	if mseRef == 0 {
		return models.Missing()
	}
	return models.Some(1 - rmseAll.Float64*rmseAll.Float64/mseRef)
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func rmse(mod, obs []float64) float64 {
	var sum float64
	for i := range mod {
		d := mod[i] - obs[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(mod)))
}

func pearson(xs, ys []float64) models.Value {
	if len(xs) < 2 {
		return models.Missing()
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return models.Missing()
	}
	return models.Some(sxy / math.Sqrt(sxx*syy))
}
