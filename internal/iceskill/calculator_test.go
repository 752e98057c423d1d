package iceskill

import (
	"math"
	"testing"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

func gridOf(values ...float64) models.Grid {
	g := models.NewGrid(1, len(values))
	for i, v := range values {
		g.Cells[i] = models.FromSentinel(v)
	}
	return g
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeDailyCSIScenario(t *testing.T) {
	// 10 cells: 4 hits, 1 false alarm, 2 misses, 3 open water.
	obs := gridOf(50, 60, 70, 80, 0, 30, 40, 0, 0, 0)
	mod := gridOf(55, 65, 75, 85, 20, 0, 0, 5, 5, 5)
	calc := NewCalculator(nil)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: mod, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}

	if d.Hits != 4 || d.FalseAlarms != 1 || d.Misses != 2 {
		t.Fatalf("hits/fa/misses = %d/%d/%d, want 4/1/2", d.Hits, d.FalseAlarms, d.Misses)
	}
	want := 4.0 / 7.0
	if !d.CSI.Valid || math.Abs(d.CSI.Float64-want) > 1e-9 {
		t.Errorf("CSI = %v, want %v", d.CSI.Float64, want)
	}
}

func TestComputeDailyCSIIdenticalMasks(t *testing.T) {
	obs := gridOf(50, 60, 0, 0, 0, 0, 0, 0, 0, 0)
	mod := gridOf(90, 15, 0, 0, 5, 5, 5, 5, 5, 5)
	calc := NewCalculator(nil)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: mod, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if !d.CSI.Valid || d.CSI.Float64 != 1 {
		t.Errorf("CSI = %v, want 1 for identical non-empty extent masks", d.CSI.Float64)
	}
}

func TestComputeDailyCSIMissingWhenNoIce(t *testing.T) {
	obs := gridOf(0, 1, 2, 0, 3, 0, 2, 1, 0, 0)
	mod := gridOf(1, 0, 2, 3, 0, 1, 0, 0, 2, 1)
	calc := NewCalculator(nil)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: mod, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if d.CSI.Valid {
		t.Errorf("CSI = %v, want missing with no ice anywhere", d.CSI.Float64)
	}
}

func TestComputeDailyDimensionMismatch(t *testing.T) {
	calc := NewCalculator(nil)
	_, err := calc.ComputeDaily(models.IceGridPair{
		Date:  day(1),
		Model: models.NewGrid(2, 3),
		Obs:   models.NewGrid(3, 2),
	})
	if err == nil {
		t.Error("ComputeDaily with mismatched lattices = nil error, want error")
	}
}

func TestComputeDailyExtentAndMeans(t *testing.T) {
	obs := gridOf(20, 20, 20, 20, 20, 0, 0, 0, 0, 0)
	mod := gridOf(20, 20, 20, 20, 20, 0, 0, 0, 0, 0)
	calc := NewCalculator(nil)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: mod, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if !d.ExtentObs.Valid || d.ExtentObs.Float64 != 50 {
		t.Errorf("ExtentObs = %v, want 50", d.ExtentObs.Float64)
	}
	if !d.MeanObs.Valid || d.MeanObs.Float64 != 10 {
		t.Errorf("MeanObs = %v, want 10", d.MeanObs.Float64)
	}
	if !d.RMSEAll.Valid || d.RMSEAll.Float64 != 0 {
		t.Errorf("RMSEAll = %v, want 0 for identical grids", d.RMSEAll.Float64)
	}
	if !d.HitRateModel.Valid || d.HitRateModel.Float64 != 100 {
		t.Errorf("HitRateModel = %v, want 100", d.HitRateModel.Float64)
	}
}

func TestComputeDailyInvalidCellsExcluded(t *testing.T) {
	obs := gridOf(-999, 20, 20, 20, 20, 20, 0, 0, 0, 0)
	mod := gridOf(50, 20, 20, 20, 20, 20, 0, 0, 0, 0)
	calc := NewCalculator(nil)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: mod, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if d.ValidCells != 9 {
		t.Errorf("ValidCells = %d, want 9 (invalid obs cell excluded)", d.ValidCells)
	}
	if !d.RMSEAll.Valid || d.RMSEAll.Float64 != 0 {
		t.Errorf("RMSEAll = %v, want 0 (the mismatching cell is invalid)", d.RMSEAll.Float64)
	}
}

func climFor(dates []time.Time, g models.Grid) *models.ClimatologyGrid {
	days := make(map[string]models.Grid)
	for _, d := range dates {
		days[d.Format("01-02")] = g
	}
	return models.NewClimatologyGrid(days)
}

func TestSkillScorePerfectModel(t *testing.T) {
	obs := gridOf(50, 60, 70, 80, 20, 30, 0, 0, 0, 0)
	mod := obs
	clim := climFor([]time.Time{day(1)}, gridOf(10, 10, 10, 10, 10, 10, 10, 10, 10, 10))
	calc := NewCalculator(clim)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: mod, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if !d.SkillScore.Valid || math.Abs(d.SkillScore.Float64-1) > 1e-9 {
		t.Errorf("SkillScore = %v, want exactly 1 for a perfect model", d.SkillScore.Float64)
	}
}

func TestSkillScoreZeroWhenModelMatchesClimatology(t *testing.T) {
	obs := gridOf(50, 60, 70, 80, 20, 30, 0, 0, 0, 0)
	mod := gridOf(40, 50, 60, 70, 10, 20, 5, 5, 5, 5)
	clim := climFor([]time.Time{day(1)}, mod)
	calc := NewCalculator(clim)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: mod, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if !d.SkillScore.Valid || math.Abs(d.SkillScore.Float64) > 1e-9 {
		t.Errorf("SkillScore = %v, want 0 when model MSE equals reference MSE", d.SkillScore.Float64)
	}
}

func TestSkillScoreMissingWhenReferencePerfect(t *testing.T) {
	obs := gridOf(50, 60, 70, 80, 20, 30, 0, 0, 0, 0)
	clim := climFor([]time.Time{day(1)}, obs)
	calc := NewCalculator(clim)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: obs, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if d.SkillScore.Valid {
		t.Errorf("SkillScore = %v, want missing when reference MSE is 0", d.SkillScore.Float64)
	}
}

func TestSkillScoreMissingWithoutClimatology(t *testing.T) {
	obs := gridOf(50, 60, 70, 80, 20, 30, 0, 0, 0, 0)
	calc := NewCalculator(nil)

	d, err := calc.ComputeDaily(models.IceGridPair{Date: day(1), Model: obs, Obs: obs})
	if err != nil {
		t.Fatalf("ComputeDaily: %v", err)
	}
	if d.SkillScore.Valid {
		t.Errorf("SkillScore = %v, want missing without climatology", d.SkillScore.Float64)
	}
}
