package assemble

import (
	"fmt"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

// CycleData is the decoded output of one model cycle for one station and
// variable, as delivered by the upstream collaborator. Scalar variables fill
// Samples; currents fill Vectors.
type CycleData struct {
	Samples []models.Sample
	Vectors []models.VectorSample
}

// CycleSource hands over model cycle output. The boolean result is explicit:
// false means the cycle is unavailable and the assembler records a gap. A
// source never signals absence by returning empty data with ok=true.
type CycleSource interface {
	Cycle(cycle time.Time, stationID string, v models.Variable, mode models.Mode) (CycleData, bool)
}

// AssembledSeries is one continuous, timestamp-indexed model series with the
// gap intervals that were filled with missing samples.
type AssembledSeries struct {
	Series models.Series
	Vector models.VectorSeries
	Start  time.Time
	End    time.Time
	Gaps   []models.Gap
}

// Assembler stitches discrete cycle outputs into continuous series.
type Assembler struct {
	spec   OFSSpec
	step   time.Duration
	source CycleSource
}

func New(spec OFSSpec, fileType models.FileType, source CycleSource) *Assembler {
	step := spec.OutputStep
	if fileType == models.FileTypeStations {
		step = spec.StationsStep
	}
	return &Assembler{spec: spec, step: step, source: source}
}

// Step is the native output interval the assembler fills gaps at.
func (a *Assembler) Step() time.Duration { return a.step }

// ForecastACycle selects the single forecast cycle for a forecast_a run.
// The requested hour is snapped to the nearest published cycle hour, and the
// returned end time is derived from the OFS forecast horizon.
func (a *Assembler) ForecastACycle(start time.Time, hour int) (cycle, end time.Time) {
	snapped := a.spec.NearestCycleHour(hour)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	cycle = day.Add(time.Duration(snapped) * time.Hour)
	return cycle, cycle.Add(a.spec.Horizon)
}

// ResolveEndDate applies the forecast_a precedence rule: when forecast_a is
// among the requested modes, its derived end date overrides the caller's end
// date for every mode in the run.
func (a *Assembler) ResolveEndDate(start, end time.Time, modes []models.Mode, forecastHour int) time.Time {
	for _, m := range modes {
		if m == models.ForecastA {
			_, derived := a.ForecastACycle(start, forecastHour)
			return derived
		}
	}
	return end
}

// Assemble builds one continuous series for a station and variable over
// [start, end]. Missing cycles become gap intervals filled with invalid
// samples at the native step; they are never fatal.
func (a *Assembler) Assemble(start, end time.Time, mode models.Mode, stationID string, v models.Variable, forecastHour int) (AssembledSeries, error) {
	if mode == models.ForecastA {
		cycle, derived := a.ForecastACycle(start, forecastHour)
		return a.assembleWindows(cycle.Add(a.step), derived, []cycleWindow{{
			cycle: cycle,
			from:  cycle,
			to:    derived,
		}}, mode, stationID, v), nil
	}
	if end.Before(start) {
		return AssembledSeries{}, fmt.Errorf("end date %s before start date %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	windows := a.stitchWindows(start, end, mode)
	return a.assembleWindows(start, end, windows, mode, stationID, v), nil
}

// cycleWindow is the authoritative slice of one cycle: samples with
// timestamps in (from, to] are owned by that cycle and no other.
type cycleWindow struct {
	cycle    time.Time
	from, to time.Time
}

// stitchWindows enumerates the cycles whose authoritative windows intersect
// [start, end]. Nowcast cycles own the window leading up to their cycle hour;
// forecast_b cycles own the window after it, up to the next cycle. Each
// timestamp in the run is therefore owned exactly once.
func (a *Assembler) stitchWindows(start, end time.Time, mode models.Mode) []cycleWindow {
	interval := a.spec.CycleInterval()
	var windows []cycleWindow
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for ; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, h := range a.spec.CycleHours {
			cycle := day.Add(time.Duration(h) * time.Hour)
			var w cycleWindow
			switch mode {
			case models.Nowcast:
				w = cycleWindow{cycle: cycle, from: cycle.Add(-interval), to: cycle}
			default: // forecast_b
				w = cycleWindow{cycle: cycle, from: cycle, to: cycle.Add(interval)}
			}
			if !w.to.After(start) || !w.from.Before(end) {
				continue
			}
			windows = append(windows, w)
		}
	}
	return windows
}

func (a *Assembler) assembleWindows(start, end time.Time, windows []cycleWindow, mode models.Mode, stationID string, v models.Variable) AssembledSeries {
	vector := v.Kind() == models.KindVector
	scalars := make(map[time.Time]models.Value)
	vectors := make(map[time.Time]models.VectorSample)

	for _, w := range windows {
		data, ok := a.source.Cycle(w.cycle, stationID, v, mode)
		if !ok {
			continue // gap, filled below
		}
		if vector {
			for _, s := range data.Vectors {
				if a.owned(s.Time, w, start, end) {
					vectors[s.Time] = s
				}
			}
			continue
		}
		for _, s := range data.Samples {
			if a.owned(s.Time, w, start, end) {
				scalars[s.Time] = s.Value
			}
		}
	}

	out := AssembledSeries{Start: start, End: end}
	out.Series = models.Series{StationID: stationID, Variable: v}
	out.Vector = models.VectorSeries{StationID: stationID}

	var gapStart time.Time
	inGap := false
	for t := start; !t.After(end); t = t.Add(a.step) {
		missing := false
		if vector {
			s, ok := vectors[t]
			if !ok {
				s = models.VectorSample{Time: t}
				missing = true
			}
			out.Vector.Samples = append(out.Vector.Samples, s)
		} else {
			val, ok := scalars[t]
			if !ok {
				missing = true
			}
			out.Series.Samples = append(out.Series.Samples, models.Sample{Time: t, Value: val})
		}
		if missing && !inGap {
			gapStart, inGap = t, true
		} else if !missing && inGap {
			out.Gaps = append(out.Gaps, models.Gap{Start: gapStart, End: t})
			inGap = false
		}
	}
	if inGap {
		out.Gaps = append(out.Gaps, models.Gap{Start: gapStart, End: end.Add(a.step)})
	}
	return out
}

// owned reports whether a timestamp belongs to a cycle's authoritative
// window and the run range. Timestamps off the native step grid are dropped;
// some model runs emit near-miss times a second early and keeping them would
// duplicate the step they round to.
func (a *Assembler) owned(t time.Time, w cycleWindow, start, end time.Time) bool {
	if !t.After(w.from) || t.After(w.to) {
		return false
	}
	if t.Before(start) || t.After(end) {
		return false
	}
	return t.Sub(start)%a.step == 0
}
