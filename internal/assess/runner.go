// Package assess orchestrates the station pipelines: spatial match,
// series assembly, temporal pairing, and skill statistics. Stations are
// independent, so pipelines run on a bounded worker pool; one station's
// failure downgrades its own row and never cancels a sibling.
package assess

import (
	"context"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coastalobs/ofsskill/internal/assemble"
	"github.com/coastalobs/ofsskill/internal/iceskill"
	"github.com/coastalobs/ofsskill/internal/match"
	"github.com/coastalobs/ofsskill/internal/metrics"
	"github.com/coastalobs/ofsskill/internal/models"
	"github.com/coastalobs/ofsskill/internal/pair"
	"github.com/coastalobs/ofsskill/internal/skill"
)

// obsResolution is the native cadence of tide-gauge and buoy observations.
const obsResolution = 6 * time.Minute

// ObservationSource hands over observed series for a station and window.
// The boolean result is explicit: false means no observations exist and the
// station's row is downgraded, never treated as an all-zero series.
type ObservationSource interface {
	Scalar(stationID string, v models.Variable, start, end time.Time) (models.Series, bool)
	Vector(stationID string, start, end time.Time) (models.VectorSeries, bool)
}

// StationResult is one completed pipeline: the resolved model location, the
// aligned pairs, and the statistics row. A downgraded pipeline still
// produces a result, with missing statistics and the downgrade reason.
type StationResult struct {
	Entry    models.ControlFileEntry
	Variable models.Variable
	Mode     models.Mode
	Paired   []models.PairedRecord
	Stats    models.SkillStatSet
	Skipped  string // empty when the pipeline completed
}

// Runner drives the full assessment for one OFS.
type Runner struct {
	spec      assemble.OFSSpec
	assembler *assemble.Assembler
	matcher   *match.Matcher
	obs       ObservationSource
	workers   int
}

// NewRunner wires the pipeline stages. workers bounds pipeline concurrency;
// values below one run single threaded.
func NewRunner(spec assemble.OFSSpec, assembler *assemble.Assembler, matcher *match.Matcher, obs ObservationSource, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{spec: spec, assembler: assembler, matcher: matcher, obs: obs, workers: workers}
}

type job struct {
	station  models.Station
	variable models.Variable
	mode     models.Mode
}

// Run assesses every station for every requested variable and mode over
// [start, end]. forecastHour selects the forecast_a cycle; when forecast_a
// is among the modes its derived end date overrides end for the whole run.
// Results come back in a deterministic order: station, then variable, then
// mode.
func (r *Runner) Run(ctx context.Context, stations []models.Station, variables []models.Variable, modes []models.Mode, start, end time.Time, forecastHour int) ([]StationResult, error) {
	end = r.assembler.ResolveEndDate(start, end, modes, forecastHour)

	var jobs []job
	for _, st := range stations {
		for _, v := range variables {
			if v.Kind() == models.KindIce {
				continue // gridded path, see RunIce
			}
			for _, m := range modes {
				jobs = append(jobs, job{station: st, variable: v, mode: m})
			}
		}
	}

	// Each worker writes only its own slot, so no locking around results.
	results := make([]StationResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.assessStation(j, start, end, forecastHour)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		if ra.Entry.Station.ID != rb.Entry.Station.ID {
			return ra.Entry.Station.ID < rb.Entry.Station.ID
		}
		if ra.Variable != rb.Variable {
			return ra.Variable < rb.Variable
		}
		return ra.Mode < rb.Mode
	})
	return results, nil
}

// assessStation runs one station pipeline end to end. Every failure path
// returns a downgraded result rather than an error.
func (r *Runner) assessStation(j job, start, end time.Time, forecastHour int) StationResult {
	calc := skill.NewCalculator(j.variable)
	res := StationResult{Variable: j.variable, Mode: j.mode}
	base := models.SkillStatSet{
		StationID: j.station.ID,
		Node:      int(models.Sentinel),
		Mode:      j.mode,
		Start:     start,
		End:       end,
	}

	entry, err := r.matcher.Match(j.station, j.variable)
	res.Entry = entry
	if err != nil || !entry.Matched {
		reason := "unmatched"
		if err != nil {
			reason = "no_depth"
		}
		return r.downgrade(res, calc, base, reason)
	}
	base.Node = entry.Location.Node

	assembled, err := r.assembler.Assemble(start, end, j.mode, j.station.ID, j.variable, forecastHour)
	if err != nil {
		log.Printf("assess: assemble %s %s %s: %v", j.station.ID, j.variable, j.mode, err)
		return r.downgrade(res, calc, base, "assemble_failed")
	}
	metrics.CycleGaps.WithLabelValues(j.variable.String(), j.mode.String()).Add(float64(len(assembled.Gaps)))

	var paired []models.PairedRecord
	pairer := pair.NewPairer(r.pairTolerance())
	if j.variable.Kind() == models.KindVector {
		obs, ok := r.obs.Vector(j.station.ID, start, end)
		if !ok {
			return r.downgrade(res, calc, base, "no_observations")
		}
		paired = pairer.PairVector(obs, assembled.Vector)
	} else {
		obs, ok := r.obs.Scalar(j.station.ID, j.variable, start, end)
		if !ok {
			return r.downgrade(res, calc, base, "no_observations")
		}
		paired = pairer.PairScalar(obs, assembled.Series)
	}
	metrics.PairedRecords.WithLabelValues(j.variable.String(), j.mode.String()).Add(float64(len(paired)))

	res.Paired = paired
	res.Stats = calc.Compute(base, paired)
	metrics.StationsProcessed.WithLabelValues(j.variable.String(), j.mode.String()).Inc()
	return res
}

func (r *Runner) downgrade(res StationResult, calc *skill.Calculator, base models.SkillStatSet, reason string) StationResult {
	log.Printf("assess: station %s %s %s downgraded: %s", base.StationID, res.Variable, res.Mode, reason)
	metrics.StationsDowngraded.WithLabelValues(res.Variable.String(), res.Mode.String(), reason).Inc()
	res.Skipped = reason
	res.Stats = calc.MissingStats(base)
	return res
}

// pairTolerance is half the coarser of the observation cadence and the
// model output step.
func (r *Runner) pairTolerance() time.Duration {
	coarser := r.assembler.Step()
	if obsResolution > coarser {
		coarser = obsResolution
	}
	return coarser / 2
}

// RunIce reduces the daily ice grid sequence. Daily reductions run on the
// worker pool; the onset and thaw scan needs the complete ordered series,
// so it runs single threaded afterwards. A day whose lattices mismatch is
// skipped, not fatal.
func (r *Runner) RunIce(ctx context.Context, pairs []models.IceGridPair, clim *models.ClimatologyGrid) (iceskill.SeasonStats, error) {
	calc := iceskill.NewCalculator(clim)

	daily := make([]*iceskill.DailyStats, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := calc.ComputeDaily(p)
			if err != nil {
				log.Printf("assess: ice day skipped: %v", err)
				metrics.IceDaysSkipped.Inc()
				return nil
			}
			daily[i] = &d
			metrics.IceDaysProcessed.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return iceskill.SeasonStats{}, err
	}

	kept := make([]iceskill.DailyStats, 0, len(daily))
	for _, d := range daily {
		if d != nil {
			kept = append(kept, *d)
		}
	}
	return iceskill.Season(kept), nil
}
