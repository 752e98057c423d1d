package iceskill

import (
	"sort"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

// onsetRunLength is the number of consecutive qualifying days required
// before an onset or thaw date is declared.
const onsetRunLength = 5

// Date is an optional calendar date. Onset and thaw stay absent when no
// qualifying run exists; they are never defaulted to season boundaries.
type Date struct {
	Time  time.Time
	Found bool
}

// SeasonStats aggregates an ordered daily sequence into season-level
// results for both the model and the observations.
type SeasonStats struct {
	OnsetModel Date
	OnsetObs   Date
	ThawModel  Date
	ThawObs    Date

	IceDaysModel int
	IceDaysObs   int

	Days []DailyStats
}

// Season scans the daily sequence. Days are sorted by date first; the
// onset and thaw rules depend on order. Days whose basin mean is missing
// break any run in progress.
func Season(days []DailyStats) SeasonStats {
	sorted := make([]DailyStats, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	s := SeasonStats{Days: sorted}
	modMeans := make([]models.Value, len(sorted))
	obsMeans := make([]models.Value, len(sorted))
	for i, d := range sorted {
		modMeans[i] = d.MeanModel
		obsMeans[i] = d.MeanObs
	}

	s.OnsetModel = onset(sorted, modMeans)
	s.OnsetObs = onset(sorted, obsMeans)
	s.ThawModel = thaw(sorted, modMeans)
	s.ThawObs = thaw(sorted, obsMeans)
	s.IceDaysModel = iceDays(modMeans)
	s.IceDaysObs = iceDays(obsMeans)
	return s
}

// onset is the first day of the first run of onsetRunLength consecutive
// days with basin-mean concentration at or above ExtentThreshold.
func onset(days []DailyStats, means []models.Value) Date {
	run := 0
	for i, m := range means {
		if m.Valid && m.Float64 >= ExtentThreshold {
			run++
		} else {
			run = 0
		}
		if run == onsetRunLength {
			return Date{Time: days[i-onsetRunLength+1].Date, Found: true}
		}
	}
	return Date{}
}

// thaw is the first day of the last run of onsetRunLength consecutive days
// below ExtentThreshold that begins after at least one ice day. With no
// preceding ice day there is nothing to thaw.
func thaw(days []DailyStats, means []models.Value) Date {
	firstIce := -1
	for i, m := range means {
		if m.Valid && m.Float64 >= ExtentThreshold {
			firstIce = i
			break
		}
	}
	if firstIce < 0 {
		return Date{}
	}

	best := Date{}
	run := 0
	for i := firstIce + 1; i < len(means); i++ {
		m := means[i]
		if m.Valid && m.Float64 < ExtentThreshold {
			run++
		} else {
			run = 0
		}
		if run == onsetRunLength {
			best = Date{Time: days[i-onsetRunLength+1].Date, Found: true}
		}
	}
	return best
}

// iceDays counts days at or above ExtentThreshold, independent of whether
// a qualifying onset run ever forms.
func iceDays(means []models.Value) int {
	n := 0
	for _, m := range means {
		if m.Valid && m.Float64 >= ExtentThreshold {
			n++
		}
	}
	return n
}
