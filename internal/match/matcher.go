package match

import (
	"errors"

	"github.com/coastalobs/ofsskill/internal/models"
)

// Candidate is one model point a station may resolve to: a pre-extracted
// node for stations-format output, or a grid cell for fields-format output.
// LayerDepths are the representative depths (meters, positive down) of each
// vertical level at that point.
type Candidate struct {
	Index       int
	I, J        int
	Latitude    float64
	Longitude   float64
	Masked      bool // land or inactive cell, never matchable
	LayerDepths []float64
}

// DefaultToleranceKM bounds acceptable station-to-node distance.
const DefaultToleranceKM = 2.0

// ErrNoDepth is returned when vertical matching is required but the station
// has no reported depth. The station is excluded, the run continues.
var ErrNoDepth = errors.New("station depth missing, vertical matching required")

// Matcher resolves stations to their nearest model representation point.
type Matcher struct {
	candidates []Candidate
	tolerance  float64
}

func NewMatcher(candidates []Candidate, toleranceKM float64) *Matcher {
	if toleranceKM <= 0 {
		toleranceKM = DefaultToleranceKM
	}
	return &Matcher{candidates: candidates, tolerance: toleranceKM}
}

// Match finds the closest unmasked candidate within tolerance, then the
// vertical layer nearest the station's reported depth. Surface variables
// skip the vertical step. A station with no acceptable candidate gets an
// unmatched entry, retained for traceability.
//
// Candidates are scanned in ascending index order and only a strictly
// smaller distance replaces the current best, so equidistant candidates
// resolve deterministically to the lowest index.
func (m *Matcher) Match(st models.Station, v models.Variable) (models.ControlFileEntry, error) {
	entry := models.ControlFileEntry{
		Station:  st,
		Location: models.ModelGridLocation{Node: int(models.Sentinel), I: -1, J: -1, Layer: -1},
	}

	best := -1
	bestDist := 0.0
	for i, c := range m.candidates {
		if c.Masked {
			continue
		}
		d := Distance(st.Latitude, st.Longitude, c.Latitude, c.Longitude)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > m.tolerance {
		return entry, nil
	}

	c := m.candidates[best]
	entry.Matched = true
	entry.DistanceKM = bestDist
	entry.Location = models.ModelGridLocation{
		Node:      c.Index,
		I:         c.I,
		J:         c.J,
		Layer:     -1,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}

	if v.Surface() || len(c.LayerDepths) == 0 {
		return entry, nil
	}
	if !st.Depth.Valid {
		return models.ControlFileEntry{Station: st, Location: entry.Location, Matched: false}, ErrNoDepth
	}
	layer, depth := nearestDepth(c.LayerDepths, st.Depth.Float64)
	entry.Location.Layer = layer
	entry.Location.Depth = depth
	return entry, nil
}

// MatchAll resolves every station. Per-station vertical failures are
// reported in the entries, not as an error, so siblings are unaffected.
func (m *Matcher) MatchAll(stations []models.Station, v models.Variable) []models.ControlFileEntry {
	entries := make([]models.ControlFileEntry, 0, len(stations))
	for _, st := range stations {
		entry, err := m.Match(st, v)
		if err != nil {
			entry.Matched = false
		}
		entries = append(entries, entry)
	}
	return entries
}

// nearestDepth picks the layer whose representative depth is closest to the
// station's reported depth. First layer wins ties.
func nearestDepth(layerDepths []float64, stationDepth float64) (int, float64) {
	best := 0
	bestDist := absDiff(layerDepths[0], stationDepth)
	for i, d := range layerDepths[1:] {
		if dist := absDiff(d, stationDepth); dist < bestDist {
			best, bestDist = i+1, dist
		}
	}
	return best, layerDepths[best]
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
