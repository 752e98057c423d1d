// Package input loads pre-materialized assessment inputs from the engine's
// JSON interchange: station inventory, model point candidates, per-cycle
// model output, and observed series. Upstream retrieval and model file
// decoding happen elsewhere; this package only maps the interchange onto
// the in-memory types.
package input

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coastalobs/ofsskill/internal/assemble"
	"github.com/coastalobs/ofsskill/internal/match"
	"github.com/coastalobs/ofsskill/internal/models"
)

type stationJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Provider   string   `json:"provider"`
	Latitude   float64  `json:"lat"`
	Longitude  float64  `json:"lon"`
	Depth      *float64 `json:"depth,omitempty"`
	DatumShift *float64 `json:"datum_shift,omitempty"`
}

type candidateJSON struct {
	Index       int       `json:"index"`
	I           int       `json:"i"`
	J           int       `json:"j"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
	Masked      bool      `json:"masked,omitempty"`
	LayerDepths []float64 `json:"layer_depths,omitempty"`
}

type sampleJSON struct {
	Time  time.Time `json:"time"`
	Value *float64  `json:"value,omitempty"`
	U     *float64  `json:"u,omitempty"`
	V     *float64  `json:"v,omitempty"`
}

type cycleJSON struct {
	Cycle    time.Time    `json:"cycle"`
	Station  string       `json:"station"`
	Variable string       `json:"variable"`
	Mode     string       `json:"mode"`
	Samples  []sampleJSON `json:"samples"`
}

type seriesJSON struct {
	Station  string       `json:"station"`
	Variable string       `json:"variable"`
	Samples  []sampleJSON `json:"samples"`
}

type datasetJSON struct {
	Stations     []stationJSON   `json:"stations"`
	Candidates   []candidateJSON `json:"candidates"`
	Cycles       []cycleJSON     `json:"cycles"`
	Observations []seriesJSON    `json:"observations"`
}

// Dataset is a loaded input file. It serves as both the cycle source for
// assembly and the observation source for pairing.
type Dataset struct {
	stations   []models.Station
	candidates []match.Candidate
	cycles     map[cycleKey]assemble.CycleData
	scalarObs  map[obsKey]models.Series
	vectorObs  map[string]models.VectorSeries
}

type cycleKey struct {
	cycle    time.Time
	station  string
	variable models.Variable
	mode     models.Mode
}

type obsKey struct {
	station  string
	variable models.Variable
}

// Load reads and indexes one dataset file.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var dj datasetJSON
	if err := json.Unmarshal(raw, &dj); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}

	ds := &Dataset{
		cycles:    make(map[cycleKey]assemble.CycleData),
		scalarObs: make(map[obsKey]models.Series),
		vectorObs: make(map[string]models.VectorSeries),
	}

	for _, s := range dj.Stations {
		ds.stations = append(ds.stations, models.Station{
			ID:         s.ID,
			Name:       s.Name,
			Provider:   models.Provider(s.Provider),
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			Depth:      optional(s.Depth),
			DatumShift: optional(s.DatumShift),
		})
	}
	for _, c := range dj.Candidates {
		ds.candidates = append(ds.candidates, match.Candidate{
			Index:       c.Index,
			I:           c.I,
			J:           c.J,
			Latitude:    c.Latitude,
			Longitude:   c.Longitude,
			Masked:      c.Masked,
			LayerDepths: c.LayerDepths,
		})
	}

	for _, c := range dj.Cycles {
		v, err := models.ParseVariable(c.Variable)
		if err != nil {
			return nil, fmt.Errorf("cycle for station %s: %w", c.Station, err)
		}
		m, err := models.ParseMode(c.Mode)
		if err != nil {
			return nil, fmt.Errorf("cycle for station %s: %w", c.Station, err)
		}
		key := cycleKey{cycle: c.Cycle.UTC(), station: c.Station, variable: v, mode: m}
		ds.cycles[key] = toCycleData(v, c.Samples)
	}

	for _, o := range dj.Observations {
		v, err := models.ParseVariable(o.Variable)
		if err != nil {
			return nil, fmt.Errorf("observations for station %s: %w", o.Station, err)
		}
		if v.Kind() == models.KindVector {
			vs := models.VectorSeries{StationID: o.Station}
			for _, s := range o.Samples {
				vs.Samples = append(vs.Samples, models.VectorSample{
					Time: s.Time.UTC(), U: optional(s.U), V: optional(s.V),
				})
			}
			ds.vectorObs[o.Station] = vs
			continue
		}
		series := models.Series{StationID: o.Station, Variable: v}
		for _, s := range o.Samples {
			series.Samples = append(series.Samples, models.Sample{
				Time: s.Time.UTC(), Value: optional(s.Value),
			})
		}
		ds.scalarObs[obsKey{station: o.Station, variable: v}] = series
	}
	return ds, nil
}

func optional(f *float64) models.Value {
	if f == nil {
		return models.Missing()
	}
	return models.FromSentinel(*f)
}

func toCycleData(v models.Variable, samples []sampleJSON) assemble.CycleData {
	var data assemble.CycleData
	if v.Kind() == models.KindVector {
		for _, s := range samples {
			data.Vectors = append(data.Vectors, models.VectorSample{
				Time: s.Time.UTC(), U: optional(s.U), V: optional(s.V),
			})
		}
		return data
	}
	for _, s := range samples {
		data.Samples = append(data.Samples, models.Sample{
			Time: s.Time.UTC(), Value: optional(s.Value),
		})
	}
	return data
}

// Stations returns the station inventory in file order.
func (d *Dataset) Stations() []models.Station { return d.stations }

// Candidates returns the model point candidates in file order.
func (d *Dataset) Candidates() []match.Candidate { return d.candidates }

// Cycle implements assemble.CycleSource.
func (d *Dataset) Cycle(cycle time.Time, stationID string, v models.Variable, mode models.Mode) (assemble.CycleData, bool) {
	data, ok := d.cycles[cycleKey{cycle: cycle.UTC(), station: stationID, variable: v, mode: mode}]
	return data, ok
}

// Scalar implements assess.ObservationSource for scalar variables. The
// window is not filtered here; pairing tolerates surplus samples.
func (d *Dataset) Scalar(stationID string, v models.Variable, start, end time.Time) (models.Series, bool) {
	s, ok := d.scalarObs[obsKey{station: stationID, variable: v}]
	return s, ok
}

// Vector implements assess.ObservationSource for currents.
func (d *Dataset) Vector(stationID string, start, end time.Time) (models.VectorSeries, bool) {
	s, ok := d.vectorObs[stationID]
	return s, ok
}
