package pair

import (
	"sort"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

// Pairer aligns an observation series and a matched model series onto
// common timestamps. Observations typically arrive at 6-minute resolution
// and fields-format model output hourly; the join tolerance defaults to
// half the coarser resolution.
type Pairer struct {
	tolerance time.Duration
}

// NewPairer builds a pairer joining within +-tolerance. The conventional
// setting is half the coarser of the two native resolutions.
func NewPairer(tolerance time.Duration) *Pairer {
	return &Pairer{tolerance: tolerance}
}

// PairScalar inner-joins two scalar series. For each model timestamp the
// nearest observation within tolerance is taken; invalid samples on either
// side are excluded, never coerced to zero. Unmatched timestamps are simply
// absent from the result and do not disturb either input series.
func (p *Pairer) PairScalar(obs, model models.Series) []models.PairedRecord {
	idx := newSeriesIndex(obs.Samples)
	var out []models.PairedRecord
	for _, m := range model.Samples {
		if !m.Value.Valid {
			continue
		}
		o, ok := idx.nearest(m.Time, p.tolerance)
		if !ok {
			continue
		}
		out = append(out, models.PairedRecord{
			Time:  m.Time,
			Obs:   o,
			Model: m.Value.Float64,
			Bias:  m.Value.Float64 - o,
		})
	}
	return out
}

// PairVector inner-joins two current series. U and V components are paired
// independently, then recombined into speed and direction; the direction
// bias is the circular difference, so a 359 deg observation against a 1 deg
// model reads as +2 deg.
func (p *Pairer) PairVector(obs, model models.VectorSeries) []models.PairedRecord {
	uIdx := newSeriesIndex(componentSamples(obs.Samples, func(s models.VectorSample) models.Value { return s.U }))
	vIdx := newSeriesIndex(componentSamples(obs.Samples, func(s models.VectorSample) models.Value { return s.V }))

	var out []models.PairedRecord
	for _, m := range model.Samples {
		if !m.U.Valid || !m.V.Valid {
			continue
		}
		ou, okU := uIdx.nearest(m.Time, p.tolerance)
		ov, okV := vIdx.nearest(m.Time, p.tolerance)
		if !okU || !okV {
			continue
		}
		obsSpeed, obsDir := SpeedDir(ou, ov)
		modSpeed, modDir := SpeedDir(m.U.Float64, m.V.Float64)
		out = append(out, models.PairedRecord{
			Time:     m.Time,
			Obs:      obsSpeed,
			Model:    modSpeed,
			Bias:     modSpeed - obsSpeed,
			ObsDir:   models.Some(obsDir),
			ModelDir: models.Some(modDir),
			DirBias:  models.Some(DirectionDelta(modDir, obsDir)),
		})
	}
	return out
}

func componentSamples(samples []models.VectorSample, pick func(models.VectorSample) models.Value) []models.Sample {
	out := make([]models.Sample, 0, len(samples))
	for _, s := range samples {
		out = append(out, models.Sample{Time: s.Time, Value: pick(s)})
	}
	return out
}

// seriesIndex supports nearest-timestamp lookup over the valid samples of a
// series.
type seriesIndex struct {
	times  []time.Time
	values []float64
}

func newSeriesIndex(samples []models.Sample) *seriesIndex {
	idx := &seriesIndex{}
	for _, s := range samples {
		if s.Value.Valid {
			idx.times = append(idx.times, s.Time)
			idx.values = append(idx.values, s.Value.Float64)
		}
	}
	if !sort.SliceIsSorted(idx.times, func(i, j int) bool { return idx.times[i].Before(idx.times[j]) }) {
		sort.Sort(idx)
	}
	return idx
}

func (idx *seriesIndex) Len() int           { return len(idx.times) }
func (idx *seriesIndex) Less(i, j int) bool { return idx.times[i].Before(idx.times[j]) }
func (idx *seriesIndex) Swap(i, j int) {
	idx.times[i], idx.times[j] = idx.times[j], idx.times[i]
	idx.values[i], idx.values[j] = idx.values[j], idx.values[i]
}

// nearest finds the sample closest to t within +-tolerance. Earlier sample
// wins an exact tie.
func (idx *seriesIndex) nearest(t time.Time, tolerance time.Duration) (float64, bool) {
	if len(idx.times) == 0 {
		return 0, false
	}
	i := sort.Search(len(idx.times), func(i int) bool { return !idx.times[i].Before(t) })
	best := -1
	var bestDist time.Duration
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(idx.times) {
			continue
		}
		d := t.Sub(idx.times[j])
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = j, d
		}
	}
	if best < 0 || bestDist > tolerance {
		return 0, false
	}
	return idx.values[best], true
}
