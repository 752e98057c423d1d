// Package skill reduces paired observation/model series to the standard
// skill-statistic suite: RMSE, mean bias, bias percentage, Pearson R, bias
// standard deviation, and the central/outlier frequencies with their
// acceptance verdicts.
package skill

import (
	"math"

	"github.com/coastalobs/ofsskill/internal/models"
	"github.com/coastalobs/ofsskill/internal/pair"
)

// Mean of a series.
func Mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// RMSE is sqrt(mean(x^2)); missing for an empty series, never NaN.
func RMSE(biases []float64) models.Value {
	if len(biases) == 0 {
		return models.Missing()
	}
	var sum float64
	for _, b := range biases {
		sum += b * b
	}
	return models.Some(math.Sqrt(sum / float64(len(biases))))
}

// StdDev is the population standard deviation (divide by n). Population,
// not sample: plotted confidence bands depend on this convention staying
// fixed.
func StdDev(xs []float64) models.Value {
	if len(xs) == 0 {
		return models.Missing()
	}
	m := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return models.Some(math.Sqrt(sum / float64(len(xs))))
}

// Pearson is the linear correlation between two equal-length series.
// Missing with fewer than two points or when either side has zero variance.
func Pearson(xs, ys []float64) models.Value {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return models.Missing()
	}
	mx, my := Mean(xs), Mean(ys)
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

// frequencies computes the central frequency (|bias| <= T) and positive and
// negative outlier frequencies (bias > 2T, bias < -2T) as percentages. Every
// bias lands in exactly one of CF, POF, NOF, or the uncounted band between T
// and 2T, so the four fractions always total 100%.
func frequencies(biases []float64, target float64) (cf, pof, nof float64) {
	n := float64(len(biases))
	var central, pos, neg float64
	for _, b := range biases {
		switch {
		case b >= -target && b <= target:
			central++
		case b > 2*target:
			pos++
		case b < -2*target:
			neg++
		}
	}
	return central / n * 100, pos / n * 100, neg / n * 100
}

// Calculator reduces one paired sequence to a SkillStatSet. The same
// reducer serves scalar and vector variables; the vector path additionally
// reports the circular mean direction bias.
type Calculator struct {
	variable models.Variable
	target   models.Value
}

func NewCalculator(v models.Variable) *Calculator {
	return &Calculator{variable: v, target: TargetRange(v)}
}

// MissingStats is the downgraded row for a station whose pipeline produced
// nothing: every statistic missing, verdicts unset. The run always reports
// the station.
func (c *Calculator) MissingStats(set models.SkillStatSet) models.SkillStatSet {
	set.Variable = c.variable
	set.TargetRange = c.target
	return set
}

// Compute fills a SkillStatSet from paired records. An empty sequence
// yields all-missing statistics rather than zeros.
func (c *Calculator) Compute(set models.SkillStatSet, records []models.PairedRecord) models.SkillStatSet {
	set.Variable = c.variable
	set.TargetRange = c.target
	set.Count = len(records)
	if len(records) == 0 {
		return set
	}

	obs := make([]float64, len(records))
	mod := make([]float64, len(records))
	biases := make([]float64, len(records))
	var dirBiases []float64
	for i, r := range records {
		obs[i], mod[i], biases[i] = r.Obs, r.Model, r.Bias
		if r.DirBias.Valid {
			dirBiases = append(dirBiases, r.DirBias.Float64)
		}
	}

	set.RMSE = RMSE(biases)
	set.R = Pearson(obs, mod)
	set.Bias = models.Some(Mean(biases))
	set.BiasStdDev = StdDev(biases)
	if mo := Mean(obs); mo != 0 {
		set.BiasPct = models.Some(100 * set.Bias.Float64 / mo)
	}
	if c.variable.Kind() == models.KindVector && len(dirBiases) > 0 {
		set.BiasDir = models.Some(pair.CircularMean(dirBiases))
	}

	if c.target.Valid {
		cf, pof, nof := frequencies(biases, c.target.Float64)
		set.CF = models.Some(cf)
		set.POF = models.Some(pof)
		set.NOF = models.Some(nof)
		set.CFPass = models.Verdict(cf >= CFThreshold)
		set.POFPass = models.Verdict(pof <= POFThreshold)
		set.NOFPass = models.Verdict(nof <= NOFThreshold)
	}
	return set
}
