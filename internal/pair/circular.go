package pair

import "math"

// DirectionDelta is the signed circular difference modelDir - obsDir in
// degrees, folded into [-180, 180] so errors across the 0/360 boundary stay
// small. DirectionDelta(1, 359) is 2, not -358.
func DirectionDelta(modelDir, obsDir float64) float64 {
	d := math.Mod(modelDir-obsDir, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// SpeedDir converts u/v components to speed and compass direction (degrees
// clockwise from north, the direction the current flows toward).
func SpeedDir(u, v float64) (speed, dir float64) {
	speed = math.Hypot(u, v)
	dir = math.Atan2(u, v) * 180 / math.Pi
	if dir < 0 {
		dir += 360
	}
	return speed, dir
}

// CircularMean is the mean of angular differences in degrees, computed on
// the unit circle so values near +-180 do not cancel incorrectly.
func CircularMean(degrees []float64) float64 {
	var sumSin, sumCos float64
	for _, d := range degrees {
		rad := d * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}
	return math.Atan2(sumSin, sumCos) * 180 / math.Pi
}
