package match

import "math"

const (
	degToRad      = 0.017453292519943295
	earthDiameter = 12742.0 // km
)

// Distance is the great-circle distance in km between two points, via the
// haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	hav := 0.5 - math.Cos((lat2-lat1)*degToRad)/2 +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*(1-math.Cos((lon2-lon1)*degToRad))/2
	return earthDiameter * math.Asin(math.Sqrt(hav))
}
