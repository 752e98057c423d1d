package skill

import "github.com/coastalobs/ofsskill/internal/models"

// Acceptance criteria. A station passes central frequency when at least 90%
// of biases fall within the target range, and passes each outlier frequency
// when at most 1% of biases exceed twice the range.
const (
	CFThreshold  = 90.0
	POFThreshold = 1.0
	NOFThreshold = 1.0
)

// TargetRange is the variable-specific acceptable error band, in the
// variable's native unit. Current direction carries no target range: only
// bias direction is reported for it, without a verdict.
func TargetRange(v models.Variable) models.Value {
	switch v {
	case models.WaterLevel:
		return models.Some(0.15) // m
	case models.WaterTemperature:
		return models.Some(3.0) // degC
	case models.Salinity:
		return models.Some(3.5) // PSU
	case models.Currents:
		return models.Some(0.26) // m/s, speed
	}
	return models.Missing()
}
