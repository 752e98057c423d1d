package models

import (
	"fmt"
	"time"
)

// Provider identifies the observation network a station belongs to.
type Provider string

const (
	ProviderCOOPS Provider = "CO-OPS"
	ProviderNDBC  Provider = "NDBC"
	ProviderUSGS  Provider = "USGS"
	ProviderGLSEA Provider = "GLSEA"
)

// Kind is the closed set of series shapes. Each Variable resolves to exactly
// one Kind at construction time; downstream dispatch goes through the Kind,
// never through string checks.
type Kind int

const (
	KindScalar Kind = iota
	KindVector
	KindIce
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindIce:
		return "ice"
	}
	return "unknown"
}

// Variable is an assessed physical variable.
type Variable int

const (
	WaterLevel Variable = iota
	WaterTemperature
	Salinity
	Currents
	IceConcentration
)

var variableNames = map[Variable]string{
	WaterLevel:       "water_level",
	WaterTemperature: "water_temperature",
	Salinity:         "salinity",
	Currents:         "currents",
	IceConcentration: "ice_concentration",
}

var variableShort = map[Variable]string{
	WaterLevel:       "wl",
	WaterTemperature: "temp",
	Salinity:         "salt",
	Currents:         "cu",
	IceConcentration: "ice",
}

func (v Variable) String() string { return variableNames[v] }

// Short returns the compact code used in output file names (wl, temp, salt, cu, ice).
func (v Variable) Short() string { return variableShort[v] }

func (v Variable) Kind() Kind {
	switch v {
	case Currents:
		return KindVector
	case IceConcentration:
		return KindIce
	}
	return KindScalar
}

// Surface reports whether the variable is assessed at the surface, in which
// case vertical layer matching is skipped.
func (v Variable) Surface() bool {
	return v == WaterLevel || v == IceConcentration
}

// ParseVariable accepts either the long name or the compact code.
func ParseVariable(s string) (Variable, error) {
	for v, name := range variableNames {
		if s == name || s == variableShort[v] {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown variable %q", s)
}

// Mode selects how model cycles are assembled into a series.
type Mode int

const (
	// Nowcast stitches the nowcast window of consecutive cycles.
	Nowcast Mode = iota
	// ForecastA assesses one complete forecast cycle end to end.
	ForecastA
	// ForecastB stitches the short forecast window of consecutive cycles.
	ForecastB
)

var modeNames = map[Mode]string{
	Nowcast:   "nowcast",
	ForecastA: "forecast_a",
	ForecastB: "forecast_b",
}

func (m Mode) String() string { return modeNames[m] }

func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// FileType distinguishes the two model output layouts.
type FileType string

const (
	FileTypeStations FileType = "stations"
	FileTypeFields   FileType = "fields"
)

func ParseFileType(s string) (FileType, error) {
	switch FileType(s) {
	case FileTypeStations, FileTypeFields:
		return FileType(s), nil
	}
	return "", fmt.Errorf("file type must be stations or fields, got %q", s)
}

// Station is observation-station metadata from the inventory collaborator.
// Immutable once loaded.
type Station struct {
	ID         string
	Name       string
	Provider   Provider
	Latitude   float64
	Longitude  float64
	DatumShift Value // vertical datum offset in meters, unset when not applicable
	Depth      Value // reported water depth in meters
}

// ModelGridLocation is the model point a station resolved to. Node indexes
// the pre-extracted series for stations-format output; I/J address the grid
// for fields-format output. Layer is the vertical level, -1 when vertical
// matching was skipped.
type ModelGridLocation struct {
	Node      int
	I, J      int
	Layer     int
	Latitude  float64
	Longitude float64
	Depth     float64 // representative depth of the chosen layer, meters
}

// ControlFileEntry pairs a station with its resolved model location.
// Matched is false when no candidate fell within tolerance; such entries are
// kept for traceability and written with the -999 sentinel.
type ControlFileEntry struct {
	Station    Station
	Location   ModelGridLocation
	Matched    bool
	DistanceKM float64
}

// Sample is one timestamped scalar value. An invalid Value is an explicit
// gap, never a zero.
type Sample struct {
	Time  time.Time
	Value Value
}

// VectorSample carries current components. Speed and direction are derived
// from U/V when both are valid.
type VectorSample struct {
	Time time.Time
	U, V Value
}

// Gap is a half-open [Start, End) interval of missing data.
type Gap struct {
	Start, End time.Time
}

// Series is an ordered scalar time series for one station and variable.
type Series struct {
	StationID string
	Variable  Variable
	Samples   []Sample
}

// VectorSeries is the vector counterpart of Series.
type VectorSeries struct {
	StationID string
	Samples   []VectorSample
}

// PairedRecord is one aligned observation/model pair. Direction fields are
// valid only for vector variables.
type PairedRecord struct {
	Time  time.Time
	Obs   float64
	Model float64
	Bias  float64 // model - obs; speed bias for vectors

	ObsDir   Value
	ModelDir Value
	DirBias  Value // circular difference in degrees, [-180, 180]
}

// PassFail is a threshold verdict. The zero value means the underlying
// statistic could not be computed.
type PassFail int

const (
	PassFailMissing PassFail = iota
	Pass
	Fail
)

func (p PassFail) String() string {
	switch p {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	}
	return ""
}

// Verdict maps a threshold check onto Pass/Fail.
func Verdict(ok bool) PassFail {
	if ok {
		return Pass
	}
	return Fail
}

// SkillStatSet is the per-station, per-variable, per-mode aggregate row.
// Missing statistics stay invalid internally; the -999 sentinel is applied
// only at the report and store boundaries.
type SkillStatSet struct {
	StationID string
	Node      int // sentinel when unmatched
	Variable  Variable
	Mode      Mode
	Start     time.Time
	End       time.Time
	Count     int

	RMSE       Value
	R          Value
	Bias       Value
	BiasPct    Value
	BiasDir    Value // vector variables only
	BiasStdDev Value
	CF         Value
	POF        Value
	NOF        Value

	CFPass  PassFail
	POFPass PassFail
	NOFPass PassFail

	TargetRange Value
}
