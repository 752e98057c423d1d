package assemble

import (
	"fmt"
	"sort"
	"time"
)

// OFSSpec is the fixed schedule of an Operational Forecast System: which
// hours of the day a cycle starts, and how far a forecast cycle extends.
type OFSSpec struct {
	Name         string
	CycleHours   []int         // UTC hours a model cycle runs, ascending
	Horizon      time.Duration // forecast length of one cycle
	OutputStep   time.Duration // native fields output interval
	StationsStep time.Duration // native stations output interval
}

// CycleInterval is the spacing between consecutive cycles, assuming the
// published cycle hours are evenly spaced (they are for every known OFS).
func (s OFSSpec) CycleInterval() time.Duration {
	if len(s.CycleHours) < 2 {
		return 24 * time.Hour
	}
	return time.Duration(s.CycleHours[1]-s.CycleHours[0]) * time.Hour
}

// NearestCycleHour snaps an arbitrary hour to the closest published cycle
// hour. Ties go to the earlier cycle.
func (s OFSSpec) NearestCycleHour(hour int) int {
	best := s.CycleHours[0]
	bestDist := hourDist(hour, best)
	for _, c := range s.CycleHours[1:] {
		if d := hourDist(hour, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func hourDist(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if 24-d < d {
		d = 24 - d
	}
	return d
}

// The OFS schedule table. Cycle hours and forecast horizons are fixed
// operational properties of each system.
var ofsSpecs = map[string]OFSSpec{
	"cbofs":  sixHourly("cbofs", []int{0, 6, 12, 18}, 48),
	"ciofs":  sixHourly("ciofs", []int{0, 6, 12, 18}, 48),
	"dbofs":  sixHourly("dbofs", []int{0, 6, 12, 18}, 48),
	"gomofs": sixHourly("gomofs", []int{0, 6, 12, 18}, 72),
	"leofs":  sixHourly("leofs", []int{0, 6, 12, 18}, 120),
	"lmhofs": sixHourly("lmhofs", []int{0, 6, 12, 18}, 120),
	"loofs":  sixHourly("loofs", []int{0, 6, 12, 18}, 120),
	"lsofs":  sixHourly("lsofs", []int{0, 6, 12, 18}, 120),
	"creofs": sixHourly("creofs", []int{3, 9, 15, 21}, 48),
	"ngofs2": sixHourly("ngofs2", []int{3, 9, 15, 21}, 48),
	"sfbofs": sixHourly("sfbofs", []int{3, 9, 15, 21}, 48),
	"tbofs":  sixHourly("tbofs", []int{3, 9, 15, 21}, 48),
	"sscofs": sixHourly("sscofs", []int{3, 9, 15, 21}, 48),
	"wcofs": {
		Name:         "wcofs",
		CycleHours:   []int{3},
		Horizon:      72 * time.Hour,
		OutputStep:   3 * time.Hour,
		StationsStep: 6 * time.Minute,
	},
	"stofs_3d_atl": {
		Name:         "stofs_3d_atl",
		CycleHours:   []int{12},
		Horizon:      96 * time.Hour,
		OutputStep:   time.Hour,
		StationsStep: 6 * time.Minute,
	},
	"stofs_3d_pac": {
		Name:         "stofs_3d_pac",
		CycleHours:   []int{12},
		Horizon:      48 * time.Hour,
		OutputStep:   time.Hour,
		StationsStep: 6 * time.Minute,
	},
}

func sixHourly(name string, hours []int, horizonHours int) OFSSpec {
	return OFSSpec{
		Name:         name,
		CycleHours:   hours,
		Horizon:      time.Duration(horizonHours) * time.Hour,
		OutputStep:   time.Hour,
		StationsStep: 6 * time.Minute,
	}
}

// LookupOFS resolves an OFS identifier. Unknown identifiers are a caller
// error and fatal for the run.
func LookupOFS(name string) (OFSSpec, error) {
	spec, ok := ofsSpecs[name]
	if !ok {
		return OFSSpec{}, fmt.Errorf("unknown OFS identifier %q", name)
	}
	return spec, nil
}

// KnownOFS lists all supported OFS identifiers, sorted.
func KnownOFS() []string {
	names := make([]string, 0, len(ofsSpecs))
	for name := range ofsSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
