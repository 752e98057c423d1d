package assemble

import (
	"testing"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

// fakeSource serves hourly samples for every cycle it was told to have.
// Sample values encode the cycle hour so tests can see which cycle a
// timestamp came from.
type fakeSource struct {
	missing map[time.Time]bool
	span    time.Duration
	step    time.Duration
}

func (f *fakeSource) Cycle(cycle time.Time, stationID string, v models.Variable, mode models.Mode) (CycleData, bool) {
	if f.missing[cycle] {
		return CycleData{}, false
	}
	var data CycleData
	// Emit samples on both sides of the cycle hour so ownership filtering
	// is what keeps windows disjoint, not the source.
	for t := cycle.Add(-f.span); !t.After(cycle.Add(f.span)); t = t.Add(f.step) {
		data.Samples = append(data.Samples, models.Sample{
			Time:  t,
			Value: models.Some(float64(cycle.Hour())),
		})
	}
	return data, true
}

func mustSpec(t *testing.T, name string) OFSSpec {
	t.Helper()
	spec, err := LookupOFS(name)
	if err != nil {
		t.Fatalf("LookupOFS(%s): %v", name, err)
	}
	return spec
}

func TestNearestCycleHour(t *testing.T) {
	tests := []struct {
		ofs  string
		hour int
		want int
	}{
		{"cbofs", 7, 6},
		{"cbofs", 0, 0},
		{"cbofs", 22, 0},
		{"cbofs", 3, 0}, // tie between 0 and 6 goes to the earlier cycle
		{"creofs", 0, 3},
		{"creofs", 23, 21},
		{"wcofs", 17, 3},
		{"stofs_3d_atl", 2, 12},
	}

	for _, tt := range tests {
		spec := mustSpec(t, tt.ofs)
		if got := spec.NearestCycleHour(tt.hour); got != tt.want {
			t.Errorf("%s NearestCycleHour(%d) = %d, want %d", tt.ofs, tt.hour, got, tt.want)
		}
	}
}

func TestLookupOFSUnknown(t *testing.T) {
	if _, err := LookupOFS("nosuchofs"); err == nil {
		t.Error("LookupOFS(nosuchofs) = nil error, want error")
	}
}

func TestForecastAEndDateDerivedFromHorizon(t *testing.T) {
	spec := mustSpec(t, "cbofs") // 48h horizon
	a := New(spec, models.FileTypeFields, &fakeSource{})

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	cycle, end := a.ForecastACycle(start, 7)

	wantCycle := time.Date(2024, 2, 10, 6, 0, 0, 0, time.UTC)
	if !cycle.Equal(wantCycle) {
		t.Errorf("cycle = %v, want %v (07 snapped to 06)", cycle, wantCycle)
	}
	if want := wantCycle.Add(48 * time.Hour); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

func TestResolveEndDateForecastAOverrides(t *testing.T) {
	spec := mustSpec(t, "cbofs")
	a := New(spec, models.FileTypeFields, &fakeSource{})

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	callerEnd := start.AddDate(0, 1, 0)

	got := a.ResolveEndDate(start, callerEnd, []models.Mode{models.Nowcast, models.ForecastA}, 0)
	if want := start.Add(48 * time.Hour); !got.Equal(want) {
		t.Errorf("ResolveEndDate = %v, want derived %v", got, want)
	}

	got = a.ResolveEndDate(start, callerEnd, []models.Mode{models.Nowcast}, 0)
	if !got.Equal(callerEnd) {
		t.Errorf("ResolveEndDate without forecast_a = %v, want caller end %v", got, callerEnd)
	}
}

func TestAssembleEndBeforeStart(t *testing.T) {
	spec := mustSpec(t, "cbofs")
	a := New(spec, models.FileTypeFields, &fakeSource{})

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	if _, err := a.Assemble(start, start.Add(-time.Hour), models.Nowcast, "s1", models.WaterLevel, 0); err == nil {
		t.Error("Assemble with end before start = nil error, want error")
	}
}

func TestAssembleNowcastNoDuplicateTimestamps(t *testing.T) {
	spec := mustSpec(t, "cbofs")
	src := &fakeSource{span: 9 * time.Hour, step: time.Hour}
	a := New(spec, models.FileTypeFields, src)

	start := time.Date(2024, 2, 10, 1, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	got, err := a.Assemble(start, end, models.Nowcast, "s1", models.WaterLevel, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	seen := make(map[time.Time]bool)
	prev := time.Time{}
	for _, s := range got.Series.Samples {
		if seen[s.Time] {
			t.Fatalf("duplicate timestamp %v across cycle seams", s.Time)
		}
		seen[s.Time] = true
		if !prev.IsZero() && !s.Time.After(prev) {
			t.Fatalf("timestamps not strictly increasing at %v", s.Time)
		}
		prev = s.Time
	}

	// One sample per hour over [start, end].
	wantLen := int(end.Sub(start)/time.Hour) + 1
	if len(got.Series.Samples) != wantLen {
		t.Errorf("len(samples) = %d, want %d", len(got.Series.Samples), wantLen)
	}
	if len(got.Gaps) != 0 {
		t.Errorf("gaps = %v, want none with all cycles present", got.Gaps)
	}
}

func TestAssembleNowcastOwnership(t *testing.T) {
	// The nowcast window of the 06Z cycle is (00, 06]: hour 06 comes from
	// the 06Z cycle, hour 07 from the 12Z cycle's window.
	spec := mustSpec(t, "cbofs")
	src := &fakeSource{span: 9 * time.Hour, step: time.Hour}
	a := New(spec, models.FileTypeFields, src)

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	got, err := a.Assemble(start, end, models.Nowcast, "s1", models.WaterLevel, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	byTime := make(map[time.Time]models.Value)
	for _, s := range got.Series.Samples {
		byTime[s.Time] = s.Value
	}

	at06 := byTime[time.Date(2024, 2, 10, 6, 0, 0, 0, time.UTC)]
	if !at06.Valid || at06.Float64 != 6 {
		t.Errorf("sample at 06Z owned by cycle %v, want 6", at06.Float64)
	}
	at07 := byTime[time.Date(2024, 2, 10, 7, 0, 0, 0, time.UTC)]
	if !at07.Valid || at07.Float64 != 12 {
		t.Errorf("sample at 07Z owned by cycle %v, want 12", at07.Float64)
	}
}

func TestAssembleForecastBOwnership(t *testing.T) {
	// The forecast window of the 06Z cycle is (06, 12]: hour 07 comes from
	// the 06Z cycle, hour 06 from the 00Z cycle.
	spec := mustSpec(t, "cbofs")
	src := &fakeSource{span: 9 * time.Hour, step: time.Hour}
	a := New(spec, models.FileTypeFields, src)

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	got, err := a.Assemble(start, end, models.ForecastB, "s1", models.WaterLevel, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	byTime := make(map[time.Time]models.Value)
	for _, s := range got.Series.Samples {
		byTime[s.Time] = s.Value
	}

	at06 := byTime[time.Date(2024, 2, 10, 6, 0, 0, 0, time.UTC)]
	if !at06.Valid || at06.Float64 != 0 {
		t.Errorf("sample at 06Z owned by cycle %v, want 0", at06.Float64)
	}
	at07 := byTime[time.Date(2024, 2, 10, 7, 0, 0, 0, time.UTC)]
	if !at07.Valid || at07.Float64 != 6 {
		t.Errorf("sample at 07Z owned by cycle %v, want 6", at07.Float64)
	}
}

func TestAssembleMissingCycleBecomesGap(t *testing.T) {
	spec := mustSpec(t, "cbofs")
	missing := time.Date(2024, 2, 10, 6, 0, 0, 0, time.UTC)
	src := &fakeSource{
		span:    9 * time.Hour,
		step:    time.Hour,
		missing: map[time.Time]bool{missing: true},
	}
	a := New(spec, models.FileTypeFields, src)

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	got, err := a.Assemble(start, end, models.Nowcast, "s1", models.WaterLevel, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// The 06Z nowcast window (00, 06] is missing: hours 01..06 invalid.
	if len(got.Gaps) != 1 {
		t.Fatalf("gaps = %v, want exactly one", got.Gaps)
	}
	gap := got.Gaps[0]
	wantStart := time.Date(2024, 2, 10, 1, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 2, 10, 7, 0, 0, 0, time.UTC)
	if !gap.Start.Equal(wantStart) || !gap.End.Equal(wantEnd) {
		t.Errorf("gap = [%v, %v), want [%v, %v)", gap.Start, gap.End, wantStart, wantEnd)
	}

	// Gap samples are present but invalid, never zero-valued.
	for _, s := range got.Series.Samples {
		if !s.Time.Before(wantStart) && s.Time.Before(wantEnd) && s.Value.Valid {
			t.Errorf("sample at %v valid inside gap", s.Time)
		}
	}
}

func TestAssembleForecastASingleCycle(t *testing.T) {
	spec := mustSpec(t, "cbofs")
	src := &fakeSource{span: 48 * time.Hour, step: time.Hour}
	a := New(spec, models.FileTypeFields, src)

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	got, err := a.Assemble(start, time.Time{}, models.ForecastA, "s1", models.WaterLevel, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if want := 48; len(got.Series.Samples) != want {
		t.Errorf("len(samples) = %d, want %d (one horizon at hourly step)", len(got.Series.Samples), want)
	}
	first := got.Series.Samples[0].Time
	if want := start.Add(time.Hour); !first.Equal(want) {
		t.Errorf("first sample at %v, want %v", first, want)
	}
	last := got.Series.Samples[len(got.Series.Samples)-1].Time
	if want := start.Add(48 * time.Hour); !last.Equal(want) {
		t.Errorf("last sample at %v, want %v", last, want)
	}
}

func TestStepSelectionByFileType(t *testing.T) {
	spec := mustSpec(t, "cbofs")
	if got := New(spec, models.FileTypeFields, &fakeSource{}).Step(); got != time.Hour {
		t.Errorf("fields step = %v, want 1h", got)
	}
	if got := New(spec, models.FileTypeStations, &fakeSource{}).Step(); got != 6*time.Minute {
		t.Errorf("stations step = %v, want 6m", got)
	}
}
