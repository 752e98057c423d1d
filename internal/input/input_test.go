package input

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coastalobs/ofsskill/internal/models"
)

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

const sampleDataset = `{
  "stations": [
    {"id": "8573364", "name": "Tolchester Beach", "provider": "CO-OPS",
     "lat": 39.2133, "lon": -76.2450, "depth": 5.2, "datum_shift": 0.07}
  ],
  "candidates": [
    {"index": 0, "i": 10, "j": 20, "lat": 39.2135, "lon": -76.2451,
     "layer_depths": [1.0, 5.0, 10.0]},
    {"index": 1, "i": 11, "j": 20, "lat": 39.5, "lon": -76.5, "masked": true}
  ],
  "cycles": [
    {"cycle": "2024-02-01T06:00:00Z", "station": "8573364",
     "variable": "wl", "mode": "nowcast",
     "samples": [
       {"time": "2024-02-01T05:00:00Z", "value": 0.42},
       {"time": "2024-02-01T06:00:00Z", "value": -999.0},
       {"time": "2024-02-01T07:00:00Z"}
     ]}
  ],
  "observations": [
    {"station": "8573364", "variable": "wl",
     "samples": [{"time": "2024-02-01T05:00:00Z", "value": 0.40}]},
    {"station": "44025", "variable": "cu",
     "samples": [{"time": "2024-02-01T05:00:00Z", "u": 0.1, "v": -0.2}]}
  ]
}`

func TestLoadDataset(t *testing.T) {
	ds, err := Load(writeDataset(t, sampleDataset))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	stations := ds.Stations()
	if len(stations) != 1 {
		t.Fatalf("len(stations) = %d, want 1", len(stations))
	}
	st := stations[0]
	if st.ID != "8573364" || st.Provider != models.ProviderCOOPS {
		t.Errorf("station = %+v", st)
	}
	if !st.Depth.Valid || st.Depth.Float64 != 5.2 {
		t.Errorf("Depth = %+v, want 5.2", st.Depth)
	}

	cands := ds.Candidates()
	if len(cands) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(cands))
	}
	if !cands[1].Masked {
		t.Error("candidate 1 not masked")
	}
	if len(cands[0].LayerDepths) != 3 {
		t.Errorf("layer depths = %v", cands[0].LayerDepths)
	}
}

func TestCycleLookup(t *testing.T) {
	ds, err := Load(writeDataset(t, sampleDataset))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cycle := time.Date(2024, 2, 1, 6, 0, 0, 0, time.UTC)
	data, ok := ds.Cycle(cycle, "8573364", models.WaterLevel, models.Nowcast)
	if !ok {
		t.Fatal("cycle not found")
	}
	if len(data.Samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3", len(data.Samples))
	}
	if !data.Samples[0].Value.Valid || data.Samples[0].Value.Float64 != 0.42 {
		t.Errorf("sample 0 = %+v, want 0.42", data.Samples[0].Value)
	}
	// Sentinel and omitted values both load as missing.
	if data.Samples[1].Value.Valid || data.Samples[2].Value.Valid {
		t.Error("sentinel or omitted sample loaded as valid")
	}

	if _, ok := ds.Cycle(cycle.Add(6*time.Hour), "8573364", models.WaterLevel, models.Nowcast); ok {
		t.Error("absent cycle reported present")
	}
	if _, ok := ds.Cycle(cycle, "8573364", models.WaterLevel, models.ForecastB); ok {
		t.Error("cycle found under the wrong mode")
	}
}

func TestObservationLookup(t *testing.T) {
	ds, err := Load(writeDataset(t, sampleDataset))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	s, ok := ds.Scalar("8573364", models.WaterLevel, start, end)
	if !ok || len(s.Samples) != 1 {
		t.Fatalf("Scalar = %+v, ok=%v", s, ok)
	}
	if _, ok := ds.Scalar("8573364", models.WaterTemperature, start, end); ok {
		t.Error("scalar lookup ignored the variable")
	}

	vs, ok := ds.Vector("44025", start, end)
	if !ok || len(vs.Samples) != 1 {
		t.Fatalf("Vector = %+v, ok=%v", vs, ok)
	}
	if !vs.Samples[0].U.Valid || vs.Samples[0].U.Float64 != 0.1 {
		t.Errorf("U = %+v, want 0.1", vs.Samples[0].U)
	}
}

func TestLoadRejectsBadDataset(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"stations": [`},
		{"unknown variable", `{"cycles": [{"cycle": "2024-02-01T00:00:00Z",
			"station": "x", "variable": "waves", "mode": "nowcast"}]}`},
		{"unknown mode", `{"cycles": [{"cycle": "2024-02-01T00:00:00Z",
			"station": "x", "variable": "wl", "mode": "hindcast"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeDataset(t, tt.body)); err == nil {
				t.Error("Load accepted bad dataset")
			}
		})
	}
}

func TestLoadIce(t *testing.T) {
	body := `{
  "days": [
    {"date": "2024-01-15T00:00:00Z",
     "model": {"nx": 2, "ny": 2, "cells": [10, 20, -999, 40]},
     "obs":   {"nx": 2, "ny": 2, "cells": [12, 18, null, 35]}}
  ],
  "climatology": {
    "01-15": {"nx": 2, "ny": 2, "cells": [11, 19, 0, 30]}
  }
}`
	pairs, clim, err := LoadIce(writeDataset(t, body))
	if err != nil {
		t.Fatalf("LoadIce: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("len(pairs) = %d, want 1", len(pairs))
	}
	p := pairs[0]
	if p.Model.At(0, 0).Float64 != 10 {
		t.Errorf("model cell (0,0) = %+v", p.Model.At(0, 0))
	}
	// -999 and null both load as missing.
	if p.Model.At(1, 0).Valid || p.Obs.At(1, 0).Valid {
		t.Error("invalid cells loaded as valid")
	}
	if clim == nil {
		t.Fatal("climatology not loaded")
	}
	g, ok := clim.ForDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatal("climatology day not found")
	}
	if g.At(0, 1).Float64 != 19 {
		t.Errorf("climatology cell (0,1) = %+v", g.At(0, 1))
	}
}

func TestLoadIceDimensionMismatch(t *testing.T) {
	body := `{
  "days": [
    {"date": "2024-01-15T00:00:00Z",
     "model": {"nx": 2, "ny": 2, "cells": [10, 20, 30]},
     "obs":   {"nx": 2, "ny": 2, "cells": [12, 18, 25, 35]}}
  ]
}`
	if _, _, err := LoadIce(writeDataset(t, body)); err == nil {
		t.Error("LoadIce accepted a short cell array")
	}
}

func TestLoadIceNoClimatology(t *testing.T) {
	body := `{"days": []}`
	pairs, clim, err := LoadIce(writeDataset(t, body))
	if err != nil {
		t.Fatalf("LoadIce: %v", err)
	}
	if len(pairs) != 0 || clim != nil {
		t.Errorf("pairs = %v, clim = %v, want empty and nil", pairs, clim)
	}
}
