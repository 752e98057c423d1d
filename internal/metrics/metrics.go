package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StationsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofsskill_stations_processed_total",
			Help: "Station pipelines completed with computed statistics",
		},
		[]string{"variable", "mode"},
	)

	StationsDowngraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofsskill_stations_downgraded_total",
			Help: "Station pipelines downgraded to a missing-statistics record",
		},
		[]string{"variable", "mode", "reason"},
	)

	CycleGaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofsskill_cycle_gaps_total",
			Help: "Gap intervals recorded while stitching model cycles",
		},
		[]string{"variable", "mode"},
	)

	PairedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofsskill_paired_records_total",
			Help: "Observation/model pairs produced by temporal pairing",
		},
		[]string{"variable", "mode"},
	)

	IceDaysProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ofsskill_ice_days_processed_total",
			Help: "Daily ice grid pairs reduced to basin statistics",
		},
	)

	IceDaysSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ofsskill_ice_days_skipped_total",
			Help: "Daily ice grid pairs skipped for lattice mismatch",
		},
	)
)
