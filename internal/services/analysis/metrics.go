package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	detectorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tendersight",
		Name:      "detector_duration_seconds",
		Help:      "Time spent in one detector during an analysis pass.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
	}, []string{"kind"})

	findingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tendersight",
		Name:      "findings_total",
		Help:      "Findings produced, by kind.",
	}, []string{"kind"})

	detectorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tendersight",
		Name:      "detector_failures_total",
		Help:      "Detectors that failed in isolation, by kind.",
	}, []string{"kind"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tendersight",
		Name:      "finding_write_failures_total",
		Help:      "Findings the persistence gateway could not store.",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tendersight",
		Name:      "analysis_runs_total",
		Help:      "Analysis passes by outcome.",
	}, []string{"outcome"})

	recordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tendersight",
		Name:      "analysis_records",
		Help:      "Records in the snapshot of the last pass.",
	})
)
