package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "atmodensity"

// Metrics holds the Prometheus counters, histograms, and gauges for batch runs and index fetches.
type Metrics struct {
	Registry *prometheus.Registry

	YearsProcessed     *prometheus.CounterVec   // labels: outcome={success,failure}
	StageFailures      *prometheus.CounterVec   // labels: stage={compute,persist,render}
	StageDuration      *prometheus.HistogramVec // labels: stage
	YearDuration       prometheus.Histogram
	BatchRunning       prometheus.Gauge
	ArtifactsPublished prometheus.Counter

	// Index file retrieval.
	FetchRequests *prometheus.CounterVec // labels: host, outcome={success,failure}
	FetchBytes    prometheus.Counter
}

// NewMetrics creates all metrics on a dedicated registry so a batch can export them as a textfile.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		YearsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "years_processed_total",
			Help:      "Batch years processed by outcome.",
		}, []string{"outcome"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Per-year failures by pipeline stage.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of one pipeline stage for one year.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		YearDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "year_duration_seconds",
			Help:      "Duration of a complete compute, persist and render cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_running",
			Help:      "1 while a batch is running, 0 otherwise.",
		}),
		ArtifactsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_published_total",
			Help:      "Dataset and image files uploaded to the publish target.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_fetch_total",
			Help:      "Index file retrievals by host and outcome.",
		}, []string{"host", "outcome"}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_fetch_bytes_total",
			Help:      "Bytes written to local index files.",
		}),
	}

	m.Registry.MustRegister(
		m.YearsProcessed,
		m.StageFailures,
		m.StageDuration,
		m.YearDuration,
		m.BatchRunning,
		m.ArtifactsPublished,
		m.FetchRequests,
		m.FetchBytes,
	)

	return m
}

// WriteTextfile writes the current metric values in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
