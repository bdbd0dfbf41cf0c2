package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Decode failure reasons used as the "reason" label of DecodeErrors.
const (
	ReasonMalformed = "malformed"
	ReasonSlotRange = "slot_range"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the feed pipeline.
type Metrics struct {
	FeedsConsumed   prometheus.Counter
	ReportsProduced prometheus.Counter
	DecodeErrors    *prometheus.CounterVec // labels: reason={malformed,slot_range}
	DuplicateFeeds  prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Report and ingest metrics.
	ReportRegions    prometheus.Histogram
	LatestReportHour prometheus.Gauge
	HTTPFeeds        *prometheus.CounterVec // labels: outcome={accepted,duplicate,rejected}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FeedsConsumed,
		m.ReportsProduced,
		m.DecodeErrors,
		m.DuplicateFeeds,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ReportRegions,
		m.LatestReportHour,
		m.HTTPFeeds,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skywatcher_etl",
			Name:      "feeds_consumed_total",
			Help:      "Total raw feed messages read from the source topic.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skywatcher_etl",
			Name:      "reports_produced_total",
			Help:      "Total weather reports handed to the sinks.",
		}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skywatcher_etl",
			Name:      "decode_errors_total",
			Help:      "Feeds that could not be turned into a report, by reason.",
		}, []string{"reason"}),
		DuplicateFeeds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skywatcher_etl",
			Name:      "duplicate_feeds_total",
			Help:      "Feeds skipped because an identical payload was seen recently.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "skywatcher_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skywatcher_etl",
			Name:      "batch_size",
			Help:      "Number of feed messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skywatcher_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ReportRegions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skywatcher_etl",
			Name:      "report_regions",
			Help:      "Number of regions covered by each decoded report.",
			Buckets:   []float64{0, 1, 5, 10, 15, 20, 24},
		}),
		LatestReportHour: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "skywatcher_etl",
			Name:      "latest_report_hour",
			Help:      "Eorzea hour of the most recently decoded report.",
		}),
		HTTPFeeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skywatcher_etl",
			Name:      "http_feeds_total",
			Help:      "Feeds posted to the ingest endpoint, by outcome.",
		}, []string{"outcome"}),
	}
}
