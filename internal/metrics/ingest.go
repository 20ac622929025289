package metrics

import "github.com/prometheus/client_golang/prometheus"

// Corpus ingestion Prometheus metrics.
var (
	IngestRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "propmatch",
			Name:      "ingest_rows_total",
			Help:      "Total raw rows read from the data source",
		},
	)

	IngestRowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propmatch",
			Name:      "ingest_rows_dropped_total",
			Help:      "Rows dropped during cleaning",
		},
		[]string{"reason"}, // "bad_price"
	)

	IngestBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "propmatch",
			Name:      "ingest_build_duration_seconds",
			Help:      "Corpus build duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	CorpusSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "propmatch",
			Name:      "corpus_listings",
			Help:      "Number of listings in the published corpus",
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestRowsTotal)
	prometheus.MustRegister(IngestRowsDropped)
	prometheus.MustRegister(IngestBuildDuration)
	prometheus.MustRegister(CorpusSize)
	ingestMetricsRegistered = true
}
