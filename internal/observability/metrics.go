package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the dashboard's Prometheus collectors. Collectors are registered on
// the registry passed to NewMetrics, never on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	datasetRows      prometheus.Gauge
	datasetSkipped   prometheus.Gauge
	datasetLoadTime  prometheus.Gauge
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	filteredRows     prometheus.Histogram
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		datasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cafe_dataset_rows",
			Help: "Number of transactions in the loaded dataset",
		}),
		datasetSkipped: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cafe_dataset_skipped_rows",
			Help: "Number of CSV rows dropped during load because they could not be parsed",
		}),
		datasetLoadTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cafe_dataset_load_seconds",
			Help: "Time taken to load the dataset at startup",
		}),
		pipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafe_pipeline_runs_total",
				Help: "Total number of filter and aggregate pipeline runs",
			},
			[]string{"trigger", "result"},
		),
		pipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cafe_pipeline_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		filteredRows: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cafe_pipeline_filtered_rows",
			Help:    "Rows left in the filtered view after a pipeline run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafe_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cafe_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) RecordDatasetLoad(rows, skipped int, took time.Duration) {
	m.datasetRows.Set(float64(rows))
	m.datasetSkipped.Set(float64(skipped))
	m.datasetLoadTime.Set(took.Seconds())
}

// RecordPipelineRun counts one pipeline pass. result is "ok", "empty_view" or "no_data".
func (m *Metrics) RecordPipelineRun(trigger, result string, filtered int, took time.Duration) {
	m.pipelineRuns.WithLabelValues(trigger, result).Inc()
	m.pipelineDuration.Observe(took.Seconds())
	m.filteredRows.Observe(float64(filtered))
}

func (m *Metrics) RecordHTTPRequest(route, method string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
