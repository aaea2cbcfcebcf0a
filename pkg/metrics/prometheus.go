package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farecast"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	staleRuns   prometheus.Counter
	errorsTotal *prometheus.CounterVec
	history     prometheus.Gauge
	latency     *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight *prometheus.GaugeVec
	httpSize     *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Prediction client calls by kind (single, forecast) and result",
			},
			[]string{"kind", "result"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Synthetic substitutions by tier (item, batch)",
			},
			[]string{"tier"},
		),
		staleRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_stale_runs_total",
			Help:      "Forecast runs dropped because a newer run was issued",
		}),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		history: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_entries",
			Help:      "Entries currently held in the prediction history",
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "class"},
		),
		httpInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_in_flight_requests",
				Help: "Current number of in-flight HTTP requests",
			},
			[]string{"route", "method"},
		),
		httpSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{200, 500, 1_000, 2_000, 5_000, 10_000, 50_000},
			},
			[]string{"route", "method", "class"},
		),
	}
}

// RecordPrediction counts one prediction client call.
func (r *Recorder) RecordPrediction(kind, result string) {
	r.predictions.WithLabelValues(kind, result).Inc()
}

// RecordFallback counts synthetic substitutions for a tier.
func (r *Recorder) RecordFallback(tier string, n int) {
	r.fallbacks.WithLabelValues(tier).Add(float64(n))
}

func (r *Recorder) RecordStaleRun() {
	r.staleRuns.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) SetHistoryEntries(n int) {
	r.history.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// HTTPStarted marks a request in flight; call the returned func when it is done.
func (r *Recorder) HTTPStarted(route, method string) func(status, bytes int, elapsed time.Duration) {
	g := r.httpInFlight.WithLabelValues(route, method)
	g.Inc()
	return func(status, bytes int, elapsed time.Duration) {
		g.Dec()
		class := StatusClass(status)
		r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(route, method, class).Observe(elapsed.Seconds())
		r.httpSize.WithLabelValues(route, method, class).Observe(float64(bytes))
	}
}

func StatusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
