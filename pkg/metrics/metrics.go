// Package metrics holds the Prometheus collectors for stockroom and the
// HTTP middleware that feeds the request series.
//
//	r.Use(metrics.Middleware())
//	r.Handle(http.MethodGet, "/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockroom"

var requestLabels = []string{"method", "route", "status"}

var (
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, requestLabels)

	RequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, requestLabels)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	// Panics counts handler panics turned into 500s by middleware.Recovery.
	Panics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Handler panics recovered.",
	})
)

var (
	// AlertsSent and AlertsFailed are labelled by alert kind: low_stock or expiry.
	AlertsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Stock alerts delivered to the manager.",
	}, []string{"kind"})

	AlertsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Stock alerts whose dispatch failed.",
	}, []string{"kind"})

	// ImportRows is labelled imported or rejected.
	ImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Rows processed by product CSV imports.",
	}, []string{"result"})

	// ReportCache is labelled hit or miss.
	ReportCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "report_cache",
		Name:      "lookups_total",
		Help:      "Supplier report cache lookups.",
	}, []string{"result"})

	// JobsProcessed is labelled by job type and result: ok or failed.
	JobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "jobs_total",
		Help:      "Queued jobs run to completion or exhaustion.",
	}, []string{"job", "result"})

	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "job_duration_seconds",
		Help:      "Time from dequeue to final outcome, retries included.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"job"})
)

// DefaultRegistry holds every stockroom collector plus Go runtime metrics.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestDuration, RequestTotal, RequestInFlight, Panics,
		AlertsSent, AlertsFailed, ImportRows, ReportCache,
		JobsProcessed, JobDuration,
	)
}

// ObserveJob records one finished job.
func ObserveJob(job string, ok bool, took time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	JobsProcessed.WithLabelValues(job, result).Inc()
	JobDuration.WithLabelValues(job).Observe(took.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Middleware records the request series. The route label is the chi
// pattern ("/api/products/{id}") so ids do not explode the label space;
// requests no route matched share "unmatched".
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			labels := prometheus.Labels{
				"method": r.Method,
				"route":  routePattern(r),
				"status": strconv.Itoa(sw.status),
			}
			RequestDuration.With(labels).Observe(time.Since(start).Seconds())
			RequestTotal.With(labels).Inc()
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Handler serves DefaultRegistry in text and OpenMetrics formats.
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          DefaultRegistry,
	})
}
