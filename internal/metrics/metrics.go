// Package metrics exposes Prometheus collectors for the back office.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kauanrodrigues01/academy/internal/money"
)

const namespace = "academy"

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	paymentsRecorded prometheus.Counter
	revenueRecorded  prometheus.Counter
	members          *prometheus.GaugeVec
	statusChanges    *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		paymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Total number of payments recorded",
		}),
		revenueRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_reais_total",
			Help:      "Sum of recorded payment amounts in reais",
		}),
		members: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "members",
			Help:      "Number of members by status",
		}, []string{"status"}),
		statusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "member_status_changes_total",
			Help:      "Member status transitions applied by refreshes",
		}, []string{"transition"}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by job and result",
		}, []string{"job", "result"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PaymentRecorded(amount money.Cents) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Inc()
	m.revenueRecorded.Add(amount.Float())
}

func (m *Metrics) SetMembers(active, pending int) {
	if m == nil {
		return
	}
	m.members.WithLabelValues("active").Set(float64(active))
	m.members.WithLabelValues("pending").Set(float64(pending))
}

func (m *Metrics) StatusChanges(activated, deactivated int) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues("activated").Add(float64(activated))
	m.statusChanges.WithLabelValues("deactivated").Add(float64(deactivated))
}

// JobRun counts one run of a background job. err decides the result label.
func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

type patternKey struct{}

// Middleware records request counts and latency labelled by the matched
// ServeMux pattern, so path parameters do not explode cardinality. It must
// wrap a mux directly. When a mux is mounted inside another one, wrap both:
// the inner Middleware only reports its pattern to the outer one, which
// does the counting.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner, ok := r.Context().Value(patternKey{}).(*string); ok {
			next.ServeHTTP(w, r)
			if r.Pattern != "" {
				*inner = r.Pattern
			}
			return
		}

		start := time.Now()
		matched := new(string)
		r = r.WithContext(context.WithValue(r.Context(), patternKey{}, matched))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := *matched
		if path == "" {
			path = r.Pattern
		}
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		m.httpRequests.WithLabelValues(r.Method, path, status).Inc()
		m.httpDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
