package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records HTTP traffic, ledger writes and login throttling.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	saleEvents    *prometheus.CounterVec
	unitsSold     prometheus.Counter
	loginFailures prometheus.Counter
	lockouts      prometheus.Counter
}

// New registers the collectors on reg. A nil registerer yields a Metrics
// whose methods do nothing.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	saleEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_events_total",
		Help: "Committed sale writes by action.",
	}, []string{"action"})
	unitsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_units_total",
		Help: "Units debited from stock by new sales.",
	})
	loginFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "login_failures_total",
		Help: "Rejected login attempts.",
	})
	lockouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "login_lockouts_total",
		Help: "Login attempts refused because the username is locked out.",
	})
	reg.MustRegister(requests, duration, saleEvents, unitsSold, loginFailures, lockouts)
	return &Metrics{
		requests:      requests,
		duration:      duration,
		saleEvents:    saleEvents,
		unitsSold:     unitsSold,
		loginFailures: loginFailures,
		lockouts:      lockouts,
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SaleCreated counts a committed sale and its units.
func (m *Metrics) SaleCreated(qty int) {
	if m == nil || m.saleEvents == nil {
		return
	}
	m.saleEvents.WithLabelValues("create").Inc()
	m.unitsSold.Add(float64(qty))
}

func (m *Metrics) SaleUpdated() {
	if m == nil || m.saleEvents == nil {
		return
	}
	m.saleEvents.WithLabelValues("update").Inc()
}

func (m *Metrics) SaleDeleted() {
	if m == nil || m.saleEvents == nil {
		return
	}
	m.saleEvents.WithLabelValues("delete").Inc()
}

func (m *Metrics) LoginFailed() {
	if m == nil || m.loginFailures == nil {
		return
	}
	m.loginFailures.Inc()
}

func (m *Metrics) LoginLocked() {
	if m == nil || m.lockouts == nil {
		return
	}
	m.lockouts.Inc()
}

func normalizeLabel(route string) string {
	if route == "" {
		return "unmatched"
	}
	return route
}
