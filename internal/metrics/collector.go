// Package metrics provides Prometheus instrumentation for cspdemo.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/cspdemo/internal/csp"
)

// Collector tracks the active policy mode and per-request outcomes.
type Collector struct {
	policyInfo      *prometheus.GaugeVec
	policyHeaders   *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates and registers metrics on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		policyInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cspdemo",
			Name:      "policy_info",
			Help:      "Active CSP mode (1 for the current mode, 0 otherwise).",
		}, []string{"mode"}),

		policyHeaders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cspdemo",
			Name:      "policy_headers_total",
			Help:      "Responses decorated with a CSP header, by header name.",
		}, []string{"header"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cspdemo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cspdemo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(c.policyInfo)
	reg.MustRegister(c.policyHeaders)
	reg.MustRegister(c.requestsTotal)
	reg.MustRegister(c.requestDuration)

	return c
}

// SetPolicy records the mode of the policy serving requests.
func (c *Collector) SetPolicy(p *csp.Policy) {
	active := p.Mode()
	for _, mode := range []string{csp.ModeOff, csp.ModeReportOnly, csp.ModeEnforce} {
		v := 0.0
		if mode == active {
			v = 1
		}
		c.policyInfo.With(prometheus.Labels{"mode": mode}).Set(v)
	}
}

// PolicyHeader counts one response carrying the named CSP header.
func (c *Collector) PolicyHeader(name string) {
	c.policyHeaders.With(prometheus.Labels{"header": name}).Inc()
}

// ObserveRequest records one completed request.
func (c *Collector) ObserveRequest(route string, code int, d time.Duration) {
	c.requestsTotal.With(prometheus.Labels{"route": route, "code": strconv.Itoa(code)}).Inc()
	c.requestDuration.With(prometheus.Labels{"route": route}).Observe(d.Seconds())
}
