// Package observability exposes Prometheus metrics for RPC traffic and
// submitted transactions.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interactdapp"

type Metrics struct {
	RPCRequests  *prometheus.CounterVec
	RPCErrors    *prometheus.CounterVec
	RPCLatency   *prometheus.HistogramVec
	Transactions *prometheus.CounterVec
	Confirmed    prometheus.Counter
}

// NewMetrics registers the metric set on reg. A nil reg yields unregistered
// collectors, which is what libraries and tests use by default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "RPC requests by method",
		}, []string{"method"}),
		RPCErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "errors_total",
			Help:      "Failed RPC requests by method",
		}, []string{"method"}),
		RPCLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC request latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "submitted_total",
			Help:      "Submitted transactions by route",
		}, []string{"route"}),
		Confirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "confirmed_total",
			Help:      "Transactions observed as confirmed",
		}),
	}
}

// ObserveRPC records one call to method that started at start.
func (m *Metrics) ObserveRPC(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(method).Inc()
	m.RPCLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		m.RPCErrors.WithLabelValues(method).Inc()
	}
}

// NewRegistry returns a registry carrying the process and Go collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

// NewServer serves gatherer on /metrics. Returns nil when addr is empty.
func NewServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
