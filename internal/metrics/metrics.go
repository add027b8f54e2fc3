package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	registry *prometheus.Registry

	RequestsReceived        *prometheus.CounterVec
	JSSRequestsTotal        *prometheus.CounterVec
	JSSRequestLatency       *prometheus.HistogramVec
	RecordsNormalizedTotal  *prometheus.CounterVec
	NormalizeErrorsTotal    *prometheus.CounterVec
	WriteBacksTotal         *prometheus.CounterVec
	CacheLookupsTotal       *prometheus.CounterVec
	ComplianceFindingsTotal *prometheus.CounterVec
	ComplianceSweepDuration prometheus.Histogram
}

type Options struct {
	// Additional labels necessary
}

// New builds a handler on its own registry so several handlers can coexist
// in one process.
func New(name string) (*Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"app": name}

	return &Handler{
		registry: reg,
		RequestsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_received",
			ConstLabels: constLabels,
			Help:        "The total number of http requests received",
		}, []string{"status"}),
		JSSRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "jss_requests_total",
			ConstLabels: constLabels,
			Help:        "The total number of requests sent to the JSS",
		}, []string{"resource", "method", "status"}),
		JSSRequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "jss_request_latency_seconds",
			ConstLabels: constLabels,
			Help:        "The latency of JSS requests including retries",
			Buckets:     prometheus.DefBuckets,
		}, []string{"resource", "method", "success"}),
		RecordsNormalizedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "records_normalized_total",
			ConstLabels: constLabels,
			Help:        "The total number of records normalized",
		}, []string{"resource"}),
		NormalizeErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "normalize_errors_total",
			ConstLabels: constLabels,
			Help:        "The total number of records that failed to normalize",
		}, []string{"resource"}),
		WriteBacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "write_backs_total",
			ConstLabels: constLabels,
			Help:        "The total number of records written back to the JSS",
		}, []string{"resource", "success"}),
		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "cache_lookups_total",
			ConstLabels: constLabels,
			Help:        "The total number of normalized record cache lookups",
		}, []string{"result"}),
		ComplianceFindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "compliance_findings_total",
			ConstLabels: constLabels,
			Help:        "The total number of compliance findings reported",
		}, []string{"reason"}),
		ComplianceSweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "compliance_sweep_duration_seconds",
			ConstLabels: constLabels,
			Help:        "The duration of full compliance sweeps",
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}, nil
}

// Registry returns the registry the handler's collectors live in.
func (h *Handler) Registry() *prometheus.Registry {
	return h.registry
}

// HTTPHandler serves the handler's registry in the Prometheus text format.
func (h *Handler) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// IncRequestsReceived counts an inbound http request by status code
func (h *Handler) IncRequestsReceived(status int) {
	h.RequestsReceived.WithLabelValues(strconv.Itoa(status)).Inc()
}

// IncJSSRequestsTotal counts one JSS round trip
func (h *Handler) IncJSSRequestsTotal(resource, method, status string) {
	h.JSSRequestsTotal.WithLabelValues(resource, method, status).Inc()
}

// ObserveJSSRequestLatency records the latency of a JSS call
func (h *Handler) ObserveJSSRequestLatency(duration time.Duration, resource, method string, success bool) {
	h.JSSRequestLatency.WithLabelValues(resource, method, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// IncRecordsNormalizedTotal increments the normalized records counter
func (h *Handler) IncRecordsNormalizedTotal(resource string) {
	h.RecordsNormalizedTotal.WithLabelValues(resource).Inc()
}

// IncNormalizeErrorsTotal increments the normalize error counter
func (h *Handler) IncNormalizeErrorsTotal(resource string) {
	h.NormalizeErrorsTotal.WithLabelValues(resource).Inc()
}

// IncWriteBacksTotal counts a write-back attempt
func (h *Handler) IncWriteBacksTotal(resource string, success bool) {
	h.WriteBacksTotal.WithLabelValues(resource, strconv.FormatBool(success)).Inc()
}

// IncCacheLookup counts a cache hit or miss
func (h *Handler) IncCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	h.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// IncComplianceFindingsTotal counts a compliance finding by reason
func (h *Handler) IncComplianceFindingsTotal(reason string) {
	h.ComplianceFindingsTotal.WithLabelValues(reason).Inc()
}

// ObserveComplianceSweep records how long a full sweep took
func (h *Handler) ObserveComplianceSweep(duration time.Duration) {
	h.ComplianceSweepDuration.Observe(duration.Seconds())
}
