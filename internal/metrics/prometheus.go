package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spacetraveling"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cmsDuration     *prom.HistogramVec
	cmsRequests     *prom.CounterVec
	listingLoads    *prom.CounterVec
	snapshotLookups *prom.CounterVec
	pagesBuilt      *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cmsDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cms_request_duration_seconds",
			Help:      "Duration of requests to the content source",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"}),
		cmsRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cms_requests_total",
			Help:      "Requests to the content source by operation and result",
		}, []string{"operation", "result"}),
		listingLoads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "listing_loads_total",
			Help:      "Listing page loads by result",
		}, []string{"result"}),
		snapshotLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_lookups_total",
			Help:      "Post snapshot lookups by outcome",
		}, []string{"outcome"}),
		pagesBuilt: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_built_total",
			Help:      "Static pages written by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.cmsDuration, pr.cmsRequests, pr.listingLoads, pr.snapshotLookups, pr.pagesBuilt)
	return pr
}

func (p *PrometheusRecorder) ObserveCMSRequest(operation string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.cmsDuration.WithLabelValues(operation).Observe(d.Seconds())
	p.cmsRequests.WithLabelValues(operation, string(result)).Inc()
}

func (p *PrometheusRecorder) IncListingLoad(result ResultLabel) {
	if p == nil {
		return
	}
	p.listingLoads.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncSnapshotLookup(outcome SnapshotOutcome) {
	if p == nil {
		return
	}
	p.snapshotLookups.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPagesBuilt(kind string) {
	if p == nil {
		return
	}
	p.pagesBuilt.WithLabelValues(kind).Inc()
}

// NewRegistry returns a registry with the Go runtime and process collectors installed.
func NewRegistry() *prom.Registry {
	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// HTTPHandler serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
