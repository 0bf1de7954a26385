package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveCMSRequest("fetch_page", 150*time.Millisecond, ResultSuccess)
	pr.ObserveCMSRequest("fetch_page", 10*time.Millisecond, ResultNetwork)
	pr.IncListingLoad(ResultSuccess)
	pr.IncListingLoad(ResultSuccess)
	pr.IncSnapshotLookup(SnapshotStale)
	pr.IncPagesBuilt("post")

	if got := testutil.ToFloat64(pr.cmsRequests.WithLabelValues("fetch_page", "success")); got != 1 {
		t.Errorf("cms success requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pr.listingLoads.WithLabelValues("success")); got != 2 {
		t.Errorf("listing loads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pr.snapshotLookups.WithLabelValues("stale")); got != 1 {
		t.Errorf("stale lookups = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pr.pagesBuilt.WithLabelValues("post")); got != 1 {
		t.Errorf("pages built = %v, want 1", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNilPrometheusRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveCMSRequest("query", time.Second, ResultSuccess)
	pr.IncListingLoad(ResultRejected)
	pr.IncSnapshotLookup(SnapshotMiss)
	pr.IncPagesBuilt("index")
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncListingLoad(ResultSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "spacetraveling_listing_loads_total") {
		t.Errorf("metrics output missing listing counter:\n%s", rec.Body.String())
	}
}
