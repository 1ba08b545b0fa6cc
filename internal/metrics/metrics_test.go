package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestRouteLabel(t *testing.T) {
	if got := RouteLabel(nil); got != UnmatchedRoute {
		t.Fatalf("RouteLabel(nil) = %q", got)
	}
	r := httptest.NewRequest(http.MethodGet, "/api/products/42", nil)
	if got := RouteLabel(r); got != UnmatchedRoute {
		t.Fatalf("expected unmatched before routing, got %q", got)
	}
	newTestMux().ServeHTTP(httptest.NewRecorder(), r)
	if got := RouteLabel(r); got != "/api/products/" {
		t.Fatalf("RouteLabel after routing = %q", got)
	}
}

func TestInstrumentCountsRequests(t *testing.T) {
	h := Instrument("count-test", newTestMux())
	counter := httpRequests.WithLabelValues("count-test", "/api/products", http.MethodPost, "201")
	before := testutil.ToFloat64(counter)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/products", nil))
	if after := testutil.ToFloat64(counter); after-before != 1 {
		t.Fatalf("expected one counted request, got %v", after-before)
	}
}

func TestInstrumentBoundsPathLabels(t *testing.T) {
	h := Instrument("scan-test", newTestMux())
	before := testutil.CollectAndCount(httpRequests)
	for i := 0; i < 50; i++ {
		path := fmt.Sprintf("/scan/x%d/admin.php", i)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("/api/products/item-%d", i)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	for i := 0; i < 10; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(fmt.Sprintf("SCAN%d", i), "/scan", nil))
	}
	// unmatched GET 404s, the product subtree, unmatched OTHER 404s
	if added := testutil.CollectAndCount(httpRequests) - before; added > 3 {
		t.Fatalf("expected at most 3 new series, got %d", added)
	}
	unmatched := testutil.ToFloat64(httpRequests.WithLabelValues("scan-test", UnmatchedRoute, http.MethodGet, "404"))
	if unmatched != 50 {
		t.Fatalf("expected 50 unmatched requests, got %v", unmatched)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	CacheHit()
	CacheMiss()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cache_lookups_total") {
		t.Fatalf("expected cache_lookups_total in exposition")
	}
}
