package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRouteTemplateLabel(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Middleware)
	router.HandleFunc("/patients/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// distinct IDs must land on the same label, not one series each
	for _, path := range []string{"/patients/1", "/patients/2", "/patients/31415"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rr.Code)
		}
	}

	got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/patients/{id}", "200"))
	if got != 3 {
		t.Errorf("requests counted under /patients/{id} = %v, want 3", got)
	}
}

func TestMiddlewareRecordsHandlerStatus(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Middleware)
	router.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	}).Methods("GET")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/reports", "503"))
	if got != 1 {
		t.Errorf("503 responses counted = %v, want 1", got)
	}
}

func TestEndpointLabelFallsBackToPath(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/no-route-here", nil)
	if got := endpointLabel(r); got != "/no-route-here" {
		t.Errorf("endpointLabel = %q, want raw path", got)
	}
}
