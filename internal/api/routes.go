package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carelytics.io/homehealth/internal/metrics"
)

// SetupRoutes configures and returns the HTTP router
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(metrics.Middleware)

	// Health
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")

	// Profitability report endpoints
	r.HandleFunc("/profitability/analysis", s.AnalysisHandler).Methods("GET")
	r.HandleFunc("/profitability/overall", s.OverallHandler).Methods("GET")
	r.HandleFunc("/profitability/by-physician", s.ByPhysicianHandler).Methods("GET")
	r.HandleFunc("/profitability/unmatched", s.UnmatchedHandler).Methods("GET")
	r.HandleFunc("/profitability/overhead", s.OverheadHandler).Methods("GET")
	r.HandleFunc("/profitability/export", s.ExportHandler).Methods("GET")

	// Operational analytics endpoints
	r.HandleFunc("/analytics/refresh", s.RefreshHandler).Methods("POST")
	r.HandleFunc("/analytics/summary", s.SummaryHandler).Methods("GET")
	r.HandleFunc("/analytics/revenue-by-claim", s.RevenueByClaimHandler).Methods("GET")
	r.HandleFunc("/analytics/service-costs", s.ServiceCostsHandler).Methods("GET")
	r.HandleFunc("/analytics/profitability-by-patient", s.PatientProfitHandler).Methods("GET")
	r.HandleFunc("/analytics/provider-performance", s.ProviderPerformanceHandler).Methods("GET")
	r.HandleFunc("/analytics/code-performance", s.CodePerformanceHandler).Methods("GET")
	r.HandleFunc("/analytics/insurance-performance", s.InsurancePerformanceHandler).Methods("GET")
	r.HandleFunc("/analytics/monthly-summary", s.MonthlySummaryHandler).Methods("GET")

	// Patient registry endpoints
	r.HandleFunc("/patients", s.ListPatientsHandler).Methods("GET")
	r.HandleFunc("/patients/{id}", s.GetPatientHandler).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
