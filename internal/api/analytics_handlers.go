package api

import (
	"errors"
	"net/http"

	"carelytics.io/homehealth/internal/analytics"
)

func (s *Server) analytics(w http.ResponseWriter) (*analytics.Analytics, bool) {
	views, err := s.repo.Analytics()
	if err != nil {
		if errors.Is(err, ErrNoReport) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return views, true
}

// SummaryHandler returns the agency-wide operational metrics.
func (s *Server) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.Summary)
}

// RevenueByClaimHandler returns the per-claim revenue rows.
func (s *Server) RevenueByClaimHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.RevenueByClaim)
}

// ServiceCostsHandler returns estimated delivery costs per patient and
// service type.
func (s *Server) ServiceCostsHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.ServiceCosts)
}

// PatientProfitHandler returns per-patient profitability.
func (s *Server) PatientProfitHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.ProfitabilityByPatient)
}

// ProviderPerformanceHandler returns visit volume and cost per provider
// and service type.
func (s *Server) ProviderPerformanceHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.ProviderPerformance)
}

// CodePerformanceHandler returns charge and cost totals per service code.
func (s *Server) CodePerformanceHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.CodePerformance)
}

// InsurancePerformanceHandler returns billing outcomes grouped by payer.
func (s *Server) InsurancePerformanceHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.InsurancePerformance)
}

// MonthlySummaryHandler returns billed, paid and cost totals per month.
func (s *Server) MonthlySummaryHandler(w http.ResponseWriter, r *http.Request) {
	views, ok := s.analytics(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.MonthlySummary)
}
