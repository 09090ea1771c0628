package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/export"
	"carelytics.io/homehealth/internal/recon"
	"carelytics.io/homehealth/internal/registry"
)

// Server holds the handler dependencies.
type Server struct {
	store registry.Store
	repo  *ReportRepository
}

// NewServer creates the handler set over a store and report repository.
func NewServer(store registry.Store, repo *ReportRepository) *Server {
	return &Server{store: store, repo: repo}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HealthHandler reports service liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "homehealth-analytics",
	})
}

func (s *Server) report(w http.ResponseWriter) (*recon.Report, bool) {
	report, err := s.repo.Report()
	if err != nil {
		if errors.Is(err, ErrNoReport) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return report, true
}

// AnalysisHandler returns the full reconciliation report.
func (s *Server) AnalysisHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// OverallHandler returns the agency-wide summary section.
func (s *Server) OverallHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Overall)
}

// ByPhysicianHandler returns the per-physician breakdown.
func (s *Server) ByPhysicianHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.ByPhysician)
}

// UnmatchedHandler returns cost rows that matched no claim patient.
func (s *Server) UnmatchedHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.UnmatchedPatients)
}

// OverheadHandler returns the overhead cost breakdown.
func (s *Server) OverheadHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Overhead)
}

// ExportHandler streams the report as an Excel workbook.
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(report, &buf); err != nil {
		log.Error().Err(err).Msg("Failed to render Excel export")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	name := fmt.Sprintf("profitability_%s.xlsx", report.GeneratedAt.Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// RefreshHandler rebuilds the report from current data.
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := s.repo.Reload(r.Context()); err != nil {
		log.Error().Err(err).Msg("Report refresh failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Dur("duration", time.Since(start)).Msg("Report refreshed via API")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "refreshed",
		"message": "analysis rebuilt from current data",
	})
}

// ListPatientsHandler returns the resolved patient identities.
func (s *Server) ListPatientsHandler(w http.ResponseWriter, r *http.Request) {
	patients, err := s.store.ListPatients(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list patients")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(patients),
		"patients": patients,
	})
}

// GetPatientHandler returns one patient identity by numeric ID.
func (s *Server) GetPatientHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	patient, found, err := s.store.GetPatient(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("patient_id", id).Msg("Failed to fetch patient")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "patient not found")
		return
	}
	writeJSON(w, http.StatusOK, patient)
}
