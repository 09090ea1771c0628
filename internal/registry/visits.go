package registry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/metrics"
)

// VisitWriter stores visit records, silently skipping duplicates so that
// re-running ingestion over the same source file is idempotent.
type VisitWriter struct {
	store Store

	// Skipped counts duplicate visits dropped since construction.
	Skipped int
	// Stored counts visits actually written since construction.
	Stored int
}

// NewVisitWriter creates a writer over the given store.
func NewVisitWriter(store Store) *VisitWriter {
	return &VisitWriter{store: store}
}

// Store inserts a visit unless one with the same (patient, date, service
// code) tuple already exists. Duplicates are counted, not errors.
func (w *VisitWriter) Store(ctx context.Context, v VisitRecord) error {
	exists, err := w.store.VisitExists(ctx, v.Key())
	if err != nil {
		return fmt.Errorf("check visit %d/%s/%s: %w",
			v.PatientID, v.VisitDate.Format("2006-01-02"), v.ServiceCode, err)
	}
	if exists {
		w.Skipped++
		metrics.DuplicateVisitsSkipped.Inc()
		log.Debug().
			Int("patient_id", v.PatientID).
			Str("visit_date", v.VisitDate.Format("2006-01-02")).
			Str("service_code", v.ServiceCode).
			Msg("Duplicate visit skipped")
		return nil
	}

	if err := w.store.InsertVisit(ctx, v); err != nil {
		return fmt.Errorf("store visit for patient %d: %w", v.PatientID, err)
	}
	w.Stored++
	return nil
}
