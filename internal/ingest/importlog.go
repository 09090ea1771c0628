package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ImportStatus is the final state of a single file import.
type ImportStatus string

const (
	ImportCompleted ImportStatus = "Completed"
	ImportFailed    ImportStatus = "Failed"
)

// ImportEntry records the outcome of processing one source file.
type ImportEntry struct {
	ImportID        string       `json:"import_id"`
	Batch           string       `json:"batch"`
	FileName        string       `json:"file_name"`
	FileType        string       `json:"file_type"`
	RecordsRead     int          `json:"records_read"`
	RecordsImported int          `json:"records_imported"`
	RecordsFailed   int          `json:"records_failed"`
	Status          ImportStatus `json:"status"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      time.Time    `json:"finished_at"`
}

// ImportLog persists per-file import outcomes.
type ImportLog interface {
	Record(ctx context.Context, entry ImportEntry) error
}

// LogImportLog writes import outcomes to the structured log only. Used
// for in-memory batch runs where nothing durable backs the registry.
type LogImportLog struct{}

func (LogImportLog) Record(_ context.Context, entry ImportEntry) error {
	event := log.Info()
	if entry.Status == ImportFailed {
		event = log.Error()
	}
	event.
		Str("import_id", entry.ImportID).
		Str("batch", entry.Batch).
		Str("file", entry.FileName).
		Int("records_read", entry.RecordsRead).
		Int("records_imported", entry.RecordsImported).
		Int("records_failed", entry.RecordsFailed).
		Str("status", string(entry.Status)).
		Str("error", entry.ErrorMessage).
		Msg("Import log entry")
	return nil
}
