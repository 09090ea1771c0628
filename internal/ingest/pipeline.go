package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/metrics"
	"carelytics.io/homehealth/internal/registry"
)

// Stats tracks processing totals across a pipeline run.
type Stats struct {
	FilesProcessed    int
	FilesFailed       int
	RecordsRead       int
	RecordsImported   int
	RecordsFailed     int
	DuplicatesSkipped int
	StartTime         time.Time
}

// Pipeline ingests claim and visit files into the registry. Per-record
// failures are counted and skipped; per-file failures abort that file
// and are recorded in the import log, and the batch continues.
type Pipeline struct {
	store     registry.Store
	resolver  *registry.Resolver
	visits    *registry.VisitWriter
	importLog ImportLog

	// Batch identifies this ingestion run; it becomes created_by on new
	// patient identities and source_batch on stored records.
	Batch string
	Stats Stats
}

// NewPipeline creates a pipeline over the given store and resolver.
func NewPipeline(store registry.Store, resolver *registry.Resolver, importLog ImportLog) *Pipeline {
	if importLog == nil {
		importLog = LogImportLog{}
	}
	return &Pipeline{
		store:     store,
		resolver:  resolver,
		visits:    registry.NewVisitWriter(store),
		importLog: importLog,
		Batch:     time.Now().Format("20060102_150405"),
		Stats:     Stats{StartTime: time.Now()},
	}
}

// IngestClaimsFile loads a claims CSV and stores each row, resolving
// the patient identity first.
func (p *Pipeline) IngestClaimsFile(ctx context.Context, path string) error {
	entry := p.startEntry(path, "claims")

	rows, skipped, err := LoadClaimsCSV(path)
	if err != nil {
		return p.failEntry(ctx, entry, err)
	}
	entry.RecordsRead = len(rows) + skipped
	entry.RecordsFailed = skipped

	for _, row := range rows {
		if err := p.storeClaim(ctx, row); err != nil {
			log.Warn().Err(err).Str("patient", row.PatientName).Msg("Failed to ingest claim")
			entry.RecordsFailed++
			metrics.RecordIngestRecord("claims", "failed")
			continue
		}
		entry.RecordsImported++
		metrics.RecordIngestRecord("claims", "imported")
	}

	return p.finishEntry(ctx, entry)
}

func (p *Pipeline) storeClaim(ctx context.Context, row ClaimRow) error {
	patientID, err := p.resolver.Resolve(ctx, 0, row.PatientName, p.Batch)
	if err != nil {
		return fmt.Errorf("resolve claim patient: %w", err)
	}

	claim := registry.ClaimRecord{
		ClaimNumber:  row.ClaimCode,
		PatientID:    patientID,
		PatientName:  row.PatientName,
		PeriodStart:  row.PeriodStart,
		PeriodEnd:    row.PeriodEnd,
		BilledAmount: row.ClaimAmount,
		PaidAmount:   row.PaidAmount,
		Balance:      row.Balance,
		Physician:    row.PrimaryPhysician,
		Insurance:    row.Insurance,
		SourceBatch:  p.Batch,
	}
	if err := p.store.UpsertClaim(ctx, claim); err != nil {
		return fmt.Errorf("store claim %s: %w", row.ClaimCode, err)
	}
	return nil
}

// IngestVisitsFile loads a visit log CSV and stores each visit through
// the duplicate guard, so re-running the same file is idempotent.
func (p *Pipeline) IngestVisitsFile(ctx context.Context, path string) error {
	entry := p.startEntry(path, "visits")

	rows, skipped, err := LoadVisitsCSV(path)
	if err != nil {
		return p.failEntry(ctx, entry, err)
	}
	entry.RecordsRead = len(rows) + skipped
	entry.RecordsFailed = skipped

	before := p.visits.Skipped
	for _, row := range rows {
		if err := p.storeVisit(ctx, row); err != nil {
			log.Warn().Err(err).Str("patient", row.PatientName).Msg("Failed to ingest visit")
			entry.RecordsFailed++
			metrics.RecordIngestRecord("visits", "failed")
			continue
		}
		entry.RecordsImported++
		metrics.RecordIngestRecord("visits", "imported")
	}
	p.Stats.DuplicatesSkipped += p.visits.Skipped - before

	return p.finishEntry(ctx, entry)
}

func (p *Pipeline) storeVisit(ctx context.Context, row VisitRow) error {
	patientID, err := p.resolver.Resolve(ctx, 0, row.PatientName, p.Batch)
	if err != nil {
		return fmt.Errorf("resolve visit patient: %w", err)
	}

	visit := registry.VisitRecord{
		PatientID:     patientID,
		VisitDate:     row.VisitDate,
		ServiceCode:   row.ServiceCode,
		DurationHours: row.DurationHours,
		ChargeAmount:  row.ChargeAmount,
		SourceBatch:   p.Batch,
	}
	return p.visits.Store(ctx, visit)
}

// Run ingests the configured claim and visit files. A failed file does
// not abort the run; the error of the last failed file is returned so
// callers can flag a partial batch.
func (p *Pipeline) Run(ctx context.Context, claimsPath, visitsPath string) error {
	log.Info().Str("batch", p.Batch).Msg("Starting ingestion pipeline")

	var lastErr error
	if claimsPath != "" {
		if err := p.IngestClaimsFile(ctx, claimsPath); err != nil {
			lastErr = err
		}
	}
	if visitsPath != "" {
		if err := p.IngestVisitsFile(ctx, visitsPath); err != nil {
			lastErr = err
		}
	}

	p.logSummary()
	return lastErr
}

func (p *Pipeline) startEntry(path, fileType string) ImportEntry {
	return ImportEntry{
		ImportID:  uuid.NewString(),
		Batch:     p.Batch,
		FileName:  filepath.Base(path),
		FileType:  fileType,
		StartedAt: time.Now(),
	}
}

func (p *Pipeline) failEntry(ctx context.Context, entry ImportEntry, err error) error {
	entry.Status = ImportFailed
	entry.ErrorMessage = err.Error()
	entry.FinishedAt = time.Now()
	p.Stats.FilesFailed++

	if logErr := p.importLog.Record(ctx, entry); logErr != nil {
		log.Error().Err(logErr).Str("file", entry.FileName).Msg("Failed to record import log")
	}

	var loadErr *DataLoadError
	if errors.As(err, &loadErr) {
		log.Error().Err(err).Str("file", entry.FileName).Msg("Source file failed to load, continuing batch")
	}
	return err
}

func (p *Pipeline) finishEntry(ctx context.Context, entry ImportEntry) error {
	entry.Status = ImportCompleted
	entry.FinishedAt = time.Now()

	p.Stats.FilesProcessed++
	p.Stats.RecordsRead += entry.RecordsRead
	p.Stats.RecordsImported += entry.RecordsImported
	p.Stats.RecordsFailed += entry.RecordsFailed

	if err := p.importLog.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("file", entry.FileName).Msg("Failed to record import log")
	}

	log.Info().
		Str("file", entry.FileName).
		Int("imported", entry.RecordsImported).
		Int("failed", entry.RecordsFailed).
		Msg("Completed ingesting file")
	return nil
}

func (p *Pipeline) logSummary() {
	log.Info().
		Str("batch", p.Batch).
		Dur("duration", time.Since(p.Stats.StartTime)).
		Int("files_processed", p.Stats.FilesProcessed).
		Int("files_failed", p.Stats.FilesFailed).
		Int("records_read", p.Stats.RecordsRead).
		Int("records_imported", p.Stats.RecordsImported).
		Int("records_failed", p.Stats.RecordsFailed).
		Int("duplicates_skipped", p.Stats.DuplicatesSkipped).
		Msg("Ingestion pipeline summary")
}
