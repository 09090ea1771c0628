package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"carelytics.io/homehealth/internal/registry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const claimsCSV = `Claim Number,Patient Name,Period Start,Period End,Claim Amount,Paid Amount,Balance,Primary Physician
C-1001,"Doe, Jane (12345)",2024-01-01,2024-01-31,"$1,200.00",$1000.00,$200.00,Dr. Adams
C-1002,"Doe, Janet",2024-02-01,2024-02-29,$500.00,$450.00,$50.00,Dr. Adams
C-1003,"Brown, Carlos",2024-01-15,2024-02-14,$800.00,$800.00,$0.00,Dr. Baker
`

const visitsCSV = `Patient Name,Visit Date,Service Code,Duration Hours,Charge Amount
"Doe, Jane",2024-01-05,SN,1.5,$150.00
"Doe, Jane",2024-01-05,SN,1.5,$150.00
"Brown, Carlos",2024-01-20,PT,1.0,$120.00
`

func TestPipelineIngestClaims(t *testing.T) {
	store := registry.NewMemoryStore()
	resolver := registry.NewResolver(store, nil, 0)
	p := NewPipeline(store, resolver, nil)

	path := writeFile(t, "claims.csv", claimsCSV)
	if err := p.IngestClaimsFile(context.Background(), path); err != nil {
		t.Fatalf("IngestClaimsFile: %v", err)
	}

	claims, err := store.ListClaims(context.Background())
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 3 {
		t.Fatalf("claims stored = %d, want 3", len(claims))
	}

	// The embedded ID fixes Jane Doe's identity; the fuzzy name "Doe,
	// Janet" should land on the same patient instead of a new one.
	if claims[0].PatientID != 12345 {
		t.Errorf("explicit claim patient = %d, want 12345", claims[0].PatientID)
	}
	if claims[1].PatientID != 12345 {
		t.Errorf("fuzzy claim patient = %d, want 12345", claims[1].PatientID)
	}
	if claims[2].PatientID == 12345 {
		t.Errorf("distinct patient resolved to 12345")
	}

	if p.Stats.RecordsImported != 3 || p.Stats.RecordsFailed != 0 {
		t.Errorf("stats = %+v, want 3 imported, 0 failed", p.Stats)
	}
}

func TestPipelineVisitDeduplication(t *testing.T) {
	store := registry.NewMemoryStore()
	resolver := registry.NewResolver(store, nil, 0)
	p := NewPipeline(store, resolver, nil)

	path := writeFile(t, "visits.csv", visitsCSV)
	if err := p.IngestVisitsFile(context.Background(), path); err != nil {
		t.Fatalf("IngestVisitsFile: %v", err)
	}

	count, err := store.CountVisits(context.Background())
	if err != nil {
		t.Fatalf("CountVisits: %v", err)
	}
	if count != 2 {
		t.Errorf("visits stored = %d, want 2 (one exact duplicate in file)", count)
	}
	if p.Stats.DuplicatesSkipped != 1 {
		t.Errorf("DuplicatesSkipped = %d, want 1", p.Stats.DuplicatesSkipped)
	}

	// Re-running the same file stores nothing new.
	if err := p.IngestVisitsFile(context.Background(), path); err != nil {
		t.Fatalf("IngestVisitsFile rerun: %v", err)
	}
	count, _ = store.CountVisits(context.Background())
	if count != 2 {
		t.Errorf("visits after rerun = %d, want 2", count)
	}
}

func TestPipelineMissingFileContinues(t *testing.T) {
	store := registry.NewMemoryStore()
	resolver := registry.NewResolver(store, nil, 0)

	recorder := &recordingImportLog{}
	p := NewPipeline(store, resolver, recorder)

	visits := writeFile(t, "visits.csv", visitsCSV)
	err := p.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), visits)
	if err == nil {
		t.Fatal("Run with missing claims file returned nil error")
	}

	// The visits file must still have been processed.
	count, _ := store.CountVisits(context.Background())
	if count != 2 {
		t.Errorf("visits stored = %d, want 2", count)
	}

	if len(recorder.entries) != 2 {
		t.Fatalf("import log entries = %d, want 2", len(recorder.entries))
	}
	if recorder.entries[0].Status != ImportFailed {
		t.Errorf("claims entry status = %q, want %q", recorder.entries[0].Status, ImportFailed)
	}
	if recorder.entries[1].Status != ImportCompleted {
		t.Errorf("visits entry status = %q, want %q", recorder.entries[1].Status, ImportCompleted)
	}
	if p.Stats.FilesFailed != 1 || p.Stats.FilesProcessed != 1 {
		t.Errorf("stats = %+v, want 1 failed, 1 processed", p.Stats)
	}
}

func TestPipelineBadRowSkipped(t *testing.T) {
	store := registry.NewMemoryStore()
	resolver := registry.NewResolver(store, nil, 0)
	p := NewPipeline(store, resolver, nil)

	// Second row has no usable name and no embedded ID.
	csv := `Claim Number,Patient Name,Period Start,Period End,Claim Amount,Paid Amount,Balance,Primary Physician
C-1,"Doe, Jane",2024-01-01,2024-01-31,$100.00,$90.00,$10.00,Dr. Adams
C-2,nan,2024-01-01,2024-01-31,$100.00,$90.00,$10.00,Dr. Adams
`
	path := writeFile(t, "claims.csv", csv)
	if err := p.IngestClaimsFile(context.Background(), path); err != nil {
		t.Fatalf("IngestClaimsFile: %v", err)
	}

	claims, _ := store.ListClaims(context.Background())
	if len(claims) != 1 {
		t.Errorf("claims stored = %d, want 1", len(claims))
	}
	if p.Stats.RecordsFailed != 1 {
		t.Errorf("RecordsFailed = %d, want 1", p.Stats.RecordsFailed)
	}
}

type recordingImportLog struct {
	entries []ImportEntry
}

func (r *recordingImportLog) Record(_ context.Context, entry ImportEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}
