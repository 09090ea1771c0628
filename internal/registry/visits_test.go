package registry

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testVisit(patientID int, day int, code string) VisitRecord {
	return VisitRecord{
		PatientID:     patientID,
		VisitDate:     time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		ServiceCode:   code,
		DurationHours: 1.5,
		ChargeAmount:  decimal.NewFromInt(120),
		SourceBatch:   "batch-1",
	}
}

func TestVisitWriterStoresNewVisits(t *testing.T) {
	store := NewMemoryStore()
	w := NewVisitWriter(store)
	ctx := context.Background()

	visits := []VisitRecord{
		testVisit(1, 1, "SN"),
		testVisit(1, 1, "PT"), // same day, different service
		testVisit(1, 2, "SN"),
		testVisit(2, 1, "SN"), // same day/service, different patient
	}
	for _, v := range visits {
		if err := w.Store(ctx, v); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	count, err := store.CountVisits(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != len(visits) {
		t.Errorf("expected %d visits, got %d", len(visits), count)
	}
	if w.Stored != len(visits) || w.Skipped != 0 {
		t.Errorf("unexpected counters: stored=%d skipped=%d", w.Stored, w.Skipped)
	}
}

func TestVisitWriterIngestionIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	file := []VisitRecord{
		testVisit(1, 1, "SN"),
		testVisit(1, 2, "SN"),
		testVisit(2, 1, "HHA"),
	}

	// ingest the same file twice
	w := NewVisitWriter(store)
	for i := 0; i < 2; i++ {
		for _, v := range file {
			if err := w.Store(ctx, v); err != nil {
				t.Fatalf("store: %v", err)
			}
		}
	}

	count, err := store.CountVisits(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != len(file) {
		t.Errorf("expected %d visits after re-ingestion, got %d", len(file), count)
	}
	if w.Skipped != len(file) {
		t.Errorf("expected %d duplicates skipped, got %d", len(file), w.Skipped)
	}
}

func TestVisitWriterDuplicateIsNotAnOverwrite(t *testing.T) {
	store := NewMemoryStore()
	w := NewVisitWriter(store)
	ctx := context.Background()

	original := testVisit(1, 1, "SN")
	if err := w.Store(ctx, original); err != nil {
		t.Fatalf("store: %v", err)
	}

	altered := original
	altered.ChargeAmount = decimal.NewFromInt(999)
	if err := w.Store(ctx, altered); err != nil {
		t.Fatalf("store duplicate: %v", err)
	}

	exists, err := store.VisitExists(ctx, original.Key())
	if err != nil || !exists {
		t.Fatalf("expected original visit to remain, exists=%v err=%v", exists, err)
	}
	if got := store.visits[original.Key()].ChargeAmount; !got.Equal(original.ChargeAmount) {
		t.Errorf("duplicate insertion overwrote the original: %v", got)
	}
}
