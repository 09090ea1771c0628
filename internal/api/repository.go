package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/analytics"
	"carelytics.io/homehealth/internal/config"
	"carelytics.io/homehealth/internal/ingest"
	"carelytics.io/homehealth/internal/metrics"
	"carelytics.io/homehealth/internal/recon"
	"carelytics.io/homehealth/internal/registry"
)

// ErrNoReport means no analysis has been built yet.
var ErrNoReport = errors.New("no report available, run a refresh first")

// ReportRepository builds and caches the reconciliation report and the
// operational analytics views. Handlers read the cached snapshots;
// Reload rebuilds both from the registry and the cost ledger.
type ReportRepository struct {
	store       registry.Store
	categorizer *recon.Categorizer
	costsPath   string

	mu        sync.RWMutex
	report    *recon.Report
	analytics *analytics.Analytics
}

// NewReportRepository creates a repository over the given store. The
// categorizer is configured from cfg's threshold and keyword settings.
func NewReportRepository(store registry.Store, cfg config.Config) *ReportRepository {
	return &ReportRepository{
		store:       store,
		categorizer: recon.NewCategorizer(nil, cfg.CostMatchThreshold, cfg.OverheadKeywords),
		costsPath:   cfg.CostsPath,
	}
}

// Report returns the current snapshot. The returned report is shared and
// must not be mutated.
func (r *ReportRepository) Report() (*recon.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.report == nil {
		return nil, ErrNoReport
	}
	return r.report, nil
}

// Analytics returns the current operational views. The returned snapshot
// is shared and must not be mutated.
func (r *ReportRepository) Analytics() (*analytics.Analytics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.analytics == nil {
		return nil, ErrNoReport
	}
	return r.analytics, nil
}

// Reload rebuilds the report from the stored claims and the cost ledger
// and swaps it in atomically. On failure the previous snapshot stays.
func (r *ReportRepository) Reload(ctx context.Context) error {
	start := time.Now()

	claims, err := r.store.ListClaims(ctx)
	if err != nil {
		metrics.ReportBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("list claims: %w", err)
	}

	costs, err := ingest.LoadCostsXLSX(r.costsPath)
	if err != nil {
		metrics.ReportBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("load cost ledger: %w", err)
	}

	visits, err := r.store.ListVisits(ctx)
	if err != nil {
		metrics.ReportBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("list visits: %w", err)
	}

	patients, err := r.store.ListPatients(ctx)
	if err != nil {
		metrics.ReportBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("list patients: %w", err)
	}

	lookup := recon.BuildPhysicianLookup(claims)
	r.categorizer.CategorizeAll(costs, lookup)

	now := time.Now()
	report, err := recon.BuildReport(claims, costs, now)
	if err != nil {
		metrics.ReportBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("build report: %w", err)
	}

	// a cost ledger with no claims or visits still yields a report, just
	// no operational views
	views, err := analytics.Build(claims, visits, patients, now)
	if err != nil && !errors.Is(err, analytics.ErrNoData) {
		metrics.ReportBuildsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("build analytics: %w", err)
	}

	r.mu.Lock()
	r.report = report
	r.analytics = views
	r.mu.Unlock()

	metrics.ReportBuildsTotal.WithLabelValues("success").Inc()
	log.Info().
		Int("claims", len(claims)).
		Int("visits", len(visits)).
		Int("cost_entries", len(costs)).
		Dur("duration", time.Since(start)).
		Msg("Report rebuilt")
	return nil
}
