package recon

import (
	"strings"

	"carelytics.io/homehealth/internal/config"
	"carelytics.io/homehealth/internal/metrics"
	"carelytics.io/homehealth/internal/namekey"
	"carelytics.io/homehealth/internal/similarity"
)

// DefaultCostMatchThreshold is the minimum fuzzy similarity for a cost
// row to be matched to a claim patient. Looser than identity resolution
// on purpose: a false match here surfaces in the by-physician report
// and an unmatched row stays visible in its own listing, so nothing is
// silently wrong.
const DefaultCostMatchThreshold = 0.7

// Categorizer classifies cost-ledger rows against a physician lookup.
// It is stateless with respect to the rows: categorizing one row never
// depends on another row's outcome.
type Categorizer struct {
	scorer    similarity.Scorer
	threshold float64
	keywords  []string
}

// NewCategorizer creates a categorizer. A nil scorer selects the
// sequence ratio, a zero threshold selects DefaultCostMatchThreshold,
// and nil keywords select the default overhead set.
func NewCategorizer(scorer similarity.Scorer, threshold float64, keywords []string) *Categorizer {
	if scorer == nil {
		scorer = similarity.SequenceScorer{}
	}
	if threshold <= 0 {
		threshold = DefaultCostMatchThreshold
	}
	if keywords == nil {
		keywords = config.DefaultOverheadKeywords
	}
	return &Categorizer{
		scorer:    scorer,
		threshold: threshold,
		keywords:  keywords,
	}
}

// Categorize classifies a single entry, setting its Category and, for
// matches, the physician and claim patient name. Rules fire in strict
// priority order:
//
//  1. empty name          -> NO_PATIENT
//  2. overhead keyword    -> OVERHEAD (before any name matching)
//  3. exact key in lookup -> MATCHED
//  4. fuzzy scan          -> MATCHED above threshold, else UNMATCHED
func (c *Categorizer) Categorize(entry *CostEntry, lookup *PhysicianLookup) {
	entry.Category = c.classify(entry, lookup)
	metrics.RecordCostCategory(string(entry.Category))
}

func (c *Categorizer) classify(entry *CostEntry, lookup *PhysicianLookup) Category {
	raw := strings.TrimSpace(entry.RawPatientName)
	key := namekey.NormalizeKey(raw)

	if key == "" {
		return CategoryNoPatient
	}

	lower := strings.ToLower(raw)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return CategoryOverhead
		}
	}

	if physician, patientName, ok := lookup.Exact(key); ok {
		entry.MatchedPhysician = physician
		entry.MatchedClaimPatient = patientName
		return CategoryMatched
	}

	// Fuzzy scan in lookup insertion order; strictly-greater comparison
	// keeps the first key reaching the maximum.
	bestScore := 0.0
	bestKey := ""
	for _, candidate := range lookup.Keys() {
		score := c.scorer.Score(key, candidate)
		if score > bestScore && score > c.threshold {
			bestScore = score
			bestKey = candidate
		}
	}
	if bestKey != "" {
		physician, patientName, _ := lookup.Exact(bestKey)
		entry.MatchedPhysician = physician
		entry.MatchedClaimPatient = patientName
		return CategoryMatched
	}

	return CategoryUnmatched
}

// CategorizeAll classifies every entry in place against the lookup.
func (c *Categorizer) CategorizeAll(entries []CostEntry, lookup *PhysicianLookup) {
	for i := range entries {
		c.Categorize(&entries[i], lookup)
	}
}
