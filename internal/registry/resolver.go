package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/metrics"
	"carelytics.io/homehealth/internal/namekey"
	"carelytics.io/homehealth/internal/similarity"
)

// ErrInvalidIdentity is returned when a record offers neither a usable
// name nor an explicit patient ID. It is fatal for that record only.
var ErrInvalidIdentity = errors.New("no usable patient name or id")

// DefaultMatchThreshold is the minimum similarity for an existing
// identity to be reused. False merges corrupt the registry permanently,
// so this is deliberately stricter than cost categorization.
const DefaultMatchThreshold = 0.85

// Resolver maps raw patient name strings (optionally carrying an
// embedded ID) to stable patient identities, creating one when no
// sufficiently similar identity exists.
type Resolver struct {
	store     Store
	scorer    similarity.Scorer
	threshold float64

	// Serializes the candidate scan with the subsequent create so two
	// concurrent resolutions of the same new name cannot both create.
	mu sync.Mutex
}

// NewResolver creates a resolver over the given store. A zero threshold
// selects DefaultMatchThreshold; a nil scorer selects the Levenshtein
// ratio.
func NewResolver(store Store, scorer similarity.Scorer, threshold float64) *Resolver {
	if scorer == nil {
		scorer = similarity.LevenshteinScorer{}
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Resolver{
		store:     store,
		scorer:    scorer,
		threshold: threshold,
	}
}

// Resolve returns the patient ID for a raw name, creating an identity if
// needed. explicitID (0 when absent) takes precedence over anything
// embedded in the name; an existing identity with that ID short-circuits
// all name matching. batch is recorded as created_by on new identities.
func (r *Resolver) Resolve(ctx context.Context, explicitID int, rawName, batch string) (int, error) {
	embeddedID, firstName, lastName, fullName := namekey.SplitNameAndID(rawName)
	if explicitID == 0 {
		explicitID = embeddedID
	}

	if namekey.NormalizeKey(fullName) == "" && explicitID == 0 {
		return 0, fmt.Errorf("resolve %q: %w", rawName, ErrInvalidIdentity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Exact ID match has the highest priority and is never overridden
	// by name matching.
	if explicitID != 0 {
		_, found, err := r.store.GetPatient(ctx, explicitID)
		if err != nil {
			return 0, fmt.Errorf("lookup patient %d: %w", explicitID, err)
		}
		if found {
			metrics.RecordPatientResolution("matched_id")
			log.Debug().
				Int("patient_id", explicitID).
				Msg("Resolved patient by explicit ID")
			return explicitID, nil
		}
	}

	matchedID, score, err := r.bestCandidate(ctx, firstName, lastName, fullName)
	if err != nil {
		return 0, err
	}
	if matchedID != 0 {
		metrics.RecordPatientResolution("matched_name")
		log.Debug().
			Int("patient_id", matchedID).
			Float64("score", score).
			Str("name", fullName).
			Msg("Resolved patient by fuzzy match")
		return matchedID, nil
	}

	return r.createPatient(ctx, explicitID, firstName, lastName, fullName, batch)
}

// bestCandidate scans identities sharing a name component and returns
// the best-scoring one at or above the threshold. Ties break toward the
// earliest-created candidate, which the store returns first.
func (r *Resolver) bestCandidate(ctx context.Context, firstName, lastName, fullName string) (int, float64, error) {
	candidates, err := r.store.PatientCandidates(ctx, firstName, lastName)
	if err != nil {
		return 0, 0, fmt.Errorf("scan candidates for %q: %w", fullName, err)
	}

	bestID := 0
	bestScore := 0.0
	for _, candidate := range candidates {
		score := r.scorer.Score(strings.ToLower(fullName), strings.ToLower(candidate.FullName))
		if score > bestScore && score >= r.threshold {
			bestScore = score
			bestID = candidate.PatientID
		}
	}
	return bestID, bestScore, nil
}

func (r *Resolver) createPatient(ctx context.Context, explicitID int, firstName, lastName, fullName, batch string) (int, error) {
	patientID := explicitID
	if patientID == 0 {
		maxID, err := r.store.MaxPatientID(ctx)
		if err != nil {
			return 0, fmt.Errorf("allocate patient id: %w", err)
		}
		patientID = maxID + 1
	}

	patient := PatientIdentity{
		PatientID: patientID,
		FullName:  fullName,
		FirstName: firstName,
		LastName:  lastName,
		Status:    StatusActive,
		CreatedBy: batch,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertPatient(ctx, patient); err != nil {
		return 0, fmt.Errorf("create patient %q: %w", fullName, err)
	}

	metrics.RecordPatientResolution("created")
	log.Info().
		Int("patient_id", patientID).
		Str("name", fullName).
		Str("batch", batch).
		Msg("Created new patient")
	return patientID, nil
}
