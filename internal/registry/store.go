package registry

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store is the persistence boundary for the registry. Implementations
// must return patient candidates in creation order so that resolution
// tie-breaking stays deterministic.
type Store interface {
	GetPatient(ctx context.Context, id int) (PatientIdentity, bool, error)
	// PatientCandidates returns identities sharing a first or last name
	// with the input, in creation order. Bucketing by name component
	// keeps candidate scans bounded instead of scanning the registry.
	PatientCandidates(ctx context.Context, firstName, lastName string) ([]PatientIdentity, error)
	MaxPatientID(ctx context.Context) (int, error)
	InsertPatient(ctx context.Context, p PatientIdentity) error
	ListPatients(ctx context.Context) ([]PatientIdentity, error)

	VisitExists(ctx context.Context, key VisitKey) (bool, error)
	InsertVisit(ctx context.Context, v VisitRecord) error
	ListVisits(ctx context.Context) ([]VisitRecord, error)
	CountVisits(ctx context.Context) (int, error)

	UpsertClaim(ctx context.Context, c ClaimRecord) error
	ListClaims(ctx context.Context) ([]ClaimRecord, error)
}

// MemoryStore is an in-memory Store used by tests and single-shot batch
// runs. Patient lookups are bucketed by lower-cased first and last name.
type MemoryStore struct {
	mu       sync.RWMutex
	patients map[int]PatientIdentity
	order    []int // patient ids in creation order
	byFirst  map[string][]int
	byLast   map[string][]int
	visits   map[VisitKey]VisitRecord
	visitSeq []VisitKey // visit keys in insertion order
	claims   map[string]ClaimRecord
	claimSeq []string // claim numbers in first-seen order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients: make(map[int]PatientIdentity),
		byFirst:  make(map[string][]int),
		byLast:   make(map[string][]int),
		visits:   make(map[VisitKey]VisitRecord),
		claims:   make(map[string]ClaimRecord),
	}
}

func (s *MemoryStore) GetPatient(_ context.Context, id int) (PatientIdentity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	return p, ok, nil
}

func (s *MemoryStore) PatientCandidates(_ context.Context, firstName, lastName string) ([]PatientIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]bool)
	var ids []int
	for _, bucket := range [][]int{
		s.byLast[strings.ToLower(lastName)],
		s.byFirst[strings.ToLower(firstName)],
	} {
		for _, id := range bucket {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	// creation order, regardless of which bucket supplied the id
	pos := make(map[int]int, len(s.order))
	for i, id := range s.order {
		pos[id] = i
	}
	sort.Slice(ids, func(i, j int) bool { return pos[ids[i]] < pos[ids[j]] })

	candidates := make([]PatientIdentity, 0, len(ids))
	for _, id := range ids {
		candidates = append(candidates, s.patients[id])
	}
	return candidates, nil
}

func (s *MemoryStore) MaxPatientID(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxID := 0
	for id := range s.patients {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (s *MemoryStore) InsertPatient(_ context.Context, p PatientIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.patients[p.PatientID]; exists {
		return nil
	}
	s.patients[p.PatientID] = p
	s.order = append(s.order, p.PatientID)
	if p.FirstName != "" {
		key := strings.ToLower(p.FirstName)
		s.byFirst[key] = append(s.byFirst[key], p.PatientID)
	}
	if p.LastName != "" {
		key := strings.ToLower(p.LastName)
		s.byLast[key] = append(s.byLast[key], p.PatientID)
	}
	return nil
}

func (s *MemoryStore) ListPatients(_ context.Context) ([]PatientIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := make([]PatientIdentity, 0, len(s.order))
	for _, id := range s.order {
		patients = append(patients, s.patients[id])
	}
	return patients, nil
}

func (s *MemoryStore) VisitExists(_ context.Context, key VisitKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.visits[key]
	return ok, nil
}

func (s *MemoryStore) InsertVisit(_ context.Context, v VisitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := v.Key()
	if _, exists := s.visits[key]; exists {
		return nil
	}
	s.visits[key] = v
	s.visitSeq = append(s.visitSeq, key)
	return nil
}

func (s *MemoryStore) ListVisits(_ context.Context) ([]VisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visits := make([]VisitRecord, 0, len(s.visitSeq))
	for _, key := range s.visitSeq {
		visits = append(visits, s.visits[key])
	}
	return visits, nil
}

func (s *MemoryStore) CountVisits(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.visits), nil
}

func (s *MemoryStore) UpsertClaim(_ context.Context, c ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[c.ClaimNumber]; !exists {
		s.claimSeq = append(s.claimSeq, c.ClaimNumber)
	}
	s.claims[c.ClaimNumber] = c
	return nil
}

func (s *MemoryStore) ListClaims(_ context.Context) ([]ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims := make([]ClaimRecord, 0, len(s.claimSeq))
	for _, num := range s.claimSeq {
		claims = append(claims, s.claims[num])
	}
	return claims, nil
}
