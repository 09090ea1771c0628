package dal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/registry"
)

const (
	patientsCollection = "patients"
	visitsCollection   = "visits"
	claimsCollection   = "claims"
)

// Store is the Couchbase-backed registry.Store. One collection per
// entity; identities are keyed by patient ID, visits by their
// uniqueness tuple, claims by claim number.
type Store struct {
	conn *Connection
}

// NewStore creates a store over an established connection.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

func patientDocID(id int) string {
	return fmt.Sprintf("patient::%d", id)
}

func visitDocID(key registry.VisitKey) string {
	return fmt.Sprintf("visit::%d::%s::%s",
		key.PatientID, key.VisitDate.Format("2006-01-02"), key.ServiceCode)
}

func claimDocID(number string) string {
	return "claim::" + number
}

// claimDoc wraps a claim with its insertion timestamp so listing can
// preserve first-seen order, which the physician lookup depends on.
type claimDoc struct {
	registry.ClaimRecord
	InsertedAt time.Time `json:"inserted_at"`
}

func (s *Store) GetPatient(ctx context.Context, id int) (registry.PatientIdentity, bool, error) {
	var p registry.PatientIdentity

	result, err := s.conn.collection(patientsCollection).Get(patientDocID(id), &gocb.GetOptions{Context: ctx})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return p, false, nil
		}
		return p, false, fmt.Errorf("get patient %d: %w", id, err)
	}
	if err := result.Content(&p); err != nil {
		return p, false, fmt.Errorf("decode patient %d: %w", id, err)
	}
	return p, true, nil
}

// PatientCandidates selects identities sharing a first or last name, in
// creation order. Ordering by created_at rather than patient ID matters
// because explicit IDs can arrive out of sequence; the ID only breaks
// ties within the same timestamp.
func (s *Store) PatientCandidates(ctx context.Context, firstName, lastName string) ([]registry.PatientIdentity, error) {
	query := fmt.Sprintf(
		"SELECT p.* FROM %s AS p WHERE LOWER(p.last_name) = $last OR LOWER(p.first_name) = $first ORDER BY p.created_at, p.patient_id",
		s.conn.keyspace(patientsCollection))

	rows, err := s.conn.cluster.Query(query, &gocb.QueryOptions{
		Context: ctx,
		NamedParameters: map[string]interface{}{
			"last":  strings.ToLower(lastName),
			"first": strings.ToLower(firstName),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("candidate query: %w", err)
	}
	defer rows.Close()

	var candidates []registry.PatientIdentity
	for rows.Next() {
		var p registry.PatientIdentity
		if err := rows.Row(&p); err != nil {
			log.Warn().Err(err).Msg("Failed to decode patient candidate row")
			continue
		}
		candidates = append(candidates, p)
	}
	return candidates, nil
}

func (s *Store) MaxPatientID(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT IFNULL(MAX(p.patient_id), 0) AS max_id FROM %s AS p",
		s.conn.keyspace(patientsCollection))

	rows, err := s.conn.cluster.Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return 0, fmt.Errorf("max patient id query: %w", err)
	}
	defer rows.Close()

	var row struct {
		MaxID int `json:"max_id"`
	}
	if rows.Next() {
		if err := rows.Row(&row); err != nil {
			return 0, fmt.Errorf("decode max patient id: %w", err)
		}
	}
	return row.MaxID, nil
}

func (s *Store) InsertPatient(ctx context.Context, p registry.PatientIdentity) error {
	// Insert, not Upsert: identities are immutable after creation
	_, err := s.conn.collection(patientsCollection).Insert(patientDocID(p.PatientID), p, &gocb.InsertOptions{Context: ctx})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentExists) {
			return nil
		}
		return fmt.Errorf("insert patient %d: %w", p.PatientID, err)
	}
	return nil
}

func (s *Store) ListPatients(ctx context.Context) ([]registry.PatientIdentity, error) {
	query := fmt.Sprintf("SELECT p.* FROM %s AS p ORDER BY p.patient_id", s.conn.keyspace(patientsCollection))

	rows, err := s.conn.cluster.Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []registry.PatientIdentity
	for rows.Next() {
		var p registry.PatientIdentity
		if err := rows.Row(&p); err != nil {
			log.Warn().Err(err).Msg("Failed to decode patient row")
			continue
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func (s *Store) VisitExists(ctx context.Context, key registry.VisitKey) (bool, error) {
	result, err := s.conn.collection(visitsCollection).Exists(visitDocID(key), &gocb.ExistsOptions{Context: ctx})
	if err != nil {
		return false, fmt.Errorf("check visit: %w", err)
	}
	return result.Exists(), nil
}

func (s *Store) InsertVisit(ctx context.Context, v registry.VisitRecord) error {
	_, err := s.conn.collection(visitsCollection).Insert(visitDocID(v.Key()), v, &gocb.InsertOptions{Context: ctx})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentExists) {
			return nil
		}
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (s *Store) ListVisits(ctx context.Context) ([]registry.VisitRecord, error) {
	query := fmt.Sprintf("SELECT v.* FROM %s AS v ORDER BY v.visit_date, v.patient_id, v.service_code",
		s.conn.keyspace(visitsCollection))

	rows, err := s.conn.cluster.Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []registry.VisitRecord
	for rows.Next() {
		var v registry.VisitRecord
		if err := rows.Row(&v); err != nil {
			log.Warn().Err(err).Msg("Failed to decode visit row")
			continue
		}
		visits = append(visits, v)
	}
	return visits, nil
}

func (s *Store) CountVisits(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) AS total FROM %s", s.conn.keyspace(visitsCollection))

	rows, err := s.conn.cluster.Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	defer rows.Close()

	var row struct {
		Total int `json:"total"`
	}
	if rows.Next() {
		if err := rows.Row(&row); err != nil {
			return 0, fmt.Errorf("decode visit count: %w", err)
		}
	}
	return row.Total, nil
}

func (s *Store) UpsertClaim(ctx context.Context, c registry.ClaimRecord) error {
	docID := claimDocID(c.ClaimNumber)
	collection := s.conn.collection(claimsCollection)

	doc := claimDoc{ClaimRecord: c, InsertedAt: time.Now().UTC()}

	// keep the original insertion timestamp on re-imports
	existing, err := collection.Get(docID, &gocb.GetOptions{Context: ctx})
	if err == nil {
		var prev claimDoc
		if decodeErr := existing.Content(&prev); decodeErr == nil && !prev.InsertedAt.IsZero() {
			doc.InsertedAt = prev.InsertedAt
		}
	} else if !errors.Is(err, gocb.ErrDocumentNotFound) {
		return fmt.Errorf("get claim %s: %w", c.ClaimNumber, err)
	}

	if _, err := collection.Upsert(docID, doc, &gocb.UpsertOptions{Context: ctx}); err != nil {
		return fmt.Errorf("upsert claim %s: %w", c.ClaimNumber, err)
	}
	return nil
}

func (s *Store) ListClaims(ctx context.Context) ([]registry.ClaimRecord, error) {
	query := fmt.Sprintf("SELECT c.* FROM %s AS c ORDER BY c.inserted_at, c.claim_number",
		s.conn.keyspace(claimsCollection))

	rows, err := s.conn.cluster.Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var claims []registry.ClaimRecord
	for rows.Next() {
		var doc claimDoc
		if err := rows.Row(&doc); err != nil {
			log.Warn().Err(err).Msg("Failed to decode claim row")
			continue
		}
		claims = append(claims, doc.ClaimRecord)
	}
	return claims, nil
}
