// Package registry owns the patient identity registry: stable patient
// identities resolved from free-text names, plus the visit and claim
// records that reference them.
package registry

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatientStatus is the lifecycle state of a patient identity.
type PatientStatus string

const (
	StatusActive     PatientStatus = "Active"
	StatusDischarged PatientStatus = "Discharged"
)

// PatientIdentity is a stable patient record. The ID is assigned once at
// creation and never reassigned or merged; the record is immutable after
// creation.
type PatientIdentity struct {
	PatientID int           `json:"patient_id"`
	FullName  string        `json:"full_name"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Status    PatientStatus `json:"status"`
	CreatedBy string        `json:"created_by"`
	// CreatedAt orders candidates for tie-breaking. Patient IDs cannot
	// serve that purpose: an explicit ID can be lower than IDs the
	// registry assigned earlier.
	CreatedAt time.Time `json:"created_at"`
}

// VisitRecord is a single home visit. The tuple (PatientID, VisitDate,
// ServiceCode) is unique within the registry; re-inserting the same
// tuple is a counted no-op.
type VisitRecord struct {
	PatientID     int             `json:"patient_id"`
	VisitDate     time.Time       `json:"visit_date"`
	ServiceCode   string          `json:"service_code"`
	DurationHours float64         `json:"duration_hours"`
	ChargeAmount  decimal.Decimal `json:"charge_amount"`
	SourceBatch   string          `json:"source_batch"`
}

// VisitKey identifies a visit for duplicate detection.
type VisitKey struct {
	PatientID   int
	VisitDate   time.Time
	ServiceCode string
}

// Key returns the visit's uniqueness tuple.
func (v VisitRecord) Key() VisitKey {
	return VisitKey{
		PatientID:   v.PatientID,
		VisitDate:   v.VisitDate,
		ServiceCode: v.ServiceCode,
	}
}

// ClaimRecord is a billing claim resolved to a patient identity.
type ClaimRecord struct {
	ClaimNumber  string          `json:"claim_number"`
	PatientID    int             `json:"patient_id"`
	PatientName  string          `json:"patient_name"`
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	BilledAmount decimal.Decimal `json:"billed_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Balance      decimal.Decimal `json:"balance"`
	Physician    string          `json:"physician"`
	Insurance    string          `json:"insurance"`
	SourceBatch  string          `json:"source_batch"`
}
