// Package recon reconciles claim revenue against the employee-cost
// ledger. Cost rows are categorized relative to claim-derived physician
// assignments, then aggregated into overall and per-physician
// profitability.
package recon

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a cost-ledger row relative to the claims data.
// Every row gets exactly one category.
type Category string

const (
	// CategoryMatched means the row's patient name matched a claim.
	CategoryMatched Category = "MATCHED"
	// CategoryUnmatched means a real patient name that no claim covers.
	CategoryUnmatched Category = "UNMATCHED"
	// CategoryOverhead means an administrative line item, not a patient.
	CategoryOverhead Category = "OVERHEAD"
	// CategoryNoPatient means the row carries no patient name at all.
	CategoryNoPatient Category = "NO_PATIENT"
)

// CostEntry is one row of the employee-cost ledger. Category and the
// two Matched fields are derived, set once during categorization.
type CostEntry struct {
	RawPatientName      string          `json:"raw_patient_name"`
	EmployeeName        string          `json:"employee_name"`
	Amount              decimal.Decimal `json:"amount"`
	Date                time.Time       `json:"date"`
	Category            Category        `json:"category"`
	MatchedPhysician    string          `json:"matched_physician,omitempty"`
	MatchedClaimPatient string          `json:"matched_claim_patient,omitempty"`
}
