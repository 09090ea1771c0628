package recon

import "time"

// Overall holds agency-wide profitability figures. Currency fields are
// rounded to two decimals, percentages to one.
type Overall struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TotalCosts       float64 `json:"total_costs"`
	MatchedCosts     float64 `json:"matched_costs"`
	UnmatchedCosts   float64 `json:"unmatched_costs"`
	OverheadCosts    float64 `json:"overhead_costs"`
	GrossProfit      float64 `json:"gross_profit"`
	ProfitMargin     float64 `json:"profit_margin"`
	TotalClaims      int     `json:"total_claims"`
	UniquePatients   int     `json:"unique_patients"`
	UniquePhysicians int     `json:"unique_physicians"`
}

// PhysicianProfit is one row of the by-physician breakdown.
type PhysicianProfit struct {
	Physician       string  `json:"physician"`
	Revenue         float64 `json:"revenue"`
	Billed          float64 `json:"billed"`
	DirectCosts     float64 `json:"direct_costs"`
	Profit          float64 `json:"profit"`
	Margin          float64 `json:"margin"`
	Patients        int     `json:"patients"`
	Claims          int     `json:"claims"`
	HasMatchedCosts bool    `json:"has_matched_costs"`
}

// UnmatchedCost is a cost row whose patient name matched no claim.
// Rows with a zero amount but a non-empty name are kept for audit.
type UnmatchedCost struct {
	PatientName string  `json:"patient_name"`
	Employee    string  `json:"employee"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

// OverheadCost is the overhead total for one employee or category.
type OverheadCost struct {
	Employee string  `json:"employee"`
	Amount   float64 `json:"amount"`
}

// Report is the complete reconciliation result. The JSON API and the
// Excel export both render this same object.
type Report struct {
	Overall           Overall           `json:"overall"`
	ByPhysician       []PhysicianProfit `json:"by_physician"`
	UnmatchedPatients []UnmatchedCost   `json:"unmatched_patients"`
	Overhead          []OverheadCost    `json:"overhead"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
