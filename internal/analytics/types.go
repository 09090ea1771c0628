// Package analytics builds the pivot-style operational views over the
// registry's claims and visits: revenue per claim, estimated service
// costs, per-patient and per-provider profitability, service code and
// payer performance, and a monthly trend for charting.
package analytics

import "time"

// Summary is the dashboard headline block.
type Summary struct {
	TotalPatients    int     `json:"total_patients"`
	TotalClaims      int     `json:"total_claims"`
	TotalVisits      int     `json:"total_visits"`
	TotalBilled      float64 `json:"total_billed"`
	TotalCollected   float64 `json:"total_collected"`
	TotalOutstanding float64 `json:"total_outstanding"`
	CollectionRate   float64 `json:"collection_rate"`
	AvgClaimAmount   float64 `json:"avg_claim_amount"`
	TotalServiceCost float64 `json:"total_service_cost"`
	GrossProfit      float64 `json:"gross_profit"`
	ProfitMargin     float64 `json:"profit_margin"`
}

// ClaimRevenue is one claim's billing outcome.
type ClaimRevenue struct {
	PatientName string  `json:"patient_name"`
	ClaimNumber string  `json:"claim_number"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Insurance   string  `json:"insurance"`
	Billed      float64 `json:"billed"`
	Paid        float64 `json:"paid"`
	Balance     float64 `json:"balance"`
}

// ServiceCost is the estimated delivery cost of one patient's visits
// for one service type.
type ServiceCost struct {
	PatientName  string  `json:"patient_name"`
	ServiceCode  string  `json:"service_code"`
	Provider     string  `json:"provider"`
	Visits       int     `json:"visits"`
	CostPerVisit float64 `json:"cost_per_visit"`
	TotalCost    float64 `json:"total_cost"`
}

// PatientProfit compares a patient's collected revenue against the
// estimated cost of the visits delivered to them.
type PatientProfit struct {
	PatientName     string  `json:"patient_name"`
	RevenueBilled   float64 `json:"revenue_billed"`
	RevenueReceived float64 `json:"revenue_received"`
	ServiceCost     float64 `json:"service_cost"`
	GrossProfit     float64 `json:"gross_profit"`
	Margin          float64 `json:"margin"`
}

// ProviderPerformance aggregates one provider's delivery of one service
// type.
type ProviderPerformance struct {
	Provider          string  `json:"provider"`
	ServiceCode       string  `json:"service_code"`
	Visits            int     `json:"visits"`
	TotalCost         float64 `json:"total_cost"`
	AvgCostPerVisit   float64 `json:"avg_cost_per_visit"`
	Patients          int     `json:"patients"`
	AvgCostPerPatient float64 `json:"avg_cost_per_patient"`
}

// CodePerformance aggregates one service code across all patients,
// comparing what was charged against the standard-rate cost estimate.
type CodePerformance struct {
	ServiceCode       string  `json:"service_code"`
	Visits            int     `json:"visits"`
	Patients          int     `json:"patients"`
	TotalCharged      float64 `json:"total_charged"`
	AvgChargePerVisit float64 `json:"avg_charge_per_visit"`
	EstimatedCost     float64 `json:"estimated_cost"`
	ShareOfCost       float64 `json:"share_of_cost"`
}

// InsurancePerformance aggregates claims by payer.
type InsurancePerformance struct {
	Insurance      string  `json:"insurance"`
	Claims         int     `json:"claims"`
	AvgBilled      float64 `json:"avg_billed"`
	AvgPaid        float64 `json:"avg_paid"`
	TotalPaid      float64 `json:"total_paid"`
	CollectionRate float64 `json:"collection_rate"`
}

// MonthlySummary is one month of the revenue/cost trend. Months come
// from claim period starts and visit dates; a month present on only one
// side still gets a row.
type MonthlySummary struct {
	Month    string  `json:"month"`
	Billed   float64 `json:"billed"`
	Paid     float64 `json:"paid"`
	Costs    float64 `json:"costs"`
	Profit   float64 `json:"profit"`
	Patients int     `json:"patients"`
	Claims   int     `json:"claims"`
	Visits   int     `json:"visits"`
}

// Analytics is the full set of pivot views over one data snapshot.
type Analytics struct {
	Summary                Summary                `json:"summary"`
	RevenueByClaim         []ClaimRevenue         `json:"revenue_by_claim"`
	ServiceCosts           []ServiceCost          `json:"service_costs"`
	ProfitabilityByPatient []PatientProfit        `json:"profitability_by_patient"`
	ProviderPerformance    []ProviderPerformance  `json:"provider_performance"`
	CodePerformance        []CodePerformance      `json:"code_performance"`
	InsurancePerformance   []InsurancePerformance `json:"insurance_performance"`
	MonthlySummary         []MonthlySummary       `json:"monthly_summary"`
	GeneratedAt            time.Time              `json:"generated_at"`
}
