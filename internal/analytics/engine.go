package analytics

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"carelytics.io/homehealth/internal/registry"
)

// ErrNoData is returned when there is nothing to analyze.
var ErrNoData = errors.New("no claims or visits loaded")

const (
	unknownProvider  = "Unknown Provider"
	unknownInsurance = "Unknown"
	unknownPatient   = "Unknown Patient"
)

var oneHundred = decimal.NewFromInt(100)

// serviceRecord is one (patient, service code) slice of delivered
// visits, the intermediate everything patient- and provider-level views
// pivot from.
type serviceRecord struct {
	patientID   int
	patientName string
	provider    string
	serviceCode string
	visits      int
	charged     decimal.Decimal
	rate        decimal.Decimal
	cost        decimal.Decimal
}

// Build computes every pivot view from one snapshot of claims, visits
// and identities. Pure: the inputs are not mutated.
func Build(claims []registry.ClaimRecord, visits []registry.VisitRecord, patients []registry.PatientIdentity, generatedAt time.Time) (*Analytics, error) {
	if len(claims) == 0 && len(visits) == 0 {
		return nil, ErrNoData
	}

	names := patientNames(claims, patients)
	providers := patientProviders(claims)
	records := buildServiceRecords(visits, names, providers)

	return &Analytics{
		Summary:                buildSummary(claims, visits, records),
		RevenueByClaim:         buildRevenueByClaim(claims),
		ServiceCosts:           buildServiceCosts(records),
		ProfitabilityByPatient: buildPatientProfit(claims, records),
		ProviderPerformance:    buildProviderPerformance(records),
		CodePerformance:        buildCodePerformance(records),
		InsurancePerformance:   buildInsurancePerformance(claims),
		MonthlySummary:         buildMonthlySummary(claims, visits),
		GeneratedAt:            generatedAt,
	}, nil
}

// patientNames maps patient IDs to display names, preferring the
// resolved identity over the raw claim spelling.
func patientNames(claims []registry.ClaimRecord, patients []registry.PatientIdentity) map[int]string {
	names := make(map[int]string)
	for _, claim := range claims {
		if _, ok := names[claim.PatientID]; !ok && claim.PatientName != "" {
			names[claim.PatientID] = claim.PatientName
		}
	}
	for _, p := range patients {
		if p.FullName != "" {
			names[p.PatientID] = p.FullName
		}
	}
	return names
}

// patientProviders maps each patient to the physician on their first
// claim, the same first-seen-wins rule the reconciliation lookup uses.
func patientProviders(claims []registry.ClaimRecord) map[int]string {
	providers := make(map[int]string)
	for _, claim := range claims {
		if _, ok := providers[claim.PatientID]; !ok && claim.Physician != "" {
			providers[claim.PatientID] = claim.Physician
		}
	}
	return providers
}

func buildServiceRecords(visits []registry.VisitRecord, names, providers map[int]string) []serviceRecord {
	type recordKey struct {
		patientID   int
		serviceCode string
	}

	var order []recordKey
	grouped := make(map[recordKey]*serviceRecord)
	for _, visit := range visits {
		key := recordKey{visit.PatientID, visit.ServiceCode}
		rec, ok := grouped[key]
		if !ok {
			name := names[visit.PatientID]
			if name == "" {
				name = unknownPatient
			}
			provider := providers[visit.PatientID]
			if provider == "" {
				provider = unknownProvider
			}
			rec = &serviceRecord{
				patientID:   visit.PatientID,
				patientName: name,
				provider:    provider,
				serviceCode: visit.ServiceCode,
				rate:        ServiceRate(visit.ServiceCode),
			}
			grouped[key] = rec
			order = append(order, key)
		}
		rec.visits++
		rec.charged = rec.charged.Add(visit.ChargeAmount)
		rec.cost = rec.cost.Add(rec.rate)
	}

	records := make([]serviceRecord, 0, len(order))
	for _, key := range order {
		records = append(records, *grouped[key])
	}
	return records
}

func buildSummary(claims []registry.ClaimRecord, visits []registry.VisitRecord, records []serviceRecord) Summary {
	var billed, paid, outstanding decimal.Decimal
	patients := make(map[int]bool)
	for _, claim := range claims {
		billed = billed.Add(claim.BilledAmount)
		paid = paid.Add(claim.PaidAmount)
		outstanding = outstanding.Add(claim.Balance)
		patients[claim.PatientID] = true
	}

	var serviceCost decimal.Decimal
	for _, rec := range records {
		serviceCost = serviceCost.Add(rec.cost)
	}

	avgClaim := decimal.Zero
	if len(claims) > 0 {
		avgClaim = billed.Div(decimal.NewFromInt(int64(len(claims))))
	}
	grossProfit := paid.Sub(serviceCost)

	return Summary{
		TotalPatients:    len(patients),
		TotalClaims:      len(claims),
		TotalVisits:      len(visits),
		TotalBilled:      currency(billed),
		TotalCollected:   currency(paid),
		TotalOutstanding: currency(outstanding),
		CollectionRate:   percent(paid, billed),
		AvgClaimAmount:   currency(avgClaim),
		TotalServiceCost: currency(serviceCost),
		GrossProfit:      currency(grossProfit),
		ProfitMargin:     percent(grossProfit, paid),
	}
}

func buildRevenueByClaim(claims []registry.ClaimRecord) []ClaimRevenue {
	rows := make([]ClaimRevenue, 0, len(claims))
	for _, claim := range claims {
		rows = append(rows, ClaimRevenue{
			PatientName: claim.PatientName,
			ClaimNumber: claim.ClaimNumber,
			PeriodStart: dateString(claim.PeriodStart),
			PeriodEnd:   dateString(claim.PeriodEnd),
			Insurance:   insuranceLabel(claim),
			Billed:      currency(claim.BilledAmount),
			Paid:        currency(claim.PaidAmount),
			Balance:     currency(claim.Balance),
		})
	}
	return rows
}

func buildServiceCosts(records []serviceRecord) []ServiceCost {
	rows := make([]ServiceCost, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ServiceCost{
			PatientName:  rec.patientName,
			ServiceCode:  rec.serviceCode,
			Provider:     rec.provider,
			Visits:       rec.visits,
			CostPerVisit: currency(rec.rate),
			TotalCost:    currency(rec.cost),
		})
	}
	return rows
}

func buildPatientProfit(claims []registry.ClaimRecord, records []serviceRecord) []PatientProfit {
	type patientAgg struct {
		name     string
		billed   decimal.Decimal
		received decimal.Decimal
		cost     decimal.Decimal
	}

	var order []int
	aggs := make(map[int]*patientAgg)
	get := func(id int, name string) *patientAgg {
		agg, ok := aggs[id]
		if !ok {
			agg = &patientAgg{name: name}
			aggs[id] = agg
			order = append(order, id)
		}
		if agg.name == "" {
			agg.name = name
		}
		return agg
	}

	for _, claim := range claims {
		agg := get(claim.PatientID, claim.PatientName)
		agg.billed = agg.billed.Add(claim.BilledAmount)
		agg.received = agg.received.Add(claim.PaidAmount)
	}
	for _, rec := range records {
		agg := get(rec.patientID, rec.patientName)
		agg.cost = agg.cost.Add(rec.cost)
	}

	rows := make([]PatientProfit, 0, len(order))
	for _, id := range order {
		agg := aggs[id]
		profit := agg.received.Sub(agg.cost)
		rows = append(rows, PatientProfit{
			PatientName:     agg.name,
			RevenueBilled:   currency(agg.billed),
			RevenueReceived: currency(agg.received),
			ServiceCost:     currency(agg.cost),
			GrossProfit:     currency(profit),
			Margin:          percent(profit, agg.billed),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RevenueReceived > rows[j].RevenueReceived
	})
	return rows
}

func buildProviderPerformance(records []serviceRecord) []ProviderPerformance {
	type providerKey struct {
		provider    string
		serviceCode string
	}
	type providerAgg struct {
		visits   int
		cost     decimal.Decimal
		patients map[int]bool
	}

	var order []providerKey
	aggs := make(map[providerKey]*providerAgg)
	for _, rec := range records {
		key := providerKey{rec.provider, rec.serviceCode}
		agg, ok := aggs[key]
		if !ok {
			agg = &providerAgg{patients: make(map[int]bool)}
			aggs[key] = agg
			order = append(order, key)
		}
		agg.visits += rec.visits
		agg.cost = agg.cost.Add(rec.cost)
		agg.patients[rec.patientID] = true
	}

	rows := make([]ProviderPerformance, 0, len(order))
	for _, key := range order {
		agg := aggs[key]
		rows = append(rows, ProviderPerformance{
			Provider:          key.provider,
			ServiceCode:       key.serviceCode,
			Visits:            agg.visits,
			TotalCost:         currency(agg.cost),
			AvgCostPerVisit:   average(agg.cost, agg.visits),
			Patients:          len(agg.patients),
			AvgCostPerPatient: average(agg.cost, len(agg.patients)),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Provider != rows[j].Provider {
			return rows[i].Provider < rows[j].Provider
		}
		return rows[i].ServiceCode < rows[j].ServiceCode
	})
	return rows
}

func buildCodePerformance(records []serviceRecord) []CodePerformance {
	type codeAgg struct {
		visits   int
		charged  decimal.Decimal
		cost     decimal.Decimal
		patients map[int]bool
	}

	var order []string
	aggs := make(map[string]*codeAgg)
	var totalCost decimal.Decimal
	for _, rec := range records {
		agg, ok := aggs[rec.serviceCode]
		if !ok {
			agg = &codeAgg{patients: make(map[int]bool)}
			aggs[rec.serviceCode] = agg
			order = append(order, rec.serviceCode)
		}
		agg.visits += rec.visits
		agg.charged = agg.charged.Add(rec.charged)
		agg.cost = agg.cost.Add(rec.cost)
		agg.patients[rec.patientID] = true
		totalCost = totalCost.Add(rec.cost)
	}

	rows := make([]CodePerformance, 0, len(order))
	for _, code := range order {
		agg := aggs[code]
		rows = append(rows, CodePerformance{
			ServiceCode:       code,
			Visits:            agg.visits,
			Patients:          len(agg.patients),
			TotalCharged:      currency(agg.charged),
			AvgChargePerVisit: average(agg.charged, agg.visits),
			EstimatedCost:     currency(agg.cost),
			ShareOfCost:       percent(agg.cost, totalCost),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EstimatedCost > rows[j].EstimatedCost
	})
	return rows
}

func buildInsurancePerformance(claims []registry.ClaimRecord) []InsurancePerformance {
	type payerAgg struct {
		claims int
		billed decimal.Decimal
		paid   decimal.Decimal
	}

	var order []string
	aggs := make(map[string]*payerAgg)
	for _, claim := range claims {
		payer := insuranceLabel(claim)
		agg, ok := aggs[payer]
		if !ok {
			agg = &payerAgg{}
			aggs[payer] = agg
			order = append(order, payer)
		}
		agg.claims++
		agg.billed = agg.billed.Add(claim.BilledAmount)
		agg.paid = agg.paid.Add(claim.PaidAmount)
	}

	rows := make([]InsurancePerformance, 0, len(order))
	for _, payer := range order {
		agg := aggs[payer]
		rows = append(rows, InsurancePerformance{
			Insurance:      payer,
			Claims:         agg.claims,
			AvgBilled:      average(agg.billed, agg.claims),
			AvgPaid:        average(agg.paid, agg.claims),
			TotalPaid:      currency(agg.paid),
			CollectionRate: percent(agg.paid, agg.billed),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Claims > rows[j].Claims
	})
	return rows
}

func buildMonthlySummary(claims []registry.ClaimRecord, visits []registry.VisitRecord) []MonthlySummary {
	type monthAgg struct {
		billed   decimal.Decimal
		paid     decimal.Decimal
		costs    decimal.Decimal
		patients map[int]bool
		claims   int
		visits   int
	}

	aggs := make(map[string]*monthAgg)
	get := func(month string) *monthAgg {
		agg, ok := aggs[month]
		if !ok {
			agg = &monthAgg{patients: make(map[int]bool)}
			aggs[month] = agg
		}
		return agg
	}

	for _, claim := range claims {
		if claim.PeriodStart.IsZero() {
			continue
		}
		agg := get(claim.PeriodStart.Format("2006-01"))
		agg.billed = agg.billed.Add(claim.BilledAmount)
		agg.paid = agg.paid.Add(claim.PaidAmount)
		agg.patients[claim.PatientID] = true
		agg.claims++
	}
	// visit costs land on the month the visit happened, which can differ
	// from the claim period month
	for _, visit := range visits {
		if visit.VisitDate.IsZero() {
			continue
		}
		agg := get(visit.VisitDate.Format("2006-01"))
		agg.costs = agg.costs.Add(ServiceRate(visit.ServiceCode))
		agg.visits++
	}

	months := make([]string, 0, len(aggs))
	for month := range aggs {
		months = append(months, month)
	}
	sort.Strings(months)

	rows := make([]MonthlySummary, 0, len(months))
	for _, month := range months {
		agg := aggs[month]
		rows = append(rows, MonthlySummary{
			Month:    month,
			Billed:   currency(agg.billed),
			Paid:     currency(agg.paid),
			Costs:    currency(agg.costs),
			Profit:   currency(agg.paid.Sub(agg.costs)),
			Patients: len(agg.patients),
			Claims:   agg.claims,
			Visits:   agg.visits,
		})
	}
	return rows
}

func insuranceLabel(claim registry.ClaimRecord) string {
	if claim.Insurance == "" {
		return unknownInsurance
	}
	return claim.Insurance
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func currency(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// percent guards the zero denominator: no claims or no revenue renders
// as 0, never NaN.
func percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(oneHundred).Round(1).InexactFloat64()
}

func average(total decimal.Decimal, count int) float64 {
	if count <= 0 {
		return 0
	}
	return currency(total.Div(decimal.NewFromInt(int64(count))))
}
