package recon

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"carelytics.io/homehealth/internal/registry"
)

// ErrNoData is returned when reconciliation has nothing to report on. A
// profitability report is either complete and correct or absent; this
// prevents emitting partial financial figures.
var ErrNoData = errors.New("no claims or cost data loaded")

var oneHundred = decimal.NewFromInt(100)

// BuildReport aggregates claim revenue and categorized costs into the
// final report. Pure: it mutates nothing and depends only on its
// arguments. Costs must already be categorized. All summation is done
// in fixed-point decimals so cents never drift, and every percentage is
// guarded against a zero denominator.
func BuildReport(claims []registry.ClaimRecord, costs []CostEntry, generatedAt time.Time) (*Report, error) {
	if len(claims) == 0 && len(costs) == 0 {
		return nil, ErrNoData
	}

	report := &Report{
		Overall:           buildOverall(claims, costs),
		ByPhysician:       buildByPhysician(claims, costs),
		UnmatchedPatients: buildUnmatched(costs),
		Overhead:          buildOverhead(costs),
		GeneratedAt:       generatedAt,
	}
	return report, nil
}

func buildOverall(claims []registry.ClaimRecord, costs []CostEntry) Overall {
	var revenue decimal.Decimal
	patients := make(map[string]bool)
	physicians := make(map[string]bool)
	for _, claim := range claims {
		revenue = revenue.Add(claim.PaidAmount)
		patients[claim.PatientName] = true
		physicians[claim.Physician] = true
	}

	var total, matched, unmatched, overhead decimal.Decimal
	for _, cost := range costs {
		total = total.Add(cost.Amount)
		switch cost.Category {
		case CategoryMatched:
			matched = matched.Add(cost.Amount)
		case CategoryUnmatched:
			unmatched = unmatched.Add(cost.Amount)
		default:
			// NO_PATIENT folds into the overhead bucket for reporting
			overhead = overhead.Add(cost.Amount)
		}
	}

	grossProfit := revenue.Sub(total)

	return Overall{
		TotalRevenue:     currency(revenue),
		TotalCosts:       currency(total),
		MatchedCosts:     currency(matched),
		UnmatchedCosts:   currency(unmatched),
		OverheadCosts:    currency(overhead),
		GrossProfit:      currency(grossProfit),
		ProfitMargin:     percent(grossProfit, revenue),
		TotalClaims:      len(claims),
		UniquePatients:   len(patients),
		UniquePhysicians: len(physicians),
	}
}

func buildByPhysician(claims []registry.ClaimRecord, costs []CostEntry) []PhysicianProfit {
	type physicianAgg struct {
		revenue  decimal.Decimal
		billed   decimal.Decimal
		patients map[string]bool
		claims   int
	}

	var order []string
	aggs := make(map[string]*physicianAgg)
	for _, claim := range claims {
		agg, ok := aggs[claim.Physician]
		if !ok {
			agg = &physicianAgg{patients: make(map[string]bool)}
			aggs[claim.Physician] = agg
			order = append(order, claim.Physician)
		}
		agg.revenue = agg.revenue.Add(claim.PaidAmount)
		agg.billed = agg.billed.Add(claim.BilledAmount)
		agg.patients[claim.PatientName] = true
		agg.claims++
	}

	directCosts := make(map[string]decimal.Decimal)
	for _, cost := range costs {
		if cost.Category == CategoryMatched {
			directCosts[cost.MatchedPhysician] = directCosts[cost.MatchedPhysician].Add(cost.Amount)
		}
	}

	rows := make([]PhysicianProfit, 0, len(order))
	for _, physician := range order {
		agg := aggs[physician]
		direct := directCosts[physician]
		profit := agg.revenue.Sub(direct)

		rows = append(rows, PhysicianProfit{
			Physician:       physician,
			Revenue:         currency(agg.revenue),
			Billed:          currency(agg.billed),
			DirectCosts:     currency(direct),
			Profit:          currency(profit),
			Margin:          percent(profit, agg.revenue),
			Patients:        len(agg.patients),
			Claims:          agg.claims,
			HasMatchedCosts: direct.IsPositive(),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Revenue > rows[j].Revenue
	})
	return rows
}

func buildUnmatched(costs []CostEntry) []UnmatchedCost {
	var rows []UnmatchedCost
	for _, cost := range costs {
		if cost.Category == CategoryUnmatched && cost.Amount.IsPositive() {
			rows = append(rows, unmatchedRow(cost))
		}
	}
	// zero-amount rows with a real name are kept for auditability
	for _, cost := range costs {
		if cost.Category == CategoryUnmatched && !cost.Amount.IsPositive() && cost.RawPatientName != "" {
			row := unmatchedRow(cost)
			row.Amount = 0
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount > rows[j].Amount
	})
	return rows
}

func unmatchedRow(cost CostEntry) UnmatchedCost {
	date := ""
	if !cost.Date.IsZero() {
		date = cost.Date.Format("2006-01-02")
	}
	return UnmatchedCost{
		PatientName: cost.RawPatientName,
		Employee:    cost.EmployeeName,
		Amount:      currency(cost.Amount),
		Date:        date,
	}
}

func buildOverhead(costs []CostEntry) []OverheadCost {
	var order []string
	sums := make(map[string]decimal.Decimal)
	for _, cost := range costs {
		if cost.Category != CategoryOverhead && cost.Category != CategoryNoPatient {
			continue
		}
		if _, seen := sums[cost.EmployeeName]; !seen {
			order = append(order, cost.EmployeeName)
		}
		sums[cost.EmployeeName] = sums[cost.EmployeeName].Add(cost.Amount)
	}

	rows := make([]OverheadCost, 0, len(order))
	for _, employee := range order {
		rows = append(rows, OverheadCost{
			Employee: employee,
			Amount:   currency(sums[employee]),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount > rows[j].Amount
	})
	return rows
}

// currency renders a decimal with two decimal places of precision.
func currency(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// percent computes part/whole*100 rounded to one decimal place. A zero
// denominator yields 0, never NaN or infinity.
func percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(oneHundred).Round(1).InexactFloat64()
}
