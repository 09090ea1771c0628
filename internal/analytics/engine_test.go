package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carelytics.io/homehealth/internal/registry"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixture() ([]registry.ClaimRecord, []registry.VisitRecord, []registry.PatientIdentity) {
	claims := []registry.ClaimRecord{
		{
			ClaimNumber: "C-1", PatientID: 1, PatientName: "Doe, Jane",
			PeriodStart: date("2024-01-01"), PeriodEnd: date("2024-01-31"),
			BilledAmount: decimal.NewFromInt(1200), PaidAmount: decimal.NewFromInt(1000),
			Balance: decimal.NewFromInt(200), Physician: "Dr. Adams", Insurance: "Medicare",
		},
		{
			ClaimNumber: "C-2", PatientID: 2, PatientName: "Brown, Carlos",
			PeriodStart: date("2024-02-01"), PeriodEnd: date("2024-02-29"),
			BilledAmount: decimal.NewFromInt(800), PaidAmount: decimal.NewFromInt(800),
			Physician: "Dr. Baker", Insurance: "Medicaid",
		},
	}
	visits := []registry.VisitRecord{
		{PatientID: 1, VisitDate: date("2024-01-05"), ServiceCode: "SN", ChargeAmount: decimal.NewFromInt(150)},
		{PatientID: 1, VisitDate: date("2024-01-12"), ServiceCode: "SN", ChargeAmount: decimal.NewFromInt(150)},
		{PatientID: 1, VisitDate: date("2024-01-20"), ServiceCode: "PT", ChargeAmount: decimal.NewFromInt(200)},
		{PatientID: 2, VisitDate: date("2024-02-10"), ServiceCode: "HHA", ChargeAmount: decimal.NewFromInt(110)},
	}
	patients := []registry.PatientIdentity{
		{PatientID: 1, FullName: "Doe, Jane"},
		{PatientID: 2, FullName: "Brown, Carlos"},
	}
	return claims, visits, patients
}

func TestBuildSummary(t *testing.T) {
	claims, visits, patients := fixture()
	a, err := Build(claims, visits, patients, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := a.Summary
	if s.TotalPatients != 2 || s.TotalClaims != 2 || s.TotalVisits != 4 {
		t.Errorf("counts = %d patients / %d claims / %d visits, want 2/2/4",
			s.TotalPatients, s.TotalClaims, s.TotalVisits)
	}
	if s.TotalBilled != 2000 || s.TotalCollected != 1800 || s.TotalOutstanding != 200 {
		t.Errorf("money = billed %v / collected %v / outstanding %v",
			s.TotalBilled, s.TotalCollected, s.TotalOutstanding)
	}
	if s.CollectionRate != 90.0 {
		t.Errorf("collection rate = %v, want 90.0", s.CollectionRate)
	}
	if s.AvgClaimAmount != 1000 {
		t.Errorf("avg claim = %v, want 1000", s.AvgClaimAmount)
	}
	// 2 SN at 140 + 1 PT at 175 + 1 HHA at 100
	if s.TotalServiceCost != 555 {
		t.Errorf("service cost = %v, want 555", s.TotalServiceCost)
	}
	if s.GrossProfit != 1245 {
		t.Errorf("gross profit = %v, want 1245", s.GrossProfit)
	}
	if s.ProfitMargin != 69.2 {
		t.Errorf("profit margin = %v, want 69.2", s.ProfitMargin)
	}
}

func TestBuildServiceCosts(t *testing.T) {
	claims, visits, patients := fixture()
	a, err := Build(claims, visits, patients, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(a.ServiceCosts) != 3 {
		t.Fatalf("service cost rows = %d, want 3", len(a.ServiceCosts))
	}
	sn := a.ServiceCosts[0]
	if sn.PatientName != "Doe, Jane" || sn.ServiceCode != "SN" {
		t.Fatalf("first row = %+v, want Jane Doe SN", sn)
	}
	if sn.Visits != 2 || sn.CostPerVisit != 140 || sn.TotalCost != 280 {
		t.Errorf("SN row = %d visits at %v totaling %v, want 2 at 140 totaling 280",
			sn.Visits, sn.CostPerVisit, sn.TotalCost)
	}
	if sn.Provider != "Dr. Adams" {
		t.Errorf("provider = %q, want the patient's claim physician", sn.Provider)
	}
}

func TestBuildServiceCostsUnknownFallbacks(t *testing.T) {
	visits := []registry.VisitRecord{
		{PatientID: 99, VisitDate: date("2024-03-01"), ServiceCode: "XX"},
	}
	a, err := Build(nil, visits, nil, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	row := a.ServiceCosts[0]
	if row.PatientName != "Unknown Patient" || row.Provider != "Unknown Provider" {
		t.Errorf("fallbacks = %q / %q", row.PatientName, row.Provider)
	}
	if row.CostPerVisit != 125 {
		t.Errorf("unknown service code rate = %v, want default 125", row.CostPerVisit)
	}
}

func TestBuildPatientProfit(t *testing.T) {
	claims, visits, patients := fixture()
	a, err := Build(claims, visits, patients, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(a.ProfitabilityByPatient) != 2 {
		t.Fatalf("patient rows = %d, want 2", len(a.ProfitabilityByPatient))
	}
	// sorted by revenue received descending
	jane := a.ProfitabilityByPatient[0]
	if jane.PatientName != "Doe, Jane" {
		t.Fatalf("first patient = %q, want Doe, Jane", jane.PatientName)
	}
	// 1000 received, 2*140 + 175 = 455 cost
	if jane.RevenueReceived != 1000 || jane.ServiceCost != 455 || jane.GrossProfit != 545 {
		t.Errorf("jane = received %v cost %v profit %v, want 1000/455/545",
			jane.RevenueReceived, jane.ServiceCost, jane.GrossProfit)
	}
	if jane.Margin != 45.4 {
		t.Errorf("margin = %v, want 45.4 (545/1200)", jane.Margin)
	}
}

func TestBuildProviderPerformance(t *testing.T) {
	claims, visits, patients := fixture()
	a, err := Build(claims, visits, patients, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(a.ProviderPerformance) != 3 {
		t.Fatalf("provider rows = %d, want 3", len(a.ProviderPerformance))
	}
	// sorted by provider then service code
	first := a.ProviderPerformance[0]
	if first.Provider != "Dr. Adams" || first.ServiceCode != "PT" {
		t.Fatalf("first row = %s/%s, want Dr. Adams/PT", first.Provider, first.ServiceCode)
	}
	sn := a.ProviderPerformance[1]
	if sn.ServiceCode != "SN" || sn.Visits != 2 || sn.TotalCost != 280 || sn.Patients != 1 {
		t.Errorf("Adams SN row = %+v", sn)
	}
	if sn.AvgCostPerVisit != 140 || sn.AvgCostPerPatient != 280 {
		t.Errorf("averages = %v per visit, %v per patient", sn.AvgCostPerVisit, sn.AvgCostPerPatient)
	}
}

func TestBuildCodePerformance(t *testing.T) {
	claims, visits, patients := fixture()
	a, err := Build(claims, visits, patients, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(a.CodePerformance) != 3 {
		t.Fatalf("code rows = %d, want 3", len(a.CodePerformance))
	}
	// estimated cost descending: SN 280, PT 175, HHA 100
	codes := []string{"SN", "PT", "HHA"}
	for i, want := range codes {
		if a.CodePerformance[i].ServiceCode != want {
			t.Fatalf("code order = %v", a.CodePerformance)
		}
	}
	sn := a.CodePerformance[0]
	if sn.TotalCharged != 300 || sn.AvgChargePerVisit != 150 {
		t.Errorf("SN charged = %v avg %v, want 300/150", sn.TotalCharged, sn.AvgChargePerVisit)
	}
	// shares of 555 total
	if sn.ShareOfCost != 50.5 {
		t.Errorf("SN share = %v, want 50.5", sn.ShareOfCost)
	}
}

func TestBuildInsurancePerformance(t *testing.T) {
	claims, visits, patients := fixture()
	claims = append(claims, registry.ClaimRecord{
		ClaimNumber: "C-3", PatientID: 1, PatientName: "Doe, Jane",
		PeriodStart:  date("2024-03-01"),
		BilledAmount: decimal.NewFromInt(400), PaidAmount: decimal.NewFromInt(200),
		Physician: "Dr. Adams",
	})

	a, err := Build(claims, visits, patients, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(a.InsurancePerformance) != 3 {
		t.Fatalf("payer rows = %d, want 3 (Medicare, Medicaid, Unknown)", len(a.InsurancePerformance))
	}
	for _, row := range a.InsurancePerformance {
		if row.Insurance == "Unknown" {
			if row.Claims != 1 || row.AvgBilled != 400 || row.CollectionRate != 50.0 {
				t.Errorf("unknown payer row = %+v", row)
			}
			return
		}
	}
	t.Error("claims with no payer must be grouped under Unknown")
}

func TestBuildMonthlySummary(t *testing.T) {
	claims, visits, patients := fixture()
	// a visit in a month with no claims must still get a row
	visits = append(visits, registry.VisitRecord{
		PatientID: 2, VisitDate: date("2024-03-03"), ServiceCode: "SN",
	})

	a, err := Build(claims, visits, patients, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(a.MonthlySummary) != 3 {
		t.Fatalf("months = %d, want 3", len(a.MonthlySummary))
	}
	jan := a.MonthlySummary[0]
	if jan.Month != "2024-01" {
		t.Fatalf("months must be ascending, got %q first", jan.Month)
	}
	// 2 SN + 1 PT visits in January
	if jan.Billed != 1200 || jan.Paid != 1000 || jan.Costs != 455 || jan.Profit != 545 {
		t.Errorf("january = %+v", jan)
	}
	if jan.Claims != 1 || jan.Visits != 3 || jan.Patients != 1 {
		t.Errorf("january counts = %+v", jan)
	}

	march := a.MonthlySummary[2]
	if march.Month != "2024-03" || march.Claims != 0 || march.Visits != 1 {
		t.Errorf("march = %+v, want cost-only month", march)
	}
	if march.Costs != 140 || march.Profit != -140 {
		t.Errorf("march costs = %v profit %v, want 140/-140", march.Costs, march.Profit)
	}
}

func TestBuildZeroDenominators(t *testing.T) {
	claims := []registry.ClaimRecord{
		{ClaimNumber: "C-1", PatientID: 1, PatientName: "Doe, Jane"},
	}
	a, err := Build(claims, nil, nil, time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if a.Summary.CollectionRate != 0 || a.Summary.ProfitMargin != 0 {
		t.Errorf("zero-amount claim produced rates %v / %v, want 0",
			a.Summary.CollectionRate, a.Summary.ProfitMargin)
	}
}

func TestBuildNoData(t *testing.T) {
	_, err := Build(nil, nil, nil, time.Now())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
