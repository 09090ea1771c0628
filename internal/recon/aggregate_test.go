package recon

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carelytics.io/homehealth/internal/registry"
)

func TestBuildReportEndToEnd(t *testing.T) {
	claims := []registry.ClaimRecord{
		{
			ClaimNumber:  "C1",
			PatientName:  "Doe, Jane",
			Physician:    "Dr. A",
			PaidAmount:   decimal.NewFromInt(1000),
			BilledAmount: decimal.NewFromInt(1200),
		},
	}
	costs := []CostEntry{
		{
			RawPatientName: "Jane Doe",
			EmployeeName:   "Nurse X",
			Amount:         decimal.NewFromInt(300),
			Date:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	lookup := BuildPhysicianLookup(claims)
	NewCategorizer(nil, 0, nil).CategorizeAll(costs, lookup)

	report, err := BuildReport(claims, costs, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := report.Overall
	if o.TotalRevenue != 1000 {
		t.Errorf("expected total_revenue 1000, got %v", o.TotalRevenue)
	}
	if o.MatchedCosts != 300 {
		t.Errorf("expected matched_costs 300, got %v", o.MatchedCosts)
	}
	if o.GrossProfit != 700 {
		t.Errorf("expected gross_profit 700, got %v", o.GrossProfit)
	}
	if o.ProfitMargin != 70.0 {
		t.Errorf("expected profit_margin 70.0, got %v", o.ProfitMargin)
	}

	if len(report.ByPhysician) != 1 {
		t.Fatalf("expected 1 physician row, got %d", len(report.ByPhysician))
	}
	p := report.ByPhysician[0]
	if p.Physician != "Dr. A" || p.Revenue != 1000 || p.DirectCosts != 300 ||
		p.Profit != 700 || p.Margin != 70.0 || p.Patients != 1 || p.Claims != 1 {
		t.Errorf("unexpected physician row: %+v", p)
	}

	if len(report.UnmatchedPatients) != 0 {
		t.Errorf("expected no unmatched rows, got %v", report.UnmatchedPatients)
	}
	if len(report.Overhead) != 0 {
		t.Errorf("expected no overhead rows, got %v", report.Overhead)
	}
}

func TestBuildReportPartitionInvariant(t *testing.T) {
	claims := []registry.ClaimRecord{
		{ClaimNumber: "C1", PatientName: "Doe, Jane", Physician: "Dr. A", PaidAmount: decimal.NewFromInt(5000)},
		{ClaimNumber: "C2", PatientName: "Smith, John", Physician: "Dr. B", PaidAmount: decimal.NewFromInt(2500)},
	}
	costs := []CostEntry{
		{RawPatientName: "Jane Doe", EmployeeName: "Nurse X", Amount: decimal.RequireFromString("100.10")},
		{RawPatientName: "Smith, John", EmployeeName: "Nurse Y", Amount: decimal.RequireFromString("200.25")},
		{RawPatientName: "Stranger, Total Mystery", EmployeeName: "Nurse Z", Amount: decimal.RequireFromString("55.57")},
		{RawPatientName: "Nobody, Known", EmployeeName: "Nurse Z", Amount: decimal.RequireFromString("17.03")},
		{RawPatientName: "Total October Payroll", EmployeeName: "Admin", Amount: decimal.RequireFromString("999.99")},
		{RawPatientName: "", EmployeeName: "Admin", Amount: decimal.RequireFromString("0.01")},
	}

	lookup := BuildPhysicianLookup(claims)
	NewCategorizer(nil, 0, nil).CategorizeAll(costs, lookup)

	report, err := BuildReport(claims, costs, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := report.Overall
	sum := decimal.NewFromFloat(o.MatchedCosts).
		Add(decimal.NewFromFloat(o.UnmatchedCosts)).
		Add(decimal.NewFromFloat(o.OverheadCosts))
	if !sum.Equal(decimal.NewFromFloat(o.TotalCosts)) {
		t.Errorf("partition broken: %v + %v + %v = %v, want %v",
			o.MatchedCosts, o.UnmatchedCosts, o.OverheadCosts, sum, o.TotalCosts)
	}
	profit := decimal.NewFromFloat(o.TotalRevenue).Sub(decimal.NewFromFloat(o.TotalCosts))
	if !profit.Equal(decimal.NewFromFloat(o.GrossProfit)) {
		t.Errorf("gross profit %v != revenue %v - costs %v", o.GrossProfit, o.TotalRevenue, o.TotalCosts)
	}
}

func TestBuildReportZeroRevenueGuard(t *testing.T) {
	costs := []CostEntry{
		{RawPatientName: "Doe, Jane", EmployeeName: "Nurse X", Amount: decimal.NewFromInt(100), Category: CategoryUnmatched},
	}

	report, err := BuildReport(nil, costs, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Overall.ProfitMargin != 0 {
		t.Errorf("expected margin 0 with zero revenue, got %v", report.Overall.ProfitMargin)
	}
	if report.Overall.GrossProfit != -100 {
		t.Errorf("expected gross profit -100, got %v", report.Overall.GrossProfit)
	}
}

func TestBuildReportNoData(t *testing.T) {
	_, err := BuildReport(nil, nil, time.Now())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestBuildReportSortsPhysiciansByRevenue(t *testing.T) {
	claims := []registry.ClaimRecord{
		{ClaimNumber: "C1", PatientName: "A, A", Physician: "Dr. Low", PaidAmount: decimal.NewFromInt(100)},
		{ClaimNumber: "C2", PatientName: "B, B", Physician: "Dr. High", PaidAmount: decimal.NewFromInt(900)},
		{ClaimNumber: "C3", PatientName: "C, C", Physician: "Dr. Mid", PaidAmount: decimal.NewFromInt(500)},
	}

	report, err := BuildReport(claims, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := []string{}
	for _, row := range report.ByPhysician {
		got = append(got, row.Physician)
	}
	want := []string{"Dr. High", "Dr. Mid", "Dr. Low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestBuildReportUnmatchedListing(t *testing.T) {
	claims := []registry.ClaimRecord{
		{ClaimNumber: "C1", PatientName: "Doe, Jane", Physician: "Dr. A", PaidAmount: decimal.NewFromInt(100)},
	}
	costs := []CostEntry{
		{RawPatientName: "Little, Amount", EmployeeName: "N1", Amount: decimal.NewFromInt(10), Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{RawPatientName: "Big, Amount", EmployeeName: "N2", Amount: decimal.NewFromInt(500)},
		{RawPatientName: "Zero, Amount", EmployeeName: "N3"},
	}

	lookup := BuildPhysicianLookup(claims)
	NewCategorizer(nil, 0, nil).CategorizeAll(costs, lookup)

	report, err := BuildReport(claims, costs, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.UnmatchedPatients) != 3 {
		t.Fatalf("expected 3 unmatched rows, got %d", len(report.UnmatchedPatients))
	}
	if report.UnmatchedPatients[0].PatientName != "Big, Amount" {
		t.Errorf("expected largest amount first, got %q", report.UnmatchedPatients[0].PatientName)
	}
	last := report.UnmatchedPatients[2]
	if last.PatientName != "Zero, Amount" || last.Amount != 0 {
		t.Errorf("expected zero-amount audit row last, got %+v", last)
	}
	if report.UnmatchedPatients[1].Date != "2025-02-01" {
		t.Errorf("expected formatted date, got %q", report.UnmatchedPatients[1].Date)
	}
}

func TestBuildReportOverheadGrouping(t *testing.T) {
	costs := []CostEntry{
		{RawPatientName: "Total Payroll", EmployeeName: "Admin", Amount: decimal.NewFromInt(100)},
		{RawPatientName: "monthly expense", EmployeeName: "Admin", Amount: decimal.NewFromInt(50)},
		{RawPatientName: "", EmployeeName: "Office Mgr", Amount: decimal.NewFromInt(400)},
	}
	NewCategorizer(nil, 0, nil).CategorizeAll(costs, BuildPhysicianLookup(nil))

	report, err := BuildReport(nil, costs, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Overhead) != 2 {
		t.Fatalf("expected 2 overhead groups, got %d", len(report.Overhead))
	}
	if report.Overhead[0].Employee != "Office Mgr" || report.Overhead[0].Amount != 400 {
		t.Errorf("expected Office Mgr first with 400, got %+v", report.Overhead[0])
	}
	if report.Overhead[1].Employee != "Admin" || report.Overhead[1].Amount != 150 {
		t.Errorf("expected Admin grouped to 150, got %+v", report.Overhead[1])
	}
}
