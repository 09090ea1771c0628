// Package ingest loads parsed tabular source files into the patient
// registry. PDF extraction happens upstream; this package consumes the
// structured CSV/XLSX outputs.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"carelytics.io/homehealth/internal/recon"
)

// DataLoadError means a required source file is missing or unparsable.
// It is fatal for that file only; the batch continues with other files.
type DataLoadError struct {
	File string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.File, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// ClaimRow is one parsed row of the billing claims export.
type ClaimRow struct {
	PatientName      string
	PrimaryPhysician string
	ClaimCode        string
	Insurance        string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	PaidAmount       decimal.Decimal
	ClaimAmount      decimal.Decimal
	Balance          decimal.Decimal
}

// VisitRow is one parsed row of a patient visit log.
type VisitRow struct {
	PatientName   string
	VisitDate     time.Time
	ServiceCode   string
	DurationHours float64
	ChargeAmount  decimal.Decimal
}

// header maps lower-cased, underscore-normalized column names to their
// positions, so "Patient Name", "Patient_Name" and "patient_name" all
// address the same column.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, col := range cols {
		key := strings.ToLower(strings.TrimSpace(col))
		key = strings.ReplaceAll(key, " ", "_")
		h[key] = i
	}
	return h
}

func (h header) get(row []string, names ...string) string {
	for _, name := range names {
		if idx, ok := h[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
	}
	return ""
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006-01-02 15:04:05"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// LoadClaimsCSV reads the claims export. Malformed rows are returned
// alongside the good ones as a skipped count, not as an error.
func LoadClaimsCSV(path string) ([]ClaimRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &DataLoadError{File: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, &DataLoadError{File: path, Err: err}
	}
	if len(records) < 1 {
		return nil, 0, &DataLoadError{File: path, Err: fmt.Errorf("empty file")}
	}

	h := newHeader(records[0])
	var rows []ClaimRow
	skipped := 0
	for _, record := range records[1:] {
		row, err := parseClaimRow(h, record)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseClaimRow(h header, record []string) (ClaimRow, error) {
	row := ClaimRow{
		PatientName:      h.get(record, "patient_name"),
		PrimaryPhysician: h.get(record, "primary_physician", "physician"),
		ClaimCode:        h.get(record, "claim_code", "claim_number"),
		Insurance:        h.get(record, "insurance", "stat", "status"),
	}

	var err error
	if row.PaidAmount, err = parseAmount(h.get(record, "paid_amount", "posted_payments")); err != nil {
		return row, fmt.Errorf("paid amount: %w", err)
	}
	if row.ClaimAmount, err = parseAmount(h.get(record, "claim_amount", "total_amount")); err != nil {
		return row, fmt.Errorf("claim amount: %w", err)
	}
	if row.Balance, err = parseAmount(h.get(record, "balance")); err != nil {
		return row, fmt.Errorf("balance: %w", err)
	}
	if row.PeriodStart, err = parseDate(h.get(record, "claim_period_start", "period_start")); err != nil {
		return row, fmt.Errorf("period start: %w", err)
	}
	if row.PeriodEnd, err = parseDate(h.get(record, "claim_period_end", "period_end")); err != nil {
		return row, fmt.Errorf("period end: %w", err)
	}
	return row, nil
}

// LoadVisitsCSV reads a visit log export.
func LoadVisitsCSV(path string) ([]VisitRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &DataLoadError{File: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, &DataLoadError{File: path, Err: err}
	}
	if len(records) < 1 {
		return nil, 0, &DataLoadError{File: path, Err: fmt.Errorf("empty file")}
	}

	h := newHeader(records[0])
	var rows []VisitRow
	skipped := 0
	for _, record := range records[1:] {
		row, err := parseVisitRow(h, record)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseVisitRow(h header, record []string) (VisitRow, error) {
	row := VisitRow{
		PatientName: h.get(record, "patient_name"),
		ServiceCode: h.get(record, "service_code"),
	}

	var err error
	if row.VisitDate, err = parseDate(h.get(record, "visit_date", "date")); err != nil {
		return row, fmt.Errorf("visit date: %w", err)
	}
	if row.VisitDate.IsZero() {
		return row, fmt.Errorf("missing visit date")
	}
	if hours := h.get(record, "duration_hours", "hours"); hours != "" {
		if row.DurationHours, err = strconv.ParseFloat(hours, 64); err != nil {
			return row, fmt.Errorf("hours: %w", err)
		}
	}
	if row.ChargeAmount, err = parseAmount(h.get(record, "charge_amount", "amount")); err != nil {
		return row, fmt.Errorf("charge amount: %w", err)
	}
	return row, nil
}

// LoadCostsXLSX reads the employee-cost ledger workbook. Every row is
// kept, even empty-name and zero-amount ones, since categorization and
// the audit listings need them.
func LoadCostsXLSX(path string) ([]recon.CostEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DataLoadError{File: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DataLoadError{File: path, Err: fmt.Errorf("workbook has no sheets")}
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DataLoadError{File: path, Err: err}
	}
	if len(records) < 1 {
		return nil, &DataLoadError{File: path, Err: fmt.Errorf("empty sheet")}
	}

	h := newHeader(records[0])
	var entries []recon.CostEntry
	for _, record := range records[1:] {
		entry := recon.CostEntry{
			RawPatientName: h.get(record, "patient_name"),
			EmployeeName:   h.get(record, "employee_name", "employee", "physician"),
		}
		if entry.Amount, err = parseAmount(h.get(record, "total_amount", "amount")); err != nil {
			entry.Amount = decimal.Zero
		}
		if entry.Date, err = parseDate(h.get(record, "date")); err != nil {
			entry.Date = time.Time{}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
