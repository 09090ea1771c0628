// Package export renders reconciliation reports as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"carelytics.io/homehealth/internal/recon"
)

const (
	sheetOverall   = "Overall Summary"
	sheetPhysician = "By Physician"
	sheetUnmatched = "Unmatched Patients"
	sheetOverhead  = "Overhead Costs"

	maxColumnWidth = 50
)

// Write renders the report as an .xlsx workbook. The unmatched and
// overhead sheets are only added when they have rows.
func Write(report *recon.Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: strptr("#,##0.00")})
	if err != nil {
		return fmt.Errorf("currency style: %w", err)
	}
	percent, err := f.NewStyle(&excelize.Style{CustomNumFmt: strptr("0.0")})
	if err != nil {
		return fmt.Errorf("percent style: %w", err)
	}

	if err := writeOverall(f, report.Overall, currency, percent); err != nil {
		return err
	}
	if err := writePhysicians(f, report.ByPhysician, currency, percent); err != nil {
		return err
	}
	if len(report.UnmatchedPatients) > 0 {
		if err := writeUnmatched(f, report.UnmatchedPatients, currency); err != nil {
			return err
		}
	}
	if len(report.Overhead) > 0 {
		if err := writeOverhead(f, report.Overhead, currency); err != nil {
			return err
		}
	}

	// The default sheet is replaced by the summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheetOverall); err == nil {
		f.SetActiveSheet(idx)
	}

	return f.Write(w)
}

func writeOverall(f *excelize.File, o recon.Overall, currency, percent int) error {
	if _, err := f.NewSheet(sheetOverall); err != nil {
		return fmt.Errorf("sheet %s: %w", sheetOverall, err)
	}

	rows := []struct {
		metric string
		value  interface{}
		style  int
	}{
		{"Total Revenue (Paid)", o.TotalRevenue, currency},
		{"Total Costs", o.TotalCosts, currency},
		{"Matched Costs", o.MatchedCosts, currency},
		{"Unmatched Costs", o.UnmatchedCosts, currency},
		{"Overhead Costs", o.OverheadCosts, currency},
		{"Gross Profit", o.GrossProfit, currency},
		{"Profit Margin (%)", o.ProfitMargin, percent},
		{"Total Claims", o.TotalClaims, 0},
		{"Unique Patients", o.UniquePatients, 0},
		{"Unique Physicians", o.UniquePhysicians, 0},
	}

	if err := f.SetSheetRow(sheetOverall, "A1", &[]interface{}{"Metric", "Amount"}); err != nil {
		return err
	}
	widest := len("Metric")
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetOverall, cell, &[]interface{}{row.metric, row.value}); err != nil {
			return err
		}
		if row.style != 0 {
			value := fmt.Sprintf("B%d", i+2)
			if err := f.SetCellStyle(sheetOverall, value, value, row.style); err != nil {
				return err
			}
		}
		if len(row.metric) > widest {
			widest = len(row.metric)
		}
	}

	return setWidths(f, sheetOverall, []int{widest, len("Amount") + 10})
}

func writePhysicians(f *excelize.File, rows []recon.PhysicianProfit, currency, percent int) error {
	if _, err := f.NewSheet(sheetPhysician); err != nil {
		return fmt.Errorf("sheet %s: %w", sheetPhysician, err)
	}

	headers := []interface{}{
		"Physician", "Revenue", "Billed", "Direct Costs",
		"Profit", "Margin (%)", "Patients", "Claims",
	}
	if err := f.SetSheetRow(sheetPhysician, "A1", &headers); err != nil {
		return err
	}

	widths := headerWidths(headers)
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{
			row.Physician, row.Revenue, row.Billed, row.DirectCosts,
			row.Profit, row.Margin, row.Patients, row.Claims,
		}
		if err := f.SetSheetRow(sheetPhysician, cell, &values); err != nil {
			return err
		}
		if len(row.Physician) > widths[0] {
			widths[0] = len(row.Physician)
		}
	}

	last := len(rows) + 1
	if err := f.SetCellStyle(sheetPhysician, "B2", fmt.Sprintf("E%d", last), currency); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetPhysician, "F2", fmt.Sprintf("F%d", last), percent); err != nil {
		return err
	}
	return setWidths(f, sheetPhysician, widths)
}

func writeUnmatched(f *excelize.File, rows []recon.UnmatchedCost, currency int) error {
	if _, err := f.NewSheet(sheetUnmatched); err != nil {
		return fmt.Errorf("sheet %s: %w", sheetUnmatched, err)
	}

	headers := []interface{}{"Patient Name", "Employee", "Amount", "Date"}
	if err := f.SetSheetRow(sheetUnmatched, "A1", &headers); err != nil {
		return err
	}

	widths := headerWidths(headers)
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{row.PatientName, row.Employee, row.Amount, row.Date}
		if err := f.SetSheetRow(sheetUnmatched, cell, &values); err != nil {
			return err
		}
		if len(row.PatientName) > widths[0] {
			widths[0] = len(row.PatientName)
		}
		if len(row.Employee) > widths[1] {
			widths[1] = len(row.Employee)
		}
	}

	last := len(rows) + 1
	if err := f.SetCellStyle(sheetUnmatched, "C2", fmt.Sprintf("C%d", last), currency); err != nil {
		return err
	}
	return setWidths(f, sheetUnmatched, widths)
}

func writeOverhead(f *excelize.File, rows []recon.OverheadCost, currency int) error {
	if _, err := f.NewSheet(sheetOverhead); err != nil {
		return fmt.Errorf("sheet %s: %w", sheetOverhead, err)
	}

	headers := []interface{}{"Employee / Category", "Amount"}
	if err := f.SetSheetRow(sheetOverhead, "A1", &headers); err != nil {
		return err
	}

	widths := headerWidths(headers)
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{row.Employee, row.Amount}
		if err := f.SetSheetRow(sheetOverhead, cell, &values); err != nil {
			return err
		}
		if len(row.Employee) > widths[0] {
			widths[0] = len(row.Employee)
		}
	}

	last := len(rows) + 1
	if err := f.SetCellStyle(sheetOverhead, "B2", fmt.Sprintf("B%d", last), currency); err != nil {
		return err
	}
	return setWidths(f, sheetOverhead, widths)
}

func headerWidths(headers []interface{}) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h.(string))
	}
	return widths
}

// setWidths sizes each column to its widest content plus padding,
// capped so one long name cannot blow out the layout.
func setWidths(f *excelize.File, sheet string, widths []int) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(w + 2)
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func strptr(s string) *string { return &s }
