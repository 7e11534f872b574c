package render

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	reports "waterhealth-cloud/internal/reports/domain"
	riskapp "waterhealth-cloud/internal/risk/application"
)

// ReportPDF renders a printable PDF of an area report.
func ReportPDF(report *reports.AreaReport, brand Branding) ([]byte, error) {
	if report == nil {
		return nil, errors.New("pdf export: nil report")
	}
	brand = brand.WithDefaults()
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(fmt.Sprintf("%s - %s", brand.Name, brand.Tagline)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Area: %s", report.Area)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Report ID: %s", report.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Risk: %s (%s/100)", levelUpper(report.Risk.Level), formatScore(report.Risk.Score)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Parameter", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Safe Range", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	rows := WaterParameterRows(report.Water)
	if len(rows) == 0 {
		pdf.CellFormat(160, 6, "No water quality data available.", "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	for _, row := range rows {
		pdf.CellFormat(70, 6, tr(row.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, row.Value, "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, tr(row.SafeRange), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Parameter Violations")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	if len(report.WaterIssues) == 0 {
		pdf.Cell(0, 6, AllSafeLine)
		pdf.Ln(5)
	}
	for _, issue := range report.WaterIssues {
		pdf.Cell(0, 6, tr("- "+issue))
		pdf.Ln(5)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Contributing Environmental Factors")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for _, factor := range EnvironmentalFactors(report.Weather) {
		pdf.Cell(0, 6, tr("- "+factor))
		pdf.Ln(5)
	}

	if d := report.Disease; d != nil {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, tr(fmt.Sprintf("Disease: %s", d.Disease)))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Total %d | Active %d | Recovered %d | Deaths %d", d.TotalCases, d.ActiveCases, d.Recovered, d.Deaths))
		pdf.Ln(5)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Recommended Actions")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for i, action := range RecommendedActions(report.Area, brand) {
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, action)), "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Emergency: %s | Disease Surveillance: %s | Helpline: %s",
		brand.EmergencyNumber, brand.SurveillanceNumber, brand.HelplineNumber))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReportXLSX renders an area report as a workbook with summary and water sheets.
func ReportXLSX(report *reports.AreaReport) ([]byte, error) {
	if report == nil {
		return nil, errors.New("xlsx export: nil report")
	}
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	waterSheet := "water"
	_ = f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(waterSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Area Water Health Report")
	_ = f.SetCellValue(summarySheet, "A3", "Report ID")
	_ = f.SetCellValue(summarySheet, "B3", report.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Area")
	_ = f.SetCellValue(summarySheet, "B4", report.Area)
	_ = f.SetCellValue(summarySheet, "A5", "Generated")
	_ = f.SetCellValue(summarySheet, "B5", report.GeneratedAt.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A6", "Risk Level")
	_ = f.SetCellValue(summarySheet, "B6", string(report.Risk.Level))
	_ = f.SetCellValue(summarySheet, "A7", "Risk Score")
	_ = f.SetCellValue(summarySheet, "B7", report.Risk.Score)
	_ = f.SetCellValue(summarySheet, "A8", "Flood Active")
	_ = f.SetCellValue(summarySheet, "B8", report.FloodActive)
	row := 9
	if d := report.Disease; d != nil {
		_ = f.SetCellValue(summarySheet, "A9", "Disease")
		_ = f.SetCellValue(summarySheet, "B9", d.Disease)
		_ = f.SetCellValue(summarySheet, "A10", "Active Cases")
		_ = f.SetCellValue(summarySheet, "B10", d.ActiveCases)
		_ = f.SetCellValue(summarySheet, "A11", "Total Cases")
		_ = f.SetCellValue(summarySheet, "B11", d.TotalCases)
		row = 12
	}
	row++
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Water Issues")
	for i, issue := range report.WaterIssues {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row+i), issue)
	}

	_ = f.SetCellValue(waterSheet, "A1", "Parameter")
	_ = f.SetCellValue(waterSheet, "B1", "Value")
	_ = f.SetCellValue(waterSheet, "C1", "Safe Range")
	for i, r := range WaterParameterRows(report.Water) {
		line := i + 2
		_ = f.SetCellValue(waterSheet, fmt.Sprintf("A%d", line), r.Name)
		_ = f.SetCellValue(waterSheet, fmt.Sprintf("B%d", line), r.Value)
		_ = f.SetCellValue(waterSheet, fmt.Sprintf("C%d", line), r.SafeRange)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RecalculationXLSX renders one recalculation run as a workbook with an
// areas sheet and an issues sheet listing skipped and failed areas.
func RecalculationXLSX(result *riskapp.RecalculationResult) ([]byte, error) {
	if result == nil {
		return nil, errors.New("xlsx export: nil recalculation result")
	}
	f := excelize.NewFile()
	defer f.Close()
	areasSheet := "areas"
	issuesSheet := "issues"
	_ = f.SetSheetName("Sheet1", areasSheet)
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return nil, err
	}

	headers := []string{"Area", "Score", "Level", "Turbidity", "pH", "Rainfall", "Case Spike", "Alert"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(areasSheet, cell, h)
	}
	for i, area := range result.Areas {
		row := i + 2
		alert := ""
		if area.Alert != nil {
			alert = string(area.Alert.Severity)
		}
		values := []any{
			area.Assessment.Area,
			area.Assessment.Score,
			string(area.Assessment.Level),
			area.Breakdown.Turbidity,
			area.Breakdown.PH,
			area.Breakdown.Rainfall,
			area.Breakdown.CaseSpike,
			alert,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(areasSheet, cell, v)
		}
	}

	_ = f.SetCellValue(issuesSheet, "A1", "Area")
	_ = f.SetCellValue(issuesSheet, "B1", "Outcome")
	_ = f.SetCellValue(issuesSheet, "C1", "Detail")
	row := 2
	for _, area := range result.Skipped {
		_ = f.SetCellValue(issuesSheet, fmt.Sprintf("A%d", row), area)
		_ = f.SetCellValue(issuesSheet, fmt.Sprintf("B%d", row), "skipped")
		_ = f.SetCellValue(issuesSheet, fmt.Sprintf("C%d", row), "partial observations")
		row++
	}
	for _, failure := range result.Failed {
		_ = f.SetCellValue(issuesSheet, fmt.Sprintf("A%d", row), failure.Area)
		_ = f.SetCellValue(issuesSheet, fmt.Sprintf("B%d", row), "failed at "+failure.Stage)
		_ = f.SetCellValue(issuesSheet, fmt.Sprintf("C%d", row), failure.Error)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
