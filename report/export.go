package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "summary"
	daysSheet    = "days"
)

type summaryRow struct {
	label string
	value interface{}
}

func (s Summary) rows() []summaryRow {
	return []summaryRow{
		{"Steps", s.Steps},
		{"Inverter down steps", s.InverterDownSteps},
		{"Energy generated (kWh)", s.EnergyGenerated},
		{"Energy load (kWh)", s.EnergyLoad},
		{"Energy curtailed (kWh)", s.EnergyCurtailed},
		{"Energy spilled (kWh)", s.EnergySpilled},
		{"Battery charged (kWh)", s.BatteryCharged},
		{"Battery discharged (kWh)", s.BatteryDischarge},
		{"Grid import (kWh)", s.GridImport},
		{"Grid export (kWh)", s.GridExport},
		{"Curtailment events", s.CurtailmentEvents},
		{"Peak curtailment (kW)", s.PeakCurtailment},
		{"Mean curtailment (kW)", s.MeanCurtailment},
		{"Days with curtailment", s.DaysWithCurtailment},
		{"Max daily curtailment (kWh)", s.MaxDailyCurtailedKWh},
		{"Self consumption", s.SelfConsumption},
		{"Import cost (p)", s.ImportCost},
		{"Export income (p)", s.ExportIncome},
		{"Net cost (p)", s.NetCost},
		{"Final battery SoE (kWh)", s.FinalBatterySoe},
	}
}

var dayHeader = []string{"Date", "Generated (kWh)", "Load (kWh)", "Curtailed (kWh)", "Import (kWh)", "Export (kWh)", "Events"}

func (d DayTotals) values() []interface{} {
	return []interface{}{d.Date, d.EnergyGenerated, d.EnergyLoad, d.EnergyCurtailed, d.GridImport, d.GridExport, d.CurtailmentEvents}
}

// BuildXLSX renders the summary and the per-day totals as a workbook with a sheet for each.
func BuildXLSX(summary Summary, days []DayTotals) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(daysSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	set := func(sheet string, col, row int, value interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, value)
	}

	if err := set(summarySheet, 1, 1, "Solar simulation summary"); err != nil {
		return nil, err
	}
	for i, row := range summary.rows() {
		if err := set(summarySheet, 1, i+3, row.label); err != nil {
			return nil, err
		}
		if err := set(summarySheet, 2, i+3, row.value); err != nil {
			return nil, err
		}
	}

	for col, title := range dayHeader {
		if err := set(daysSheet, col+1, 1, title); err != nil {
			return nil, err
		}
	}
	for i, day := range days {
		for col, value := range day.values() {
			if err := set(daysSheet, col+1, i+2, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildPDF renders the summary and the per-day totals as a one page (or longer) A4 document.
func BuildPDF(summary Summary, days []DayTotals) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Solar simulation summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, row := range summary.rows() {
		value := fmt.Sprint(row.value)
		if f, ok := row.value.(float64); ok {
			value = fmt.Sprintf("%.3f", f)
		}
		pdf.CellFormat(80, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, value, "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(days) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 8)
		for _, title := range dayHeader {
			pdf.CellFormat(26, 6, title, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		for _, day := range days {
			pdf.CellFormat(26, 6, day.Date, "1", 0, "C", false, 0, "")
			for _, value := range day.values()[1:] {
				text := fmt.Sprint(value)
				if f, ok := value.(float64); ok {
					text = fmt.Sprintf("%.2f", f)
				}
				pdf.CellFormat(26, 6, text, "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFiles writes the summary workbook and document to the given paths.
func WriteFiles(summary Summary, days []DayTotals, xlsxPath, pdfPath string) error {
	xlsx, err := BuildXLSX(summary, days)
	if err != nil {
		return err
	}
	if err := os.WriteFile(xlsxPath, xlsx, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", xlsxPath, err)
	}

	doc, err := BuildPDF(summary, days)
	if err != nil {
		return err
	}
	if err := os.WriteFile(pdfPath, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", pdfPath, err)
	}
	return nil
}
