package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderEvaluationSummary produces the downloadable PDF for one evaluation:
// header block, then one table row per criterion with both actors' answers.
func RenderEvaluationSummary(hdr SummaryHeader, lines []SummaryLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Evaluation %d", hdr.EvaluationID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Evaluation summary %d - %d", hdr.EvaluationID, hdr.CycleYear))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	headerRow := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}
	headerRow("Employee", hdr.EmployeeName)
	headerRow("Evaluator", hdr.EvaluatorName)
	headerRow("Approver", hdr.ApproverName)
	if hdr.MissionTitle != "" {
		headerRow("Mission", hdr.MissionTitle)
	}
	headerRow("Status", hdr.Status)
	if hdr.Decision != "" {
		headerRow("Decision note", hdr.Decision)
	}
	pdf.Ln(4)

	currentGroup := ""
	for _, line := range lines {
		if line.GroupName != currentGroup {
			currentGroup = line.GroupName
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetFillColor(230, 230, 230)
			pdf.CellFormat(0, 8, currentGroup, "1", 1, "L", true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(90, 7, truncate(line.Label, 60), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, truncate(line.EmployeeAnswer, 32), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, truncate(line.EvaluatorAnswer, 32), "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "..."
}
