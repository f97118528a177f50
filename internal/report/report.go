package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/audioai/aircheck/internal/models"
)

const sheetName = "Detections"

// Filename returns the download name for a broadcast's detection report,
// derived from the recording title rather than the stored UUID name.
func Filename(b *models.Broadcast) string {
	base := strings.TrimSuffix(b.BroadcastRecording, filepath.Ext(b.BroadcastRecording))
	if base == "" {
		base = fmt.Sprintf("broadcast_%d", b.ID)
	}
	return fmt.Sprintf("Report_%s.xlsx", base)
}

// Build renders the broadcast's detection results as an xlsx workbook.
// Synthesized empty segments are not reported; only real detections and
// operator designations appear.
func Build(b *models.Broadcast, detections []models.DetectionResult) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"#", "Radio Station", "Clip Type", "Brand / Artist", "Advertisement / Song",
		"Start (s)", "End (s)", "Duration (s)", "Correlation", "Detected At",
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheetName, "A1", last, style)
	}

	row := 2
	for _, d := range detections {
		if d.ClipType == models.ClipEmpty {
			continue
		}
		values := []interface{}{
			row - 1, b.RadioStation, string(d.ClipType), d.Brand, d.Description,
			d.StartTimeSeconds, d.EndTimeSeconds, d.DurationSeconds,
			d.CorrelationScore, d.DetectionTimestamp,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	f.SetColWidth(sheetName, "B", "E", 24)
	f.SetColWidth(sheetName, "J", "J", 22)
	return f, nil
}
