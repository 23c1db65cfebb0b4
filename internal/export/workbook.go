package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"wisefido-attendance/internal/models"
)

const (
	AttendanceSheet = "Attendance"
	SummarySheet    = "Summary"
)

// AttendanceHeader 导出表头
var AttendanceHeader = []string{
	"Work Date",
	"Employee ID",
	"Employee Name",
	"Shift",
	"Check In",
	"Break Out",
	"Break In",
	"Check Out",
	"Check In Status",
	"Break In Status",
}

var columnWidths = []float64{12, 14, 22, 10, 11, 11, 11, 11, 16, 16}

// BuildWorkbook renders records into an xlsx document with an attendance
// sheet and a per-status summary sheet.
func BuildWorkbook(records []models.AttendanceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(AttendanceSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	// 删除 Sheet1 后索引变化，重新获取
	if index, err := f.GetSheetIndex(AttendanceSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lateStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000", Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create late style: %w", err)
	}

	if err := writeRow(f, AttendanceSheet, 1, toCells(AttendanceHeader)); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(AttendanceHeader), 1)
	if err := f.SetCellStyle(AttendanceSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(AttendanceSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2
		if err := writeRow(f, AttendanceSheet, row, recordCells(rec)); err != nil {
			return nil, err
		}
		for col, status := range map[int]string{9: rec.CheckInStatus, 10: rec.BreakInStatus} {
			if status != models.StatusLate {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col, row)
			if err := f.SetCellStyle(AttendanceSheet, cell, cell, lateStyle); err != nil {
				return nil, fmt.Errorf("failed to set late style: %w", err)
			}
		}
	}

	if err := f.SetPanes(AttendanceSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := writeSummary(f, records, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile builds the workbook and stores it as <dir>/<name>.xlsx.
func WriteFile(dir, name string, records []models.AttendanceRecord) (string, error) {
	data, err := BuildWorkbook(records)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, name+".xlsx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, records []models.AttendanceRecord, headerStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	var checkInOnTime, checkInLate, breakInLate, missingCheckOut int
	employees := make(map[string]struct{})
	for _, rec := range records {
		employees[rec.EmployeeName] = struct{}{}
		switch rec.CheckInStatus {
		case models.StatusOnTime:
			checkInOnTime++
		case models.StatusLate:
			checkInLate++
		}
		if rec.BreakInStatus == models.StatusLate {
			breakInLate++
		}
		if rec.CheckOut == "" {
			missingCheckOut++
		}
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Records", len(records)},
		{"Employees", len(employees)},
		{"Check In On Time", checkInOnTime},
		{"Check In Late", checkInLate},
		{"Break In Late", breakInLate},
		{"Missing Check Out", missingCheckOut},
	}
	for i, cells := range rows {
		if err := writeRow(f, SummarySheet, i+1, cells); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to set summary header style: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func recordCells(rec models.AttendanceRecord) []interface{} {
	return toCells([]string{
		rec.WorkDate,
		rec.EmployeeID,
		rec.EmployeeName,
		rec.ShiftName,
		rec.CheckIn,
		rec.BreakOut,
		rec.BreakIn,
		rec.CheckOut,
		rec.CheckInStatus,
		rec.BreakInStatus,
	})
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
