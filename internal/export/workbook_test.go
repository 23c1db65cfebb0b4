package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wisefido-attendance/internal/models"
)

func sampleRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{
			WorkDate: "2024-03-01", EmployeeID: "E001", EmployeeName: "alice",
			ShiftCode: "A", ShiftName: "Shift A",
			CheckIn: "05:58:00", BreakOut: "10:00:00", BreakIn: "10:25:00", CheckOut: "14:02:00",
			CheckInStatus: models.StatusOnTime, BreakInStatus: models.StatusOnTime,
		},
		{
			WorkDate: "2024-03-01", EmployeeID: "E003", EmployeeName: "carol",
			ShiftCode: "C", ShiftName: "Shift C",
			CheckIn: "22:05:00", CheckInStatus: models.StatusLate,
		},
	}
}

func TestBuildWorkbook_Rows(t *testing.T) {
	data, err := BuildWorkbook(sampleRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{AttendanceSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(AttendanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, AttendanceHeader, rows[0])
	assert.Equal(t, []string{
		"2024-03-01", "E001", "alice", "Shift A",
		"05:58:00", "10:00:00", "10:25:00", "14:02:00", "On Time", "On Time",
	}, rows[1])

	status, err := f.GetCellValue(AttendanceSheet, "I3")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLate, status)
}

func TestBuildWorkbook_Summary(t *testing.T) {
	data, err := BuildWorkbook(sampleRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	got := make(map[string]string)
	for _, r := range rows[1:] {
		got[r[0]] = r[1]
	}
	assert.Equal(t, "2", got["Records"])
	assert.Equal(t, "1", got["Check In Late"])
	assert.Equal(t, "1", got["Missing Check Out"])
}

func TestBuildWorkbook_Empty(t *testing.T) {
	data, err := BuildWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(AttendanceSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := WriteFile(dir, "attendance_2024-03-01_2024-03-01", sampleRecords())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "attendance_2024-03-01_2024-03-01.xlsx"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
