package models

import (
	"time"

	"wisefido-attendance/internal/timeofday"
)

// 打卡状态
const (
	StatusOnTime = "On Time"
	StatusLate   = "Late"
)

// WorkDateLayout date format used for work dates
const WorkDateLayout = "2006-01-02"

// ShiftInstance one employee's single day of work under one shift code
type ShiftInstance struct {
	ShiftCode    string
	EmployeeID   string
	EmployeeName string
	ShiftDate    time.Time  // calendar date of the opening burst, at midnight
	CheckIn      time.Time  // start of the first burst
	CheckOut     *time.Time // end of the last burst; nil when the shift has a single burst
	Bursts       []BurstRecord
}

// BreakTimes break detection result for one shift instance
type BreakTimes struct {
	BreakOut    string               // HH:MM:SS or ""
	BreakIn     string               // HH:MM:SS or ""
	BreakInTime *timeofday.TimeOfDay // break-in used for status classification
}

// AttendanceRecord final pipeline output row
type AttendanceRecord struct {
	WorkDate      string `json:"work_date"` // YYYY-MM-DD
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	ShiftCode     string `json:"shift_code"`
	ShiftName     string `json:"shift_name"`
	CheckIn       string `json:"check_in"`
	BreakOut      string `json:"break_out"`
	BreakIn       string `json:"break_in"`
	CheckOut      string `json:"check_out"`
	CheckInStatus string `json:"check_in_status"`
	BreakInStatus string `json:"break_in_status"`
}
