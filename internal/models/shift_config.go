package models

import "wisefido-attendance/internal/timeofday"

// ShiftConfig static rule set for one shift code
type ShiftConfig struct {
	Code string // e.g. "A"
	Name string // display name, e.g. "Shift A"

	// 上班打卡
	CheckInSearch timeofday.Range
	ShiftStart    timeofday.TimeOfDay
	CheckInOnTime timeofday.TimeOfDay // last on-time check-in
	CheckInLate   timeofday.TimeOfDay // first late check-in

	// 下班打卡
	CheckOutSearch timeofday.Range

	// 休息
	BreakSearch         timeofday.Range
	BreakCheckpoint     timeofday.TimeOfDay // ideal break-out time
	BreakMidpoint       timeofday.TimeOfDay
	MinimumBreakGapMins int
	BreakEnd            timeofday.TimeOfDay
	BreakInOnTime       timeofday.TimeOfDay
	BreakInLate         timeofday.TimeOfDay
}

// ActivityWindow is [CheckInSearch.Start, CheckOutSearch.End): the span during
// which a burst still belongs to an open shift of this code.
func (c ShiftConfig) ActivityWindow() timeofday.Range {
	return timeofday.Range{Start: c.CheckInSearch.Start, End: c.CheckOutSearch.End}
}

// DisplayName falls back to the code when no name is configured.
func (c ShiftConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Code
}

// ShiftTable shift configs in declared order; earlier codes win when check-in ranges overlap.
type ShiftTable []ShiftConfig

// Lookup finds a config by code.
func (t ShiftTable) Lookup(code string) (ShiftConfig, bool) {
	for _, c := range t {
		if c.Code == code {
			return c, true
		}
	}
	return ShiftConfig{}, false
}

// Codes returns the shift codes in declared order.
func (t ShiftTable) Codes() []string {
	codes := make([]string, 0, len(t))
	for _, c := range t {
		codes = append(codes, c.Code)
	}
	return codes
}
