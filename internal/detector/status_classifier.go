package detector

import (
	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/timeofday"
)

// CheckInStatus labels a check-in "On Time" at or before the on-time cutoff,
// "Late" at or after the late threshold, and "" in between or when absent.
func CheckInStatus(at *timeofday.TimeOfDay, cfg models.ShiftConfig) string {
	return classify(at, cfg.CheckInSearch, cfg.CheckInOnTime, cfg.CheckInLate)
}

// BreakInStatus applies the same rule against the break-in cutoff pair.
func BreakInStatus(at *timeofday.TimeOfDay, cfg models.ShiftConfig) string {
	return classify(at, cfg.BreakSearch, cfg.BreakInOnTime, cfg.BreakInLate)
}

// classify compares positions relative to the search range so that cutoffs
// on either side of midnight order correctly.
func classify(at *timeofday.TimeOfDay, within timeofday.Range, onTime, late timeofday.TimeOfDay) string {
	if at == nil {
		return ""
	}

	pos := within.Position(*at)
	switch {
	case pos <= within.Position(onTime):
		return models.StatusOnTime
	case pos >= within.Position(late):
		return models.StatusLate
	default:
		return ""
	}
}
