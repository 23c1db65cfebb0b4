package detector

import (
	"time"

	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/timeofday"
)

func tod(s string) timeofday.TimeOfDay {
	return timeofday.MustParse(s)
}

func clockRange(start, end string) timeofday.Range {
	return timeofday.Range{Start: tod(start), End: tod(end)}
}

func testShiftTable() models.ShiftTable {
	return models.ShiftTable{
		{
			Code:                "A",
			Name:                "Shift A",
			CheckInSearch:       clockRange("05:30:00", "06:35:00"),
			ShiftStart:          tod("06:00:00"),
			CheckInOnTime:       tod("06:00:00"),
			CheckInLate:         tod("06:01:00"),
			CheckOutSearch:      clockRange("13:30:00", "14:35:00"),
			BreakSearch:         clockRange("09:30:00", "11:00:00"),
			BreakCheckpoint:     tod("10:00:00"),
			BreakMidpoint:       tod("10:30:00"),
			MinimumBreakGapMins: 5,
			BreakEnd:            tod("10:30:00"),
			BreakInOnTime:       tod("10:30:00"),
			BreakInLate:         tod("10:31:00"),
		},
		{
			Code:                "B",
			Name:                "Shift B",
			CheckInSearch:       clockRange("13:30:00", "14:35:00"),
			ShiftStart:          tod("14:00:00"),
			CheckInOnTime:       tod("14:00:00"),
			CheckInLate:         tod("14:01:00"),
			CheckOutSearch:      clockRange("21:30:00", "22:35:00"),
			BreakSearch:         clockRange("17:30:00", "19:00:00"),
			BreakCheckpoint:     tod("18:00:00"),
			BreakMidpoint:       tod("18:30:00"),
			MinimumBreakGapMins: 5,
			BreakEnd:            tod("18:30:00"),
			BreakInOnTime:       tod("18:30:00"),
			BreakInLate:         tod("18:31:00"),
		},
		{
			Code:                "C",
			Name:                "Shift C",
			CheckInSearch:       clockRange("21:30:00", "22:35:00"),
			ShiftStart:          tod("22:00:00"),
			CheckInOnTime:       tod("22:00:00"),
			CheckInLate:         tod("22:01:00"),
			CheckOutSearch:      clockRange("05:30:00", "06:35:00"),
			BreakSearch:         clockRange("01:30:00", "03:00:00"),
			BreakCheckpoint:     tod("02:00:00"),
			BreakMidpoint:       tod("02:30:00"),
			MinimumBreakGapMins: 5,
			BreakEnd:            tod("02:30:00"),
			BreakInOnTime:       tod("02:30:00"),
			BreakInLate:         tod("02:31:00"),
		},
	}
}

func shiftA() models.ShiftConfig {
	c, _ := testShiftTable().Lookup("A")
	return c
}

// at builds a timestamp on 2024-03-0<day> in UTC.
func at(day int, clock string) time.Time {
	t := tod(clock)
	return time.Date(2024, 3, day, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func swipe(id, name string, ts time.Time) models.SwipeRecord {
	return models.SwipeRecord{EmployeeID: id, EmployeeName: name, Timestamp: ts, Status: "Success"}
}

func burst(name string, start, end time.Time) models.BurstRecord {
	return models.BurstRecord{
		BurstID:      name + "_burst",
		EmployeeID:   "E-" + name,
		EmployeeName: name,
		Start:        start,
		End:          end,
		SwipeCount:   1,
	}
}
