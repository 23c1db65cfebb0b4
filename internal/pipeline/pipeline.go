package pipeline

import (
	"sort"

	"wisefido-attendance/internal/detector"
	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/timeofday"
)

// Options scalar parameters of one pipeline run
type Options struct {
	BurstThresholdMinutes int
}

// Result pipeline output plus the intermediate artefacts callers report on
type Result struct {
	Records    []models.AttendanceRecord
	Instances  []models.ShiftInstance
	Orphans    []models.BurstRecord
	BurstStats models.BurstStats
}

// Run executes bursts -> shifts -> breaks -> status and assembles attendance records.
// The table is read only.
func Run(swipes []models.SwipeRecord, table models.ShiftTable, opts Options) Result {
	bursts := detector.DetectBursts(swipes, opts.BurstThresholdMinutes)
	assignment := detector.AssignShifts(bursts, table)

	records := make([]models.AttendanceRecord, 0, len(assignment.Instances))
	for _, inst := range assignment.Instances {
		if len(inst.Bursts) == 0 {
			continue
		}
		cfg, ok := table.Lookup(inst.ShiftCode)
		if !ok {
			continue
		}
		records = append(records, BuildRecord(inst, cfg))
	}
	SortRecords(records)

	return Result{
		Records:    records,
		Instances:  assignment.Instances,
		Orphans:    assignment.Orphans,
		BurstStats: detector.SummarizeBursts(bursts),
	}
}

// BuildRecord assembles one attendance row from a shift instance and its config.
func BuildRecord(inst models.ShiftInstance, cfg models.ShiftConfig) models.AttendanceRecord {
	bt := detector.DetectBreak(inst.Bursts, cfg)
	checkIn := timeofday.Of(inst.CheckIn)

	rec := models.AttendanceRecord{
		WorkDate:      inst.ShiftDate.Format(models.WorkDateLayout),
		EmployeeID:    inst.EmployeeID,
		EmployeeName:  inst.EmployeeName,
		ShiftCode:     cfg.Code,
		ShiftName:     cfg.DisplayName(),
		CheckIn:       checkIn.String(),
		BreakOut:      bt.BreakOut,
		BreakIn:       bt.BreakIn,
		CheckInStatus: detector.CheckInStatus(&checkIn, cfg),
		BreakInStatus: detector.BreakInStatus(bt.BreakInTime, cfg),
	}
	if inst.CheckOut != nil {
		rec.CheckOut = timeofday.Of(*inst.CheckOut).String()
	}
	return rec
}

// SortRecords orders by work date, employee name, then check-in.
func SortRecords(records []models.AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.WorkDate != b.WorkDate {
			return a.WorkDate < b.WorkDate
		}
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		return a.CheckIn < b.CheckIn
	})
}
