package detector

import (
	"sort"
	"time"

	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/timeofday"
)

// ShiftAssignment result of running the shift state machine over all employees
type ShiftAssignment struct {
	Instances []models.ShiftInstance
	Orphans   []models.BurstRecord // bursts that opened no shift and fit no open one
}

// DetectShifts groups bursts into per-employee, per-day shift instances.
func DetectShifts(bursts []models.BurstRecord, table models.ShiftTable) []models.ShiftInstance {
	return AssignShifts(bursts, table).Instances
}

// AssignShifts runs the single-pass state machine independently per employee.
//
// For each burst in start order: if it falls inside the open shift's activity
// window it joins that shift; otherwise the open shift closes and the burst
// may open a new one under the first code (in table order) whose check-in
// range contains it. A burst that does neither is an orphan.
func AssignShifts(bursts []models.BurstRecord, table models.ShiftTable) ShiftAssignment {
	result := ShiftAssignment{
		Instances: []models.ShiftInstance{},
		Orphans:   []models.BurstRecord{},
	}

	groups := make(map[string][]models.BurstRecord)
	for _, b := range bursts {
		groups[b.EmployeeName] = append(groups[b.EmployeeName], b)
	}

	for _, name := range sortedKeys(groups) {
		own := make([]models.BurstRecord, len(groups[name]))
		copy(own, groups[name])
		sort.SliceStable(own, func(i, j int) bool {
			return own[i].Start.Before(own[j].Start)
		})

		var current *openShift
		for _, b := range own {
			if current != nil && current.accepts(b) {
				current.bursts = append(current.bursts, b)
				continue
			}
			if current != nil {
				result.Instances = append(result.Instances, current.close())
				current = nil
			}
			current = openShiftFor(b, table)
			if current == nil {
				result.Orphans = append(result.Orphans, b)
			}
		}
		if current != nil {
			result.Instances = append(result.Instances, current.close())
		}
	}

	return result
}

type openShift struct {
	config   models.ShiftConfig
	window   timeofday.Range
	deadline time.Time // absolute end of this occurrence of the activity window
	bursts   []models.BurstRecord
}

// openShiftFor returns nil when no check-in range contains b.
func openShiftFor(b models.BurstRecord, table models.ShiftTable) *openShift {
	tod := timeofday.Of(b.Start)
	for _, cfg := range table {
		if !cfg.CheckInSearch.Contains(tod) {
			continue
		}

		window := cfg.ActivityWindow()
		anchor := b.Start.Add(-seconds(timeofday.Forward(window.Start, tod)))
		length := window.Length()
		if length == 0 {
			length = timeofday.SecondsPerDay
		}

		return &openShift{
			config:   cfg,
			window:   window,
			deadline: anchor.Add(seconds(length)),
			bursts:   []models.BurstRecord{b},
		}
	}
	return nil
}

// accepts compares on the clock face and also against the absolute deadline,
// so the same code on the next calendar day opens a new instance.
func (s *openShift) accepts(b models.BurstRecord) bool {
	if !b.Start.Before(s.deadline) {
		return false
	}
	return s.window.ContainsHalfOpen(timeofday.Of(b.Start)) || s.window.ContainsHalfOpen(timeofday.Of(b.End))
}

func (s *openShift) close() models.ShiftInstance {
	first := s.bursts[0]
	last := s.bursts[len(s.bursts)-1]

	inst := models.ShiftInstance{
		ShiftCode:    s.config.Code,
		EmployeeID:   first.EmployeeID,
		EmployeeName: first.EmployeeName,
		ShiftDate:    midnight(first.Start),
		CheckIn:      first.Start,
		Bursts:       s.bursts,
	}
	if len(s.bursts) > 1 {
		checkOut := last.End
		inst.CheckOut = &checkOut
	}
	return inst
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
