package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/timeofday"
)

// ShiftFile on-disk layout; shifts is a list so declared order is kept.
type ShiftFile struct {
	Shifts []ShiftEntry `yaml:"shifts"`
}

type RangeEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type ShiftEntry struct {
	Code            string     `yaml:"code"`
	Name            string     `yaml:"name"`
	CheckInSearch   RangeEntry `yaml:"check_in_search"`
	ShiftStart      string     `yaml:"shift_start"`
	CheckInOnTime   string     `yaml:"check_in_on_time"`
	CheckInLate     string     `yaml:"check_in_late"`
	CheckOutSearch  RangeEntry `yaml:"check_out_search"`
	BreakSearch     RangeEntry `yaml:"break_search"`
	BreakCheckpoint string     `yaml:"break_checkpoint"`
	BreakMidpoint   string     `yaml:"break_midpoint"`
	MinimumBreakGap int        `yaml:"minimum_break_gap_minutes"`
	BreakEnd        string     `yaml:"break_end"`
	BreakInOnTime   string     `yaml:"break_in_on_time"`
	BreakInLate     string     `yaml:"break_in_late"`
}

// LoadShiftTable reads the YAML file at path, or returns DefaultShiftTable when path is empty.
func LoadShiftTable(path string) (models.ShiftTable, error) {
	if path == "" {
		return DefaultShiftTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shift config: %w", err)
	}
	return ParseShiftTable(data)
}

// ParseShiftTable decodes a YAML shift file.
func ParseShiftTable(data []byte) (models.ShiftTable, error) {
	var file ShiftFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse shift config: %w", err)
	}
	if len(file.Shifts) == 0 {
		return nil, fmt.Errorf("shift config defines no shifts")
	}

	table := make(models.ShiftTable, 0, len(file.Shifts))
	seen := make(map[string]bool)
	for _, entry := range file.Shifts {
		if entry.Code == "" {
			return nil, fmt.Errorf("shift config entry without code")
		}
		if seen[entry.Code] {
			return nil, fmt.Errorf("duplicate shift code %q", entry.Code)
		}
		seen[entry.Code] = true

		cfg, err := entry.toShiftConfig()
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", entry.Code, err)
		}
		table = append(table, cfg)
	}
	return table, nil
}

func (e ShiftEntry) toShiftConfig() (models.ShiftConfig, error) {
	p := &clockParser{}
	cfg := models.ShiftConfig{
		Code:                e.Code,
		Name:                e.Name,
		CheckInSearch:       p.rng("check_in_search", e.CheckInSearch),
		ShiftStart:          p.clock("shift_start", e.ShiftStart),
		CheckInOnTime:       p.clock("check_in_on_time", e.CheckInOnTime),
		CheckInLate:         p.clock("check_in_late", e.CheckInLate),
		CheckOutSearch:      p.rng("check_out_search", e.CheckOutSearch),
		BreakSearch:         p.rng("break_search", e.BreakSearch),
		BreakCheckpoint:     p.clock("break_checkpoint", e.BreakCheckpoint),
		BreakMidpoint:       p.clock("break_midpoint", e.BreakMidpoint),
		MinimumBreakGapMins: e.MinimumBreakGap,
		BreakEnd:            p.clock("break_end", e.BreakEnd),
		BreakInOnTime:       p.clock("break_in_on_time", e.BreakInOnTime),
		BreakInLate:         p.clock("break_in_late", e.BreakInLate),
	}
	return cfg, p.err
}

// clockParser keeps the first parse error.
type clockParser struct {
	err error
}

func (p *clockParser) clock(field, raw string) timeofday.TimeOfDay {
	if p.err != nil {
		return 0
	}
	t, err := timeofday.Parse(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return t
}

func (p *clockParser) rng(field string, raw RangeEntry) timeofday.Range {
	return timeofday.Range{
		Start: p.clock(field+".start", raw.Start),
		End:   p.clock(field+".end", raw.End),
	}
}

// DefaultShiftTable built-in three-shift rota: A 06:00, B 14:00, C 22:00.
func DefaultShiftTable() models.ShiftTable {
	return models.ShiftTable{
		defaultShift("A", "06:00:00", "13:30:00", "14:35:00"),
		defaultShift("B", "14:00:00", "21:30:00", "22:35:00"),
		defaultShift("C", "22:00:00", "05:30:00", "06:35:00"),
	}
}

// defaultShift derives the rule set from the shift start: check-in opens 30
// minutes early, the break centres four and a half hours in.
func defaultShift(code, start, outStart, outEnd string) models.ShiftConfig {
	s := timeofday.MustParse(start)
	at := func(minutes int) timeofday.TimeOfDay {
		return s.Add(minutes * 60)
	}
	return models.ShiftConfig{
		Code:                code,
		Name:                "Shift " + code,
		CheckInSearch:       timeofday.Range{Start: at(-30), End: at(35)},
		ShiftStart:          s,
		CheckInOnTime:       s,
		CheckInLate:         at(1),
		CheckOutSearch:      timeofday.Range{Start: timeofday.MustParse(outStart), End: timeofday.MustParse(outEnd)},
		BreakSearch:         timeofday.Range{Start: at(210), End: at(300)},
		BreakCheckpoint:     at(240),
		BreakMidpoint:       at(270),
		MinimumBreakGapMins: 5,
		BreakEnd:            at(270),
		BreakInOnTime:       at(270),
		BreakInLate:         at(271),
	}
}
