package models

import "time"

// RunSummary outcome of one batch recompute
type RunSummary struct {
	RunID       string     `json:"run_id"`
	From        string     `json:"from"` // 2006-01-02
	To          string     `json:"to"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`
	SwipeCount  int        `json:"swipe_count"`
	Filtered    int        `json:"filtered"` // swipes dropped by status / employee filters
	BurstStats  BurstStats `json:"burst_stats"`
	ShiftCount  int        `json:"shift_count"`
	OrphanCount int        `json:"orphan_count"`
	RecordCount int        `json:"record_count"`
	ExportPath  string     `json:"export_path,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
}
