package models

import "time"

// SwipeRecord one raw badge event from the access-control system
type SwipeRecord struct {
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"` // raw status string from the controller, e.g. "Success"
}

// BurstRecord consecutive swipes by the same person collapsed into one event
type BurstRecord struct {
	BurstID      string        `json:"burst_id"` // "<name>_burst_<n>", traceability only
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	SwipeCount   int           `json:"swipe_count"`
	Swipes       []SwipeRecord `json:"swipes"`
}

// BurstStats derived report over a burst list
type BurstStats struct {
	TotalBursts           int     `json:"total_bursts"`
	TotalSwipes           int     `json:"total_swipes"`
	AverageSwipesPerBurst float64 `json:"average_swipes_per_burst"`
	UserCount             int     `json:"user_count"`
}
