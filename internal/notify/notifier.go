package notify

import (
	"context"

	"wisefido-attendance/internal/models"
)

// Notifier receives the outcome of every completed run.
type Notifier interface {
	Notify(ctx context.Context, summary *models.RunSummary, records []models.AttendanceRecord) error
}
