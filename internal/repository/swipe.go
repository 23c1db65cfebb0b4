package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-attendance/internal/models"
)

// SwipeRepository reads raw access-control swipes
type SwipeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSwipeRepository creates a new swipe repository
func NewSwipeRepository(db *sql.DB, logger *zap.Logger) *SwipeRepository {
	return &SwipeRepository{
		db:     db,
		logger: logger,
	}
}

// ListSwipes returns swipes with from <= swiped_at < to, ordered by time.
// Rows without a name or timestamp are skipped and reported as warnings.
func (r *SwipeRepository) ListSwipes(ctx context.Context, from, to time.Time) ([]models.SwipeRecord, []string, error) {
	query := `
		SELECT
			id,
			employee_id,
			employee_name,
			swiped_at,
			status
		FROM access_swipes
		WHERE swiped_at >= $1
		  AND swiped_at < $2
		ORDER BY swiped_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query swipes: %w", err)
	}
	defer rows.Close()

	var swipes []models.SwipeRecord
	var warnings []string
	for rows.Next() {
		var (
			id         int64
			employeeID sql.NullString
			name       sql.NullString
			swipedAt   sql.NullTime
			status     sql.NullString
		)
		if err := rows.Scan(&id, &employeeID, &name, &swipedAt, &status); err != nil {
			return nil, nil, fmt.Errorf("failed to scan swipe: %w", err)
		}

		if !name.Valid || name.String == "" || !swipedAt.Valid {
			warnings = append(warnings, fmt.Sprintf("swipe %d skipped: missing employee name or timestamp", id))
			continue
		}

		swipes = append(swipes, models.SwipeRecord{
			EmployeeID:   employeeID.String,
			EmployeeName: name.String,
			Timestamp:    swipedAt.Time,
			Status:       status.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate swipes: %w", err)
	}

	if len(warnings) > 0 {
		r.logger.Warn("Skipped invalid swipe rows",
			zap.Int("skipped", len(warnings)),
			zap.Int("loaded", len(swipes)),
		)
	}

	return swipes, warnings, nil
}
