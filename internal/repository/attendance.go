package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"wisefido-attendance/internal/models"
)

// AttendanceRepository persists computed attendance rows
type AttendanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *sql.DB, logger *zap.Logger) *AttendanceRepository {
	return &AttendanceRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceRange makes the stored rows for work dates [from, to] equal to records
// in one transaction: rows are upserted on (work_date, employee_name,
// shift_code, check_in), then rows in the range not written by runID are
// pruned. A shift whose check-in range crosses midnight can open twice on the
// same work date, so check_in is part of the key. Other empty time columns are
// stored as NULL.
func (r *AttendanceRepository) ReplaceRange(ctx context.Context, runID, from, to string, records []models.AttendanceRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO attendance_records (
			work_date,
			employee_id,
			employee_name,
			shift_code,
			shift_name,
			check_in,
			break_out,
			break_in,
			check_out,
			check_in_status,
			break_in_status,
			run_id,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (work_date, employee_name, shift_code, check_in) DO UPDATE SET
			employee_id = EXCLUDED.employee_id,
			shift_name = EXCLUDED.shift_name,
			break_out = EXCLUDED.break_out,
			break_in = EXCLUDED.break_in,
			check_out = EXCLUDED.check_out,
			check_in_status = EXCLUDED.check_in_status,
			break_in_status = EXCLUDED.break_in_status,
			run_id = EXCLUDED.run_id,
			updated_at = NOW()
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare attendance upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.WorkDate,
			rec.EmployeeID,
			rec.EmployeeName,
			rec.ShiftCode,
			rec.ShiftName,
			rec.CheckIn,
			nullIfEmpty(rec.BreakOut),
			nullIfEmpty(rec.BreakIn),
			nullIfEmpty(rec.CheckOut),
			nullIfEmpty(rec.CheckInStatus),
			nullIfEmpty(rec.BreakInStatus),
			runID,
		); err != nil {
			return fmt.Errorf("failed to upsert attendance for %s on %s: %w", rec.EmployeeName, rec.WorkDate, err)
		}
	}

	pruneQuery := `
		DELETE FROM attendance_records
		WHERE work_date BETWEEN $1 AND $2
		  AND run_id IS DISTINCT FROM $3
	`
	res, err := tx.ExecContext(ctx, pruneQuery, from, to, runID)
	if err != nil {
		return fmt.Errorf("failed to prune stale attendance records: %w", err)
	}
	pruned, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attendance upsert: %w", err)
	}

	r.logger.Debug("Attendance records replaced",
		zap.String("run_id", runID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("upserted", len(records)),
		zap.Int64("pruned", pruned),
	)
	return nil
}

// ListByWorkDate returns stored rows for one work date ("2006-01-02").
func (r *AttendanceRepository) ListByWorkDate(ctx context.Context, workDate string) ([]models.AttendanceRecord, error) {
	query := `
		SELECT
			to_char(work_date, 'YYYY-MM-DD'),
			employee_id,
			employee_name,
			shift_code,
			shift_name,
			check_in,
			break_out,
			break_in,
			check_out,
			check_in_status,
			break_in_status
		FROM attendance_records
		WHERE work_date = $1
		ORDER BY employee_name, check_in
	`

	rows, err := r.db.QueryContext(ctx, query, workDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	records := []models.AttendanceRecord{}
	for rows.Next() {
		var rec models.AttendanceRecord
		var checkIn, breakOut, breakIn, checkOut, checkInStatus, breakInStatus sql.NullString
		if err := rows.Scan(
			&rec.WorkDate,
			&rec.EmployeeID,
			&rec.EmployeeName,
			&rec.ShiftCode,
			&rec.ShiftName,
			&checkIn,
			&breakOut,
			&breakIn,
			&checkOut,
			&checkInStatus,
			&breakInStatus,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		rec.CheckIn = checkIn.String
		rec.BreakOut = breakOut.String
		rec.BreakIn = breakIn.String
		rec.CheckOut = checkOut.String
		rec.CheckInStatus = checkInStatus.String
		rec.BreakInStatus = breakInStatus.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return records, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
