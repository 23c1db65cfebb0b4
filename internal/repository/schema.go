package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

// Schema DDL for the swipe source and attendance tables
//
//go:embed schema.sql
var Schema string

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply attendance schema: %w", err)
	}
	return nil
}
