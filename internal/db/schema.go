package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Schema creates the workouts, exercises, workout_plans and profiles tables
// used by the postgres storage mode. Every statement is idempotent.
//
//go:embed schema.sql
var Schema string

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Debugln("db schema applied")
	return nil
}
