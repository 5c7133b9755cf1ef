package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, db *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, migrationsDir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB, migrationsDir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationStatus prints applied and pending migrations through goose's logger.
func MigrationStatus(ctx context.Context, db *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db.DB, migrationsDir)
}
