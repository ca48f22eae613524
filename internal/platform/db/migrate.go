package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(EmbedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("platform/db: goose set dialect: %w", err)
	}
	return nil
}

// Migrate applies all pending goose migrations through the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("platform/db: goose up: %w", err)
	}
	return nil
}

// MigrationStatus prints the applied state of every migration.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	return goose.StatusContext(ctx, sqlDB, migrationsDir)
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, pool *pgxpool.Pool) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := goose.DownContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("platform/db: goose down: %w", err)
	}
	return nil
}
