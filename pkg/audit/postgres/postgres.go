// Package postgres is the audit.Store backend, built on the same
// sqlx.Connect/golang-migrate-driven RunMigrations wiring as
// pkg/storage/postgres/postgres.go, with the repository set trimmed to
// a single append-only transitions table.
package postgres

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store implements audit.Store against a PostgreSQL transitions table.
type Store struct {
	db *sqlx.DB
}

// NewStore opens the database connection.
func NewStore(cfg Config) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("audit/postgres: connect: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return &Store{db: db}, nil
}

// RunMigrations applies the migrations at migrationsPath.
func (s *Store) RunMigrations(migrationsPath string) error {
	driver, err := postgres.WithInstance(s.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("audit/postgres: migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	if err != nil {
		return fmt.Errorf("audit/postgres: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("audit/postgres: run migrations: %w", err)
	}
	return nil
}

// RecordTransition appends one row to vm_transitions. Each row gets an
// application-generated UUID primary key, matching the style of the
// pkg/storage tables it replaces, so a row can be correlated with external log
// shipping before the database assigns it any sequence of its own.
func (s *Store) RecordTransition(ctx context.Context, vmID string, status string) error {
	const query = `INSERT INTO vm_transitions (id, vm_id, status, recorded_at) VALUES ($1, $2, $3, now())`
	if _, err := s.db.ExecContext(ctx, query, uuid.New(), vmID, status); err != nil {
		return fmt.Errorf("audit/postgres: insert transition: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
