package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/dealflow/dealflow/internal/config"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank import registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsTable is where golang-migrate records the applied version.
const migrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunSQLMigrations applies the versioned SQL migrations to a postgres
// database. It is used instead of AutoMigrate when MIGRATIONS is enabled.
func RunSQLMigrations(cfg config.DatabaseConfig) error {
	if !cfg.IsPostgres() {
		return errors.New("sql migrations require DB_DRIVER=postgres")
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
