package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dealflow/dealflow/internal/config"
	"github.com/dealflow/dealflow/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Client{},
		&models.Template{},
		&models.Proposal{},
		&models.LineItem{},
	}
}

// Open connects to the configured database. Postgres connections are
// retried while the server starts up.
func Open(cfg config.DatabaseConfig, lg gormlogger.Interface, log *zap.Logger) (*gorm.DB, error) {
	if lg == nil {
		lg = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	gcfg := &gorm.Config{Logger: lg}

	if !cfg.IsPostgres() {
		log.Info("opening database", zap.String("driver", "sqlite"), zap.String("path", cfg.Path))
		d, err := gorm.Open(sqlite.Open(sqliteDSN(cfg.Path)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		return d, nil
	}

	log.Info("opening database",
		zap.String("driver", "postgres"),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName),
		zap.String("user", cfg.User),
	)
	var d *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		d, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after retries: %w", err)
	}
	if err := d.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return d, nil
}

// Migrate creates or updates the schema with gorm's AutoMigrate.
func Migrate(d *gorm.DB) error {
	for _, m := range Models() {
		if err := d.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "clients", "templates", "proposals", "line_items"} {
		if !d.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// Reset removes the sqlite database file so the next start recreates it.
// On postgres every table is dropped instead.
func Reset(cfg config.DatabaseConfig, d *gorm.DB) error {
	if cfg.IsPostgres() {
		if d == nil {
			return errors.New("reset: postgres requires an open connection")
		}
		return dropAll(d)
	}
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if err := os.Remove(cfg.Path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", cfg.Path+suffix, err)
		}
	}
	return nil
}

// dropAll drops every entity table, children first, and the golang-migrate
// version table so the next SQL migration run starts from scratch.
func dropAll(d *gorm.DB) error {
	all := Models()
	for i := len(all) - 1; i >= 0; i-- {
		if err := d.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("drop %T: %w", all[i], err)
		}
	}
	if err := d.Migrator().DropTable(migrationsTable); err != nil {
		return fmt.Errorf("drop %s: %w", migrationsTable, err)
	}
	return nil
}

// sqliteDSN enables foreign keys, which sqlite leaves off by default.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}
