package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dealflow/dealflow/internal/config"
	"github.com/dealflow/dealflow/internal/db"
	"github.com/dealflow/dealflow/internal/logger"
)

var (
	dbPath string

	cfg *config.Config
	log *zap.Logger
)

// Execute runs the CLI with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dealflowctl",
		Short:         "Administrative tasks for the proposals database",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				c.Database.Driver = "sqlite"
				c.Database.Path = dbPath
			}
			l, err := logger.New(c.App.LogLevel, c.App.Dev)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			cfg, log = c, l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database file (overrides DB_DRIVER and DB_PATH)")

	root.AddCommand(initdbCmd(), exportCmd(), userCmd())
	return root
}

// openDB connects and brings the schema up to date.
func openDB() (*gorm.DB, func(), error) {
	d, err := db.Open(cfg.Database, logger.Gorm(log, cfg.App.Dev), log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := d.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := migrate(d); err != nil {
		closeFn()
		return nil, nil, err
	}
	return d, closeFn, nil
}

func migrate(d *gorm.DB) error {
	if cfg.App.Migrations && cfg.Database.IsPostgres() {
		return db.RunSQLMigrations(cfg.Database)
	}
	return db.Migrate(d)
}
