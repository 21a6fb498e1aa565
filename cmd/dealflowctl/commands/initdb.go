package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dealflow/dealflow/internal/db"
)

func initdbCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create the schema and the default admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				var conn *gorm.DB
				if cfg.Database.IsPostgres() {
					d, closeFn, err := openDB()
					if err != nil {
						return err
					}
					defer closeFn()
					conn = d
				}
				if err := db.Reset(cfg.Database, conn); err != nil {
					return err
				}
				log.Info("database reset", zap.String("driver", cfg.Database.Driver))
			}

			d, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := db.Seed(d); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database ready.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "remove all data before initializing")
	return cmd
}
