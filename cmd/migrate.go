package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"print-area-pricing/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.DB.Enabled() {
			return errors.New("no database configured, set db.driver")
		}
		dsn, err := cfg.DB.ConnectionString()
		if err != nil {
			return err
		}
		conn, err := db.Open(cmd.Context(), cfg.DB.Driver, dsn)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.Migrate(conn, cfg.DB.Driver); err != nil {
			return err
		}
		version, err := db.MigrationVersion(conn, cfg.DB.Driver)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Int64("version", version))
		fmt.Fprintf(cmd.OutOrStdout(), "database at migration version %d\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
