package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"print-area-pricing/config"
	"print-area-pricing/logger"
)

var (
	configPath string
	envFile    string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "print-area-pricing",
	Short: "Print area pricing and color accounting for garment designs",
	Long: `Prices the designs customers place on garment print areas: measures every
object in millimeters, buckets it into a print size, counts its printed colors and
applies the print method price table.

Run "serve" for the HTTP API or "quote" to price a saved canvas from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		log, err = logger.New(logger.Config{
			Environment: cfg.Env,
			Level:       cfg.Log.Level,
			Format:      cfg.Log.Format,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config.yaml in ., ./deploy or /etc/print-area-pricing)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded outside production")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
