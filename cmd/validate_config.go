package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"print-area-pricing/app"
	"print-area-pricing/pricing"
)

var validateFile string

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Check a price table for missing or negative entries",
	Long: `Validates the price table in --file, or the active table (database, then
pricing.config_file, then built-in) when no file is given. Every gap is listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateFile != "" {
			if _, err := pricing.LoadConfigFile(validateFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", validateFile)
			return nil
		}

		application, err := app.Initialize(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer application.Close()

		if err := pricing.Validate(application.Pricing.Config()); err != nil {
			return fmt.Errorf("active pricing config is invalid: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "active pricing config is valid")
		return nil
	},
}

func init() {
	validateConfigCmd.Flags().StringVar(&validateFile, "file", "", "JSON price table to validate")
	rootCmd.AddCommand(validateConfigCmd)
}
