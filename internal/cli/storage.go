package cli

import (
	"github.com/spf13/cobra"

	"scribe/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the translation tables",
	Long:  `Connects to the configured store (postgres or sqlite) and applies the schema.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		storage, err := app.OpenStorage(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer storage.Close()

		cmd.Printf("Schema ready (%s)\n", cfg.StoreDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
