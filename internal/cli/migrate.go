package cli

import (
	"fmt"

	"github.com/deppfellow/userstore/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Bring the database schema up to the latest embedded migration and exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(cmd.Context(), &log, cfg.Database.URL); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
