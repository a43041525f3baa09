// Package cli holds the userstore command tree.
package cli

import (
	"fmt"

	"github.com/deppfellow/userstore/internal/config"
	"github.com/deppfellow/userstore/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
)

var rootCmd = &cobra.Command{
	Use:           "userstore",
	Short:         "User records over PostgreSQL",
	Long:          "userstore keeps user records (name, age, unique email) in PostgreSQL and serves them over a JSON API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		loggerService, err = logger.NewLoggerService(cfg.Observability, cfg.Primary.Env)
		if err != nil {
			return err
		}

		log = logger.NewWithService(cfg.Logging, cfg.Primary.Env, loggerService)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		loggerService.Shutdown()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
