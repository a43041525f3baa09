package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/userstore/internal/database"
	"github.com/deppfellow/userstore/internal/handler"
	"github.com/deppfellow/userstore/internal/repository"
	"github.com/deppfellow/userstore/internal/router"
	"github.com/deppfellow/userstore/internal/server"
	"github.com/deppfellow/userstore/internal/service"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  "Apply pending migrations, then serve the users API until SIGINT or SIGTERM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !skipMigrations {
			if err := database.Migrate(ctx, &log, cfg.Database.URL); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		srv, err := server.New(ctx, cfg, &log, loggerService)
		if err != nil {
			return err
		}

		repos := repository.NewRepositories(srv)
		services, err := service.NewService(srv, repos)
		if err != nil {
			return fmt.Errorf("failed to create services: %w", err)
		}

		handlers := handler.NewHandlers(srv, services)
		srv.SetupHTTPServer(router.NewRouter(srv, handlers))

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- srv.Start()
		}()

		select {
		case err := <-serverErr:
			if err != nil {
				_ = srv.Shutdown(context.Background())
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			log.Info().Msg("shutting down gracefully")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations before serving")
}
