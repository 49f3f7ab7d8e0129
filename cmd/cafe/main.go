// Command cafe runs the menu API.
//
//	cafe serve    start the HTTP server and the job worker
//	cafe migrate  apply database migrations and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/cafe-menu/internal/config"
	"github.com/deppfellow/cafe-menu/internal/database"
	"github.com/deppfellow/cafe-menu/internal/handler"
	"github.com/deppfellow/cafe-menu/internal/logger"
	"github.com/deppfellow/cafe-menu/internal/repository"
	"github.com/deppfellow/cafe-menu/internal/router"
	"github.com/deppfellow/cafe-menu/internal/server"
	"github.com/deppfellow/cafe-menu/internal/service"
)

const (
	ShutdownTimeout = 10 * time.Second
	MigrateTimeout  = time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cafe",
		Short:         "Cafe menu API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server and the background job worker",
			RunE: func(cmd *cobra.Command, args []string) error {
				return bootstrap(cmd.Context(), serve)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return bootstrap(cmd.Context(), migrate)
			},
		},
	)

	return root
}

// bootstrap loads config and builds the logger shared by every command.
func bootstrap(ctx context.Context, run func(ctx context.Context, cfg *config.Config, log *zerolog.Logger, ls *logger.LoggerService) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if err := run(ctx, cfg, &log, loggerService); err != nil {
		log.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, log *zerolog.Logger, _ *logger.LoggerService) error {
	ctx, cancel := context.WithTimeout(ctx, MigrateTimeout)
	defer cancel()

	return database.Migrate(ctx, log, cfg)
}

func serve(ctx context.Context, cfg *config.Config, log *zerolog.Logger, loggerService *logger.LoggerService) error {
	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, cfg, log, loggerService); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	srv, err := server.New(cfg, log, loggerService)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	repos := repository.NewRepositories(srv)
	services, err := service.NewService(srv, repos)
	if err != nil {
		return fmt.Errorf("could not create services: %w", err)
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = srv.Shutdown(context.Background())
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}
