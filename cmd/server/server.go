package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/api/router"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/internal/config"
)

const (
	probeFlag       = "probe"
	shutdownTimeout = 10 * time.Second
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the status API and the reconcilers",
		Long: `Serves the queued transactions over HTTP and watches them until they
are mined. Submissions are made with the submit command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			probe, err := cmd.Flags().GetBool(probeFlag)
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), cfg, probe)
		},
	}

	cmd.Flags().Bool(probeFlag, false, "Check the relay and RPC nodes before serving")

	return cmd
}

func runServer(ctx context.Context, cfg config.Server, probe bool) error {
	log.Info().Str("version", config.GetFormattedBuildArgs()).Msg("Starting server")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. components
	s, err := api.InitNewServer(cfg)
	if err != nil {
		return err
	}

	// 2. pending transactions from the last run
	if err := s.RestoreQueues(ctx); err != nil {
		shutdown(s)
		return err
	}

	if cfg.Nonce.Backend == config.BackendPostgres {
		if err := attachDB(ctx, cfg, s); err != nil {
			shutdown(s)
			return err
		}
	}

	if probe {
		if err := s.Relay.Ping(ctx); err != nil {
			shutdown(s)
			return err
		}
		if _, err := s.Chain.ChainID(ctx); err != nil {
			shutdown(s)
			return err
		}
	}

	// 3. routes
	router.Init(s)

	// 4. reconcilers
	if cfg.Reconcile.Enabled {
		app.RunReconcilers(ctx, cfg, s)
	}

	// 5. serve until a signal arrives
	errs := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errs:
	}

	stop()
	shutdown(s)

	return serveErr
}

// attachDB opens the nonce database so its pool is exported on /metrics and
// checked by /-/ready.
func attachDB(ctx context.Context, cfg config.Server, s *api.Server) error {
	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	s.DB = db

	return s.Metrics.RegisterDB(cfg.Database.Database, db)
}

func shutdown(s *api.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		log.Error().Errs("errors", errs).Msg("Server shutdown completed with errors")
		return
	}

	log.Info().Msg("Server shut down")
}
