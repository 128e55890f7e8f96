package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/statelab/pkg/adapters/http"
	"github.com/aretw0/statelab/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [config]",
	Short: "Serve the machine over HTTP",
	Long: `Starts a JSON API over HTTP with Prometheus metrics on /metrics and a stream
of snapshot diffs on /events. The configuration may be given as an argument or
loaded later with POST /load. Every snapshot is also published to Redis when
STATELAB_REDIS_ADDR is set and written to STATELAB_SNAPSHOT_FILE when set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := settings.HTTPAddr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		metrics := observability.NewMetrics()
		opts, closePublishers := publishers()
		defer closePublishers()

		eng := newEngine(metrics, opts...)
		if len(args) == 1 {
			if err := eng.LoadFile(ctx, args[0]); err != nil {
				return err
			}
		}

		handler := httpAdapter.NewServer(eng,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithReplayDelay(settings.ReplayDelay),
			httpAdapter.WithMaxInputSize(settings.MaxInputSize),
			httpAdapter.WithMetrics(metrics.Handler()),
		)
		defer handler.Close()

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting statelab server", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-ctx.Done():
			logger.Info("Shutdown signal received")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on (env STATELAB_HTTP_ADDR)")
}
