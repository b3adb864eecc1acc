package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authbroker/core"
	"authbroker/logging"
	"authbroker/tools"

	"github.com/jonboulle/clockwork"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `serve exposes the authentication tools over the configured MCP transport
(stdio or streamable HTTP) and serves /health and /metrics on http_addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, config)
		},
	}
}

func runServe(ctx context.Context, config *AppConfig) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := core.NewMetrics(registry)
	clock := clockwork.NewRealClock()

	var store core.CredentialStore
	if config.usesStore() {
		var err error
		store, err = initStore(ctx, config)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	provider, err := initProvider(config, store, metrics, clock)
	if err != nil {
		return err
	}

	mcpServer := tools.NewMCPServer(version, tools.New(provider, clock))

	var pinger core.Pinger
	if store != nil {
		pinger = store
	}
	mux := http.NewServeMux()
	core.NewServer(pinger, provider.Method(), registry).Routes(mux)
	if config.Transport == TransportHTTP {
		mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))
	}

	logging.Info("Main", "Starting authbroker %s: auth_method=%s transport=%s", version, provider.Method(), config.Transport)

	g, ctx := errgroup.WithContext(ctx)

	if config.HTTPAddr != "" {
		httpServer := &http.Server{
			Addr:              config.HTTPAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(logging.Logger().With("subsystem", "HTTP").Handler(), slog.LevelWarn),
		}
		g.Go(func() error {
			logging.Info("Main", "HTTP listening on %s", config.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if config.Transport == TransportStdio {
		g.Go(func() error {
			err := server.NewStdioServer(mcpServer).Listen(ctx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				return err
			}
			// The client closing stdin ends the session.
			return context.Canceled
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("Main", "Shut down")
	return nil
}
