package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/upb/dak-console/app"
	"github.com/upb/dak-console/config"
	"github.com/upb/dak-console/internal/observability"
	"github.com/upb/dak-console/routes"
)

type options struct {
	envFile string
	addr    string
}

func parseFlags(args []string) (*options, error) {
	fs := pflag.NewFlagSet("dak-console", pflag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	fs.StringVar(&opts.addr, "addr", "", "listen address, overrides SERVER_HOST and SERVER_PORT")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dak-console: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New(ctx, opts.envFile)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}
	deps.StartWorkers(ctx)

	addr := cfg.Server.Address()
	if opts.addr != "" {
		addr = opts.addr
	}
	srv := newServer(addr, cfg.Server, routes.SetupRoutes(deps), deps.Notifier.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("dak-console listening",
			zap.String("addr", addr),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			_ = deps.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	return deps.Close(shutdownCtx)
}

// newServer builds the HTTP server. onShutdown runs when Shutdown starts so
// notification streams end instead of holding the server open.
func newServer(addr string, cfg config.ServerConfig, handler http.Handler, onShutdown func()) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	srv.RegisterOnShutdown(onShutdown)
	return srv
}
