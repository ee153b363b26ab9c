package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightorm/internal/app"

	"github.com/spf13/cobra"
)

type ServeOptions struct {
	*RootOptions
	Addr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Open every configured database, then serve the query API until SIGINT or SIGTERM.

Example:
  lightorm serve -c ./lightorm.yaml --env production
  lightorm serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address, overrides http.addr")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("opening databases", "binds", len(cfg.Databases))
	a, err := app.New(ctx, cfg, app.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := a.Close(closeCtx); closeErr != nil {
			slog.Error("error closing app", "error", closeErr)
		}
	}()

	if err = a.Run(ctx); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}
