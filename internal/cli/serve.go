// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/artdrop/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		Long: `Serve the catalog, chat sessions and claim requests over HTTP.

The catalog file is watched for changes when catalog.watch is set. The
server stops cleanly on SIGINT or SIGTERM.`,
		Example: `  artdrop serve
  artdrop serve --port 9000 --catalog ./catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				if port < 1 || port > 65535 {
					return withExitCode(ExitUsageError, fmt.Errorf("--port must be between 1 and 65535"))
				}
				a.cfg.Server.Port = port
			}

			logger, err := a.newLogger(false)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			src, err := a.openCatalog(logger)
			if err != nil {
				return err
			}
			asst, err := a.newAssistant(ctx, src, logger)
			if err != nil {
				return err
			}
			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			srv := server.NewServer(a.cfg.Server, src, asst, logger).
				WithLedger(ledger, a.cfg.Chain)

			fmt.Fprintf(cmd.OutOrStdout(), "artdrop %s listening on http://%s\n", Version, a.cfg.Server.Addr())
			return runServe(ctx, srv, src, a.cfg.Catalog.Watch, logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default server.port)")
	return cmd
}

// watcher is the part of *catalog.Source that serve needs.
type watcher interface {
	Watch(ctx context.Context) error
}

// runServe runs the HTTP server, the session sweeper and, when watch is
// set, the catalog watcher. The first failure stops the others.
func runServe(ctx context.Context, srv *server.Server, cat watcher, watch bool, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return srv.Sessions().Run(gctx)
	})
	if watch {
		g.Go(func() error {
			return cat.Watch(gctx)
		})
	}

	err := g.Wait()
	logger.Info("stopped", zap.Error(err))
	return err
}
