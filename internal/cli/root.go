// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/logging"
	"github.com/jeranaias/artdrop/internal/server"
	"github.com/jeranaias/artdrop/internal/storage"
)

// Version information, set from main at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// tuiLogName is the log file used while the TUI owns the terminal.
const tuiLogName = "artdrop.log"

// app holds the global flags and the state shared by every command.
type app struct {
	configPath  string
	catalogPath string
	debug       bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the artdrop command tree.
func NewRootCommand() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "artdrop",
		Short: "NFT storefront with a catalog-aware chat assistant",
		Long: `artdrop lists digital artworks as NFTs and answers questions about them.

Price, purchase, description and listing questions are answered from the
catalog. Anything else goes to the configured language model, when an API
key is set. Run with no command to open the storefront.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.artdrop/config.toml)")
	pf.StringVar(&a.catalogPath, "catalog", "", "catalog file (TOML, JSON or YAML)")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withExitCode(ExitUsageError, err)
	})

	root.AddCommand(
		newTUICommand(a),
		newAskCommand(a),
		newChatCommand(a),
		newCatalogCommand(a),
		newClaimCommand(a),
		newClaimsCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root, a
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	server.Version = Version

	root, a := newRootCommand()
	err := root.ExecuteContext(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// load reads the configuration once and applies the global flags.
func (a *app) load() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	if a.catalogPath != "" {
		cfg.Catalog.Path = a.catalogPath
	}
	if a.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	a.cfg = cfg
	return nil
}

// newLogger builds the command logger. When toFile is set and no log file is
// configured, output goes to ~/.artdrop/artdrop.log.
func (a *app) newLogger(toFile bool) (*zap.Logger, error) {
	opts := logging.Options{
		Level:       a.cfg.Log.Level,
		Development: a.cfg.Log.Development,
		File:        a.cfg.Log.File,
	}
	if toFile && opts.File == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		opts.File = filepath.Join(dir, tuiLogName)
	}

	logger, err := logging.New(opts)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	a.logger = logger
	return logger, nil
}

func (a *app) openCatalog(logger *zap.Logger) (*catalog.Source, error) {
	src, err := catalog.OpenSource(a.cfg.Catalog.Path, logger)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return src, nil
}

// newAssistant wires the fallback model named by the config, if any.
func (a *app) newAssistant(ctx context.Context, cat assistant.Catalog, logger *zap.Logger) (*assistant.Assistant, error) {
	fb, err := assistant.NewFallback(ctx, a.cfg.Assistant, logger)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("assistant: %w", err))
	}
	return assistant.New(cat, fb, logger).WithTimeout(a.cfg.Assistant.Timeout()), nil
}

func (a *app) openLedger() (*storage.Ledger, error) {
	path, err := a.cfg.Storage.ResolveLedgerPath()
	if err != nil {
		return nil, err
	}
	return storage.OpenLedger(path)
}
