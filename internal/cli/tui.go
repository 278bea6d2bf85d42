// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/ui/storefront"
)

func newTUICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the storefront (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}
}

func (a *app) runTUI(cmd *cobra.Command) error {
	if !IsStdinTTY() || !IsStdoutTTY() {
		return withExitCode(ExitUsageError, fmt.Errorf("the storefront needs a terminal; try 'artdrop chat' or 'artdrop ask'"))
	}

	logger, err := a.newLogger(true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	src, err := a.openCatalog(logger)
	if err != nil {
		return err
	}
	asst, err := a.newAssistant(ctx, src, logger)
	if err != nil {
		return err
	}

	// A missing ledger only disables claims.
	var rec claims.Recorder
	ledger, err := a.openLedger()
	if err != nil {
		logger.Warn("claim ledger unavailable, claims disabled", zap.Error(err))
	} else {
		defer ledger.Close()
		rec = ledger
	}

	if a.cfg.Catalog.Watch {
		go func() {
			if err := src.Watch(ctx); err != nil {
				logger.Warn("catalog watch stopped", zap.Error(err))
			}
		}()
	}

	m := storefront.New(storefront.Options{
		Catalog:   src,
		Assistant: asst,
		Greeting:  a.cfg.Assistant.Greeting,
		Recorder:  rec,
		Chain:     a.cfg.Chain,
		Logger:    logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("storefront: %w", err)
	}
	return nil
}
