// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/storage"
	"github.com/jeranaias/artdrop/internal/ui/styles"
	"github.com/jeranaias/artdrop/internal/util"
)

// defaultClaimsLimit is the number of claims listed without --limit.
const defaultClaimsLimit = 20

func newClaimCommand(a *app) *cobra.Command {
	var (
		wallet string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "claim <symbol>",
		Short: "Record a claim request for an NFT",
		Long: `Record a request to claim one edition of an NFT for a wallet.

The request is stored in the local claim ledger for the seller to fulfil.
Nothing is signed or sent on chain. The wallet defaults to chain.wallet.`,
		Example: `  artdrop claim JGN --wallet 0x1234567890abcdef1234567890abcdef12345678`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.newLogger(false)
			if err != nil {
				return err
			}
			src, err := a.openCatalog(logger)
			if err != nil {
				return err
			}

			item, err := src.Snapshot().BySymbol(args[0])
			if err != nil {
				return err
			}
			if wallet == "" {
				wallet = a.cfg.Chain.Wallet
			}
			req, err := claims.NewRequest(item, wallet, a.cfg.Chain.Name)
			if err != nil {
				return fmt.Errorf("cannot claim %s: %w", item.Symbol, err)
			}

			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			if err := ledger.Record(cmd.Context(), req); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, req)
			}
			fmt.Fprintln(out, styles.RenderSuccess(fmt.Sprintf("Claim %s recorded: %s (token %d x%d) for %s on %s",
				req.ID[:8], req.Symbol, req.TokenID, req.Quantity, util.ShortAddress(req.Wallet), req.Chain)))
			return nil
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "receiving wallet address (default chain.wallet)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the recorded request as JSON")
	return cmd
}

func newClaimsCommand(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "claims",
		Short: "List recorded claim requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return withExitCode(ExitUsageError, fmt.Errorf("--limit must not be negative"))
			}

			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			reqs, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if reqs == nil {
					reqs = []claims.Request{}
				}
				return writeJSON(out, reqs)
			}
			fmt.Fprintln(out, strings.TrimRight(storage.FormatClaimList(reqs), "\n"))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultClaimsLimit, "maximum number of claims to show, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the claims as JSON")
	return cmd
}
