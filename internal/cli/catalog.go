// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/ui/styles"
	"github.com/jeranaias/artdrop/internal/util"
)

// maxDescriptionWidth keeps catalog table rows on one line.
const maxDescriptionWidth = 40

var (
	tableBorderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableHeaderStyle = tableCellStyle.Bold(true).Foreground(styles.Jade)
)

func newCatalogCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"list", "ls"},
		Short:   "List the NFTs in the catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.newLogger(false)
			if err != nil {
				return err
			}
			src, err := a.openCatalog(logger)
			if err != nil {
				return err
			}

			items := src.Snapshot().Items()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "There are no NFTs listed right now.")
				return nil
			}
			fmt.Fprintln(out, catalogTable(items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the items as JSON")
	return cmd
}

// catalogTable renders items in catalog order.
func catalogTable(items []catalog.Item) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("SYMBOL", "NAME", "USD", "ALT", "SPLIT", "DESCRIPTION")

	for _, it := range items {
		alt := "-"
		if it.AltPrice.Valid() {
			alt = it.AltPrice.String() + " " + it.Currency()
		}
		split := "-"
		if it.SplitContract != "" {
			split = util.ShortAddress(it.SplitContract)
		}
		t.Row(
			it.Symbol,
			it.Name,
			"$"+it.USDPrice.String(),
			alt,
			split,
			util.TruncateWidth(util.CollapseSpaces(it.Description), maxDescriptionWidth),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return tableHeaderStyle
		}
		return tableCellStyle
	})
	return t.Render()
}
