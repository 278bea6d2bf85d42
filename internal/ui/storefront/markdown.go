// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storefront

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/artdrop/internal/catalog"
)

// markdownRenderer caches one glamour renderer per wrap width.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render returns md rendered for width, or md unchanged if glamour fails.
func (r *markdownRenderer) render(md string, width int) string {
	if width < 20 {
		width = 20
	}
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		r.renderer = tr
		r.width = width
	}
	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// detailMarkdown describes an item for the detail pane.
func detailMarkdown(it catalog.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", it.Label())
	if it.Description != "" {
		sb.WriteString(it.Description)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Price | $%s USD |\n", it.USDPrice)
	if it.AltPrice.Valid() {
		fmt.Fprintf(&sb, "| Alt price | %s %s |\n", it.AltPrice, it.Currency())
	}
	if it.EditionContract != "" {
		fmt.Fprintf(&sb, "| Edition | `%s` |\n", it.EditionContract)
	}
	if it.SplitContract != "" {
		fmt.Fprintf(&sb, "| Revenue split | `%s` |\n", it.SplitContract)
	}
	if it.Claimable() {
		sb.WriteString("\nPress **c** to claim one edition.\n")
	} else {
		sb.WriteString("\n_This item cannot be claimed here._\n")
	}
	return sb.String()
}
