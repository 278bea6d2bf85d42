// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Grid layout constants.
const (
	// MaxColumns is the widest catalog grid.
	MaxColumns = 3

	// MinCardWidth is the narrowest card worth rendering, borders included.
	MinCardWidth = 28
)

// Theme holds all the styled components for the storefront.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header          lipgloss.Style
	HeaderTitle     lipgloss.Style
	HeaderMarquee   lipgloss.Style
	HeaderStatusOn  lipgloss.Style
	HeaderStatusOff lipgloss.Style

	// ==========================================================================
	// CATALOG CARD STYLES
	// ==========================================================================

	Card         lipgloss.Style
	CardSelected lipgloss.Style
	CardTitle    lipgloss.Style
	CardSymbol   lipgloss.Style
	CardBody     lipgloss.Style
	CardPrice    lipgloss.Style
	CardMeta     lipgloss.Style

	// ==========================================================================
	// DETAIL PANE STYLES
	// ==========================================================================

	Detail      lipgloss.Style
	DetailTitle lipgloss.Style

	// ==========================================================================
	// CHAT PANEL STYLES
	// ==========================================================================

	ChatPanel  lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Spinner    lipgloss.Style

	// ==========================================================================
	// FOOTER STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Notice       lipgloss.Style
	NoticeError  lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Jade)

	t.HeaderMarquee = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.HeaderStatusOn = lipgloss.NewStyle().Foreground(Jade)
	t.HeaderStatusOff = lipgloss.NewStyle().Foreground(TextMuted)

	// Cards
	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CardSelected = t.Card.
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(Jade)

	t.CardTitle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.CardSymbol = lipgloss.NewStyle().Foreground(Coral)
	t.CardBody = lipgloss.NewStyle().Foreground(TextSecondary)
	t.CardPrice = lipgloss.NewStyle().Bold(true).Foreground(Jade)
	t.CardMeta = lipgloss.NewStyle().Foreground(TextMuted)

	// Detail
	t.Detail = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Jade).
		Padding(0, 1)

	t.DetailTitle = lipgloss.NewStyle().Bold(true).Foreground(Jade)

	// Chat
	t.ChatPanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Coral).
		Padding(0, 1)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(Lagoon).
		MarginLeft(4)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		BorderForeground(Coral).
		PaddingLeft(1)

	t.Spinner = lipgloss.NewStyle().Foreground(Sand)

	// Footer
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(Jade)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.Notice = lipgloss.NewStyle().Foreground(Jade)
	t.NoticeError = lipgloss.NewStyle().Foreground(Rose)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GridColumns returns how many catalog cards fit side by side, between 1
// and MaxColumns.
func (t *Theme) GridColumns() int {
	cols := t.Width / MinCardWidth
	if cols > MaxColumns {
		cols = MaxColumns
	}
	if cols < 1 {
		cols = 1
	}
	return cols
}

// CardWidth returns the outer width of one card for the current grid.
func (t *Theme) CardWidth() int {
	w := t.Width / t.GridColumns()
	if w < MinCardWidth {
		return MinCardWidth
	}
	return w
}
