// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storefront

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/model"
	"github.com/jeranaias/artdrop/internal/util"
)

const (
	// cardHeight is the outer height of a card: border plus four lines.
	cardHeight = 6

	// chromeHeight covers the two header lines, the notice and the footer.
	chromeHeight = 4

	// chatChrome covers the panel border, input line and status line.
	chatChrome = 4
)

// View renders the storefront.
func (m Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())

	if m.showDetail {
		sections = append(sections, m.renderDetail())
	} else {
		sections = append(sections, m.renderGrid())
	}

	if m.session.IsOpen() {
		sections = append(sections, m.renderChat())
	}

	sections = append(sections, m.renderNotice(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// HEADER AND FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	status := t.HeaderStatusOff.Render("assistant: catalog answers only")
	if m.assistant != nil && m.assistant.FallbackConfigured() {
		status = t.HeaderStatusOn.Render("assistant: online")
	}

	title := t.HeaderTitle.Render("artdrop") + "  " + status
	marquee := t.HeaderMarquee.Render(util.TruncateWidth(m.marquee, maxInt(m.width-2, 10)))
	return t.Header.Width(maxInt(m.width, 0)).Render(title + "\n" + marquee)
}

func (m Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	if m.noticeError {
		return m.theme.NoticeError.Render(m.notice)
	}
	return m.theme.Notice.Render(m.notice)
}

func (m Model) renderFooter() string {
	bindings := m.keys.GridHelp()
	if m.session.IsOpen() {
		bindings = m.keys.ChatHelp()
	}
	return m.theme.StatusBar.Render(m.renderShortcuts(bindings))
}

func (m Model) renderShortcuts(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// GRID
// =============================================================================

func (m Model) renderGrid() string {
	if len(m.items) == 0 {
		return m.theme.CardMeta.Render("There are no NFTs listed right now.")
	}

	cols := m.theme.GridColumns()
	width := m.theme.CardWidth()
	if m.width == 0 {
		width = defaultCardWidth
	}

	first := m.gridOffset * cols
	last := first + m.visibleRows()*cols
	if last > len(m.items) {
		last = len(m.items)
	}

	var rows []string
	for start := first; start < last; start += cols {
		end := start + cols
		if end > last {
			end = last
		}
		cards := make([]string, 0, cols)
		for i := start; i < end; i++ {
			cards = append(cards, m.renderCard(m.items[i], width, i == m.selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// defaultCardWidth is used before the first WindowSizeMsg.
const defaultCardWidth = 32

// renderCard draws one item. width is the outer width.
func (m Model) renderCard(it catalog.Item, width int, selected bool) string {
	t := m.theme
	style := t.Card
	if selected {
		style = t.CardSelected
	}
	// border (2) + padding (2)
	inner := width - 4
	if inner < 8 {
		inner = 8
	}

	title := t.CardTitle.Render(util.TruncateWidth(it.Name, inner-len(it.Symbol)-1)) + " " +
		t.CardSymbol.Render(it.Symbol)
	desc := t.CardBody.Render(util.TruncateWidth(util.CollapseSpaces(it.Description), inner))
	price := t.CardPrice.Render(util.TruncateWidth(cardPrice(it), inner))

	split := "no revenue split"
	if it.SplitContract != "" {
		split = "split " + util.ShortAddress(it.SplitContract)
	}
	meta := t.CardMeta.Render(util.TruncateWidth(split, inner))

	return style.Width(width - 2).Render(strings.Join([]string{title, desc, price, meta}, "\n"))
}

// cardPrice formats "$120 USD / 215.5 POL", or "$N/A USD" when unpriced.
func cardPrice(it catalog.Item) string {
	s := "$" + it.USDPrice.String() + " USD"
	if it.AltPrice.Valid() {
		s += " / " + it.AltPrice.String() + " " + it.Currency()
	}
	return s
}

// =============================================================================
// DETAIL
// =============================================================================

func (m Model) renderDetail() string {
	it, ok := m.Selected()
	if !ok {
		return ""
	}
	width := m.width - 4
	if width < 20 {
		width = 76
	}
	body := m.markdown.render(detailMarkdown(it), width)
	return m.theme.Detail.Width(width + 2).Render(body)
}

// =============================================================================
// CHAT
// =============================================================================

func (m Model) renderChat() string {
	status := ""
	if m.session.AwaitingReply() {
		status = m.spinner.View() + " thinking..."
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.input.View(),
		status,
	)
	return m.theme.ChatPanel.Render(body)
}

func (m Model) renderMessages(width int) string {
	msgs := m.session.Messages()
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, m.renderMessage(msg, width))
	}
	return strings.Join(out, "\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	w := width - 6
	if w < 10 {
		w = 10
	}
	if msg.IsUser() {
		return m.theme.UserBubble.Width(w).Render(msg.Text)
	}
	return m.theme.BotBubble.Width(w).Render(msg.Text)
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) chatViewportHeight() int {
	if m.height == 0 {
		return 8
	}
	return maxInt(m.height/3-chatChrome, 3)
}

// visibleRows returns how many card rows fit on screen.
func (m Model) visibleRows() int {
	if m.height == 0 {
		// Before the first resize, show everything.
		return len(m.items) + 1
	}
	avail := m.height - chromeHeight
	if m.session.IsOpen() {
		avail -= m.chatViewportHeight() + chatChrome
	}
	return maxInt(avail/cardHeight, 1)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
