// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storefront

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/logging"
	"github.com/jeranaias/artdrop/internal/session"
	"github.com/jeranaias/artdrop/internal/ui/styles"
)

const (
	// ReloadInterval is how often the catalog version is checked.
	ReloadInterval = 2 * time.Second

	claimTimeout = 5 * time.Second

	// DefaultMarquee is shown under the title when none is configured.
	DefaultMarquee = "Digital art from the Mexican Caribbean"
)

// Catalog is the catalog view the storefront needs. *catalog.Source
// implements it.
type Catalog interface {
	Snapshot() *catalog.Store
	Version() uint64
}

// Options configures a storefront Model.
type Options struct {
	Catalog   Catalog
	Assistant *assistant.Assistant
	// Greeting seeds the chat panel; empty uses session.DefaultGreeting.
	Greeting string
	// Recorder stores claim requests. Claims are disabled when nil.
	Recorder claims.Recorder
	Chain    config.ChainConfig
	Marquee  string
	Theme    *styles.Theme
	Logger   *zap.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the storefront.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	logger *zap.Logger

	catalog        Catalog
	items          []catalog.Item
	catalogVersion uint64

	assistant *assistant.Assistant
	session   *session.Session
	recorder  claims.Recorder
	chain     config.ChainConfig
	marquee   string

	// Grid state
	selected   int
	gridOffset int // first visible row
	showDetail bool
	markdown   *markdownRenderer

	// Chat panel
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Footer notice from the last claim or reload
	notice      string
	noticeError bool

	width  int
	height int
}

// New creates a storefront model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	greeting := opts.Greeting
	if greeting == "" {
		greeting = session.DefaultGreeting
	}
	marquee := opts.Marquee
	if marquee == "" {
		marquee = DefaultMarquee
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about an artwork..."
	ti.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	m := Model{
		theme:     theme,
		keys:      DefaultKeyMap(),
		logger:    logging.OrNop(opts.Logger),
		catalog:   opts.Catalog,
		assistant: opts.Assistant,
		session:   session.New(greeting),
		recorder:  opts.Recorder,
		chain:     opts.Chain,
		marquee:   marquee,
		markdown:  &markdownRenderer{},
		viewport:  viewport.New(80, 8),
		input:     ti,
		spinner:   sp,
	}
	m.refreshCatalog()
	return m
}

// Session returns the chat session behind the panel.
func (m Model) Session() *session.Session { return m.session }

// Selected returns the selected item, if the catalog is not empty.
func (m Model) Selected() (catalog.Item, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return catalog.Item{}, false
	}
	return m.items[m.selected], true
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the catalog reload tick.
func (m Model) Init() tea.Cmd {
	return reloadTick()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layoutChat()
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		m.session.Deliver(msg.pending, msg.reply.Text)
		m.logger.Debug("reply delivered",
			zap.String("source", string(msg.reply.Source)),
			zap.Int64("latency_ms", m.session.GetStatus().LastReplyMillis),
		)
		m.refreshChat()
		var cmd tea.Cmd
		if m.session.IsOpen() {
			cmd = m.input.Focus()
		}
		return m, cmd

	case claimMsg:
		if msg.err != nil {
			m.setNotice("Claim failed: "+msg.err.Error(), true)
		} else {
			m.setNotice("Claim request "+msg.req.ID[:8]+" recorded for "+msg.req.Symbol, false)
		}
		return m, nil

	case reloadTickMsg:
		if m.catalog.Version() != m.catalogVersion {
			m.refreshCatalog()
			m.setNotice("Catalog updated", false)
		}
		return m, reloadTick()

	case spinner.TickMsg:
		if !m.session.AwaitingReply() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.session.IsOpen() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Chat) {
		return m.toggleChat()
	}
	if m.session.IsOpen() {
		return m.handleChatKey(msg)
	}
	return m.handleGridKey(msg)
}

func (m Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.theme.GridColumns()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.showDetail = false
	case key.Matches(msg, m.keys.Detail):
		if len(m.items) > 0 {
			m.showDetail = !m.showDetail
		}
	case key.Matches(msg, m.keys.Claim):
		return m, m.claimSelected()
	case key.Matches(msg, m.keys.Left):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-cols)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(cols)
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.closeChat()
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.session.AwaitingReply() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetDraft(m.input.Value())
	return m, cmd
}

// =============================================================================
// CHAT
// =============================================================================

func (m Model) toggleChat() (tea.Model, tea.Cmd) {
	if m.session.IsOpen() {
		return m.closeChat()
	}
	m.session.Open()
	m.input.SetValue(m.session.Draft())
	m.refreshChat()
	m.ensureVisible()
	if m.session.AwaitingReply() {
		return m, m.spinner.Tick
	}
	return m, m.input.Focus()
}

func (m Model) closeChat() (tea.Model, tea.Cmd) {
	m.session.Close()
	m.input.Reset()
	m.input.Blur()
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	pending, ok := m.session.Submit(m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.SetValue(m.session.Draft())
	m.input.Blur()
	m.refreshChat()
	return m, tea.Batch(m.spinner.Tick, m.replyCmd(pending))
}

// replyCmd asks the assistant off the event loop.
func (m Model) replyCmd(p session.Pending) tea.Cmd {
	asst := m.assistant
	return func() tea.Msg {
		reply := asst.Reply(context.Background(), p.Input, p.History)
		return replyMsg{pending: p, reply: reply}
	}
}

// =============================================================================
// CLAIMS
// =============================================================================

func (m *Model) claimSelected() tea.Cmd {
	item, ok := m.Selected()
	if !ok {
		return nil
	}
	if m.recorder == nil {
		m.setNotice("Claims are disabled: no ledger configured", true)
		return nil
	}

	req, err := claims.NewRequest(item, m.chain.Wallet, m.chain.Name)
	if err != nil {
		m.setNotice("Cannot claim "+item.Symbol+": "+err.Error(), true)
		return nil
	}

	rec := m.recorder
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()
		if err := rec.Record(ctx, req); err != nil {
			logger.Warn("claim not recorded", zap.Error(err))
			return claimMsg{req: req, err: err}
		}
		return claimMsg{req: req}
	}
}

// =============================================================================
// STATE HELPERS
// =============================================================================

func (m *Model) refreshCatalog() {
	m.items = m.catalog.Snapshot().Items()
	m.catalogVersion = m.catalog.Version()
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if len(m.items) == 0 {
		m.showDetail = false
	}
	m.ensureVisible()
}

func (m *Model) moveSelection(delta int) {
	next := m.selected + delta
	if next < 0 || next >= len(m.items) {
		return
	}
	m.selected = next
	m.ensureVisible()
}

// ensureVisible scrolls the grid so the selected row is on screen.
func (m *Model) ensureVisible() {
	cols := m.theme.GridColumns()
	row := m.selected / cols
	visible := m.visibleRows()
	if row < m.gridOffset {
		m.gridOffset = row
	}
	if row >= m.gridOffset+visible {
		m.gridOffset = row - visible + 1
	}
	if m.gridOffset < 0 {
		m.gridOffset = 0
	}
}

func (m *Model) setNotice(text string, isError bool) {
	m.notice = text
	m.noticeError = isError
}

// layoutChat sizes the chat viewport and input to the window.
func (m *Model) layoutChat() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.viewport.Width = w
	m.viewport.Height = m.chatViewportHeight()
	m.input.Width = w - 4
	m.refreshChat()
}

// refreshChat re-renders the conversation into the viewport.
func (m *Model) refreshChat() {
	m.viewport.SetContent(m.renderMessages(m.viewport.Width))
	m.viewport.GotoBottom()
}

func reloadTick() tea.Cmd {
	return tea.Tick(ReloadInterval, func(t time.Time) tea.Msg {
		return reloadTickMsg(t)
	})
}
