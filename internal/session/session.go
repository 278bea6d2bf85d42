// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/artdrop/internal/model"
)

// DefaultGreeting is seeded into every newly opened session.
const DefaultGreeting = "Hello! I'm your friendly art and NFT assistant. Ask me about the NFTs, " +
	"the MUSEO DE ARTE CONTEMPORANEO DE QUINTANA ROO, or how to buy digital art!"

// =============================================================================
// STATE
// =============================================================================

// State is the open/closed state of the chat panel.
type State int

const (
	StateClosed State = iota
	StateOpen
)

// String returns the state name.
func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses "open" or "closed".
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "open":
		*s = StateOpen
	case "closed":
		*s = StateClosed
	default:
		return fmt.Errorf("unknown session state %q", b)
	}
	return nil
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one chat conversation. It starts Closed.
type Session struct {
	mu sync.Mutex

	id       string
	greeting string
	state    State
	conv     *model.Conversation
	draft    string
	awaiting bool

	startTime    time.Time
	lastActivity time.Time
	replyLatency time.Duration
}

// Pending is an accepted submission waiting for its reply.
type Pending struct {
	// Input is the submitted text.
	Input string
	// History is the conversation as it was before Input was appended.
	History []model.Message
	// SubmittedAt is when Submit accepted the input.
	SubmittedAt time.Time
}

// New creates a closed session. An empty greeting uses DefaultGreeting.
func New(greeting string) *Session {
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}
	now := time.Now()
	return &Session{
		id:           uuid.NewString(),
		greeting:     greeting,
		state:        StateClosed,
		conv:         model.NewConversation(),
		startTime:    now,
		lastActivity: now,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOpen reports whether the session is Open.
func (s *Session) IsOpen() bool {
	return s.State() == StateOpen
}

// AwaitingReply reports whether a submitted message has no reply yet.
func (s *Session) AwaitingReply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Open enters Open, resetting the history to the greeting. It reports
// whether the state changed; opening an open session does nothing.
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateOpen {
		return false
	}
	s.state = StateOpen
	s.conv.Reset(model.NewBotMessage(s.greeting))
	s.draft = ""
	s.touch()
	return true
}

// Close enters Closed, dropping the history and the draft. It reports
// whether the state changed.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	s.conv.Reset()
	s.draft = ""
	s.touch()
	return true
}

// Toggle flips between Open and Closed and returns the new state.
func (s *Session) Toggle() State {
	if s.IsOpen() {
		s.Close()
	} else {
		s.Open()
	}
	return s.State()
}

// =============================================================================
// MESSAGES
// =============================================================================

// Submit accepts user input. It is rejected, with no state change, when the
// text is blank, the session is Closed, or a reply is awaited. On success
// the user message is appended, the draft is cleared and the session awaits
// a reply.
func (s *Session) Submit(text string) (Pending, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Pending{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.awaiting {
		return Pending{}, false
	}

	p := Pending{
		Input:       text,
		History:     s.conv.Messages(),
		SubmittedAt: time.Now(),
	}
	s.conv.AddUserMessage(text)
	s.awaiting = true
	s.draft = ""
	s.touch()
	return p, true
}

// Deliver appends the reply for p as a bot message and stops awaiting. It
// appends regardless of any open/close cycle since Submit. The time since
// p was submitted is kept as the last reply latency.
func (s *Session) Deliver(p Pending, text string) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.conv.AddBotMessage(text)
	s.awaiting = false
	if !p.SubmittedAt.IsZero() {
		s.replyLatency = msg.Timestamp.Sub(p.SubmittedAt)
	}
	s.touch()
	return msg
}

// Messages returns a copy of the history.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Len()
}

// SetDraft stores the unsent input buffer.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Draft returns the unsent input buffer.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// =============================================================================
// ACTIVITY
// =============================================================================

// touch records activity. Callers hold s.mu.
func (s *Session) touch() {
	s.lastActivity = time.Now()
}

// IdleTime returns how long since the last state change or message.
func (s *Session) IdleTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// idleSince reports whether the session was last active before cutoff and
// has no reply in flight.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.awaiting && s.lastActivity.Before(cutoff)
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a point-in-time copy of a session.
type Status struct {
	ID            string          `json:"id"`
	State         State           `json:"state"`
	AwaitingReply bool            `json:"awaiting_reply"`
	Messages      []model.Message `json:"messages"`
	StartTime     time.Time       `json:"started_at"`
	IdleTime      time.Duration   `json:"-"`
	// LastReplyMillis is how long the most recent reply took to arrive.
	LastReplyMillis int64 `json:"last_reply_ms"`
}

// GetStatus returns the current session status.
func (s *Session) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:            s.id,
		State:         s.state,
		AwaitingReply: s.awaiting,
		Messages:      s.conv.Messages(),
		StartTime:     s.startTime,
		IdleTime:      time.Since(s.lastActivity),

		LastReplyMillis: s.replyLatency.Milliseconds(),
	}
}
