// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered, append-only list of messages. It is not safe
// for concurrent use; the owning session serializes access.
type Conversation struct {
	messages []Message
}

// NewConversation creates a conversation holding seed, in order.
func NewConversation(seed ...Message) *Conversation {
	c := &Conversation{}
	c.Reset(seed...)
	return c
}

// Append adds msg at the end.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(text string) Message {
	msg := NewUserMessage(text)
	c.Append(msg)
	return msg
}

// AddBotMessage creates and appends a bot message.
func (c *Conversation) AddBotMessage(text string) Message {
	msg := NewBotMessage(text)
	c.Append(msg)
	return msg
}

// Messages returns a copy of the history in order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Tail returns a copy of the last n messages, or all of them when there are
// fewer.
func (c *Conversation) Tail(n int) []Message {
	if n <= 0 {
		return nil
	}
	start := len(c.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(c.messages)-start)
	copy(out, c.messages[start:])
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// Reset drops the history and replaces it with seed.
func (c *Conversation) Reset(seed ...Message) {
	c.messages = make([]Message, 0, len(seed)+8)
	c.messages = append(c.messages, seed...)
}
