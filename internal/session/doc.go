// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the chat panel's conversation lifecycle.
//
// A Session is a two-state machine:
//
//	Closed --Open/Toggle--> Open --Close/Toggle--> Closed
//
// Entering Open seeds the history with a single greeting and clears the
// draft. Entering Closed drops both. While a reply is awaited, further
// submissions are rejected, so at most one reply is in flight per session.
//
// Replies are not cancellable. A reply delivered after the session was
// closed, or closed and reopened, is still appended.
//
// # Key Types
//
//   - Session: one conversation, safe for concurrent use
//   - Pending: the hand-off between Submit and Deliver
//   - Registry: sessions by ID for the HTTP API, with idle expiry
//
// # Usage
//
//	s := session.New("")
//	s.Open()
//	if p, ok := s.Submit("price of eternal bloom"); ok {
//	    reply := asst.Reply(ctx, p.Input, p.History)
//	    s.Deliver(p, reply.Text)
//	}
package session
