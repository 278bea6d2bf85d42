// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat message types shared by the session, the
// assistant and every front end.
//
// # Key Types
//
//   - Message: one immutable chat line with a sender, text and timestamp
//   - Sender: user or bot
//   - Conversation: ordered, append-only message history
//
// # Usage
//
//	conv := model.NewConversation(model.NewBotMessage("Hello!"))
//	conv.AddUserMessage("price of eternal bloom")
//	for _, m := range conv.Messages() {
//	    fmt.Printf("%s: %s\n", m.Sender.DisplayName(), m.Text)
//	}
package model
