// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storefront provides the terminal storefront: a catalog grid, a
// markdown detail pane, claim requests and the assistant chat panel.
//
// # Key Bindings
//
//   - arrows / hjkl: move the selection
//   - enter: open or close the detail pane
//   - c: record a claim for the selected item
//   - tab: open or close the chat panel
//   - esc: close the detail pane or the chat panel
//   - q / ctrl+c: quit
//
// The chat panel is a view of a session.Session. Opening the panel opens
// the session, closing it closes the session. Replies are produced by a
// tea.Cmd so the event loop never blocks on the assistant.
package storefront
