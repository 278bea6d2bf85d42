// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the artdrop command line.
//
// Every command is a cobra.Command built by NewRootCommand. The root command
// with no arguments starts the storefront TUI.
//
// # Commands
//
//   - tui: the storefront grid with the chat panel
//   - ask: one-shot reply to a single question
//   - chat: line-editing REPL over one conversation session
//   - catalog: print the listed NFTs
//   - claim, claims: record and list claim requests
//   - serve: the HTTP API
//   - config show, config init: inspect or create the config file
//   - version
//
// # Global Flags
//
//	--config PATH    config file (default ~/.artdrop/config.toml)
//	--catalog PATH   catalog file, overriding catalog.path
//	--debug          debug logging
//
// Commands write results to stdout and logs to stderr, except the TUI, which
// logs to ~/.artdrop/artdrop.log.
package cli
