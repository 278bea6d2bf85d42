// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the artdrop packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: display-width aware truncation for terminal cards
//   - PadWidth: right-pads a string to a display width
//   - ShortAddress: abbreviates 0x addresses as 0x1234...abcd
//   - CollapseSpaces: squeezes whitespace runs into single spaces
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Fit an artwork name into a card column
//	title := util.TruncateWidth(item.Name, 24)
//
//	// Write the config file without risking a torn write
//	err := util.AtomicWriteFile(path, data, 0600)
package util
