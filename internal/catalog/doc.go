// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog holds the artworks on offer.
//
// A Store is an immutable, ordered snapshot of items. Symbols are unique
// (case-insensitive) and catalog order is preserved everywhere, since the
// resolver's first-match rule depends on it. A Source hands out the current
// Store and can swap in a fresh one when the catalog file changes.
package catalog
