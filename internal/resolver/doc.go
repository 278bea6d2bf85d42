// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolver answers catalog questions with keyword rules.
//
// Resolve guesses which item a free-text question refers to, classifies what
// is being asked about it, and formats a fixed answer. It is a heuristic and
// never fails: a question it cannot answer returns false, and the caller is
// expected to fall back to a generative model.
//
// # Matching rules
//
//  1. The input is NFC-normalized and lowercased.
//  2. A candidate item name is cut from the input, either from the
//     "how much is artwork in usd <name>" form or from the text after the
//     rightmost trigger keyword, with filler words removed.
//  3. The first item, in catalog order, whose name contains the candidate,
//     whose name is contained in the candidate, or whose symbol equals the
//     candidate is the match.
//  4. The whole input decides the intent: price, purchase, description,
//     or an overview when nothing more specific is asked.
//
// Without a matched item, "list all nfts" and "show all nfts" list the
// catalog.
package resolver
