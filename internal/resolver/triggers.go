// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"regexp"
	"strings"

	"github.com/jeranaias/artdrop/internal/util"
)

// ============================================================================
// CANDIDATE EXTRACTION
// ============================================================================

// usdPricePattern is the one phrasing recognized verbatim; everything after
// it is the item name.
var usdPricePattern = regexp.MustCompile(`how much is artwork in usd (.*)`)

// triggers is scanned in order. The keyword whose last occurrence starts
// furthest right wins; on equal positions the earlier entry wins.
var triggers = []string{
	"price of",
	"cost of",
	"usd price of",
	"description of",
	"about",
	"buy",
	"how much is",
	"what is the price of",
	"tell me about",
}

// fillerPattern removes words that never form part of an item name.
var fillerPattern = regexp.MustCompile(`\b(artwork|in usd|usd|in|the|of|an|a|is)\b`)

// extractCandidate returns the part of a normalized input that should name
// an item. It may be empty.
func extractCandidate(input string) string {
	if m := usdPricePattern.FindStringSubmatch(input); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}

	rest := input
	if idx, kw := lastTrigger(input); idx >= 0 {
		rest = input[idx+len(kw):]
	}
	return util.CollapseSpaces(fillerPattern.ReplaceAllString(rest, ""))
}

// lastTrigger finds the trigger keyword that occurs furthest right.
func lastTrigger(input string) (int, string) {
	best, keyword := -1, ""
	for _, kw := range triggers {
		if idx := strings.LastIndex(input, kw); idx > best {
			best, keyword = idx, kw
		}
	}
	return best, keyword
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
