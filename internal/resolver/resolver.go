// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/artdrop/internal/catalog"
)

// Answer is a locally produced reply.
type Answer struct {
	Intent Intent
	// Item is the matched item; nil for IntentList.
	Item *catalog.Item
	Text string
}

// Resolve answers input from items, or returns false when it has no answer.
func Resolve(input string, items []catalog.Item) (Answer, bool) {
	q := normalize(input)

	if item := match(extractCandidate(q), items); item != nil {
		intent := classify(q)
		return Answer{Intent: intent, Item: item, Text: Sanitize(format(intent, *item))}, true
	}

	if containsAny(q, listKeywords) {
		return Answer{Intent: IntentList, Text: Sanitize(formatList(items))}, true
	}

	return Answer{}, false
}

// normalize composes to NFC before lowercasing so that accented names typed
// with combining marks compare equal to precomposed ones.
func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// match returns the first item, in catalog order, that the candidate names.
func match(candidate string, items []catalog.Item) *catalog.Item {
	if candidate == "" {
		return nil
	}
	for i := range items {
		name := normalize(items[i].Name)
		if strings.Contains(name, candidate) ||
			strings.Contains(candidate, name) ||
			normalize(items[i].Symbol) == candidate {
			item := items[i]
			return &item
		}
	}
	return nil
}
