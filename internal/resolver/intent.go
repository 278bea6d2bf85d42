// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import "fmt"

// Intent is the kind of question a local answer responds to.
type Intent int

const (
	IntentNone Intent = iota
	IntentPrice
	IntentPurchase
	IntentDescription
	IntentOverview
	IntentList
)

// String returns the lowercase intent name used in logs and API responses.
func (i Intent) String() string {
	switch i {
	case IntentPrice:
		return "price"
	case IntentPurchase:
		return "purchase"
	case IntentDescription:
		return "description"
	case IntentOverview:
		return "overview"
	case IntentList:
		return "list"
	default:
		return "none"
	}
}

// MarshalText lets Intent appear as its name in JSON.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText parses an intent name.
func (i *Intent) UnmarshalText(b []byte) error {
	for c := IntentNone; c <= IntentList; c++ {
		if c.String() == string(b) {
			*i = c
			return nil
		}
	}
	return fmt.Errorf("unknown intent %q", b)
}

// keyword groups checked against the whole input, in precedence order.
var (
	priceKeywords       = []string{"price", "cost", "usd", "how much"}
	purchaseKeywords    = []string{"how to buy", "buy"}
	descriptionKeywords = []string{"description", "about"}
	listKeywords        = []string{"list all nfts", "show all nfts"}
)

// classify picks the intent for an input that already matched an item.
func classify(input string) Intent {
	switch {
	case containsAny(input, priceKeywords):
		return IntentPrice
	case containsAny(input, purchaseKeywords):
		return IntentPurchase
	case containsAny(input, descriptionKeywords):
		return IntentDescription
	default:
		return IntentOverview
	}
}
