// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"fmt"
	"strings"

	"github.com/jeranaias/artdrop/internal/catalog"
)

// Sanitize strips emphasis asterisks. Every displayed answer goes through
// it, including generated ones.
func Sanitize(text string) string {
	return strings.ReplaceAll(text, "*", "")
}

func format(intent Intent, it catalog.Item) string {
	switch intent {
	case IntentPrice:
		return formatPrice(it)
	case IntentPurchase:
		return formatPurchase(it)
	case IntentDescription:
		return fmt.Sprintf("%s: %s", it.Label(), it.Description)
	default:
		return fmt.Sprintf("I have information about %s. You can ask for its description, price in USD, or how to buy it.", it.Label())
	}
}

func formatPrice(it catalog.Item) string {
	text := fmt.Sprintf("%s costs $%s USD.", it.Label(), it.USDPrice)
	if it.AltPrice.Valid() {
		text += fmt.Sprintf(" / %s %s.", it.AltPrice, it.Currency())
	}
	return text
}

func formatPurchase(it catalog.Item) string {
	return fmt.Sprintf("To buy %s, you'll typically connect your crypto wallet to the marketplace "+
		"and use MATIC (Polygon) or the equivalent USD value. Specific instructions are usually "+
		"provided on the NFT's page or the marketplace's help section. General steps: "+
		"1. Ensure your wallet is funded. 2. Click the 'Buy' button for %s. "+
		"3. Approve the transaction in your wallet.", it.Label(), it.Name)
}

func formatList(items []catalog.Item) string {
	if len(items) == 0 {
		return "There are no NFTs listed right now."
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it.Label()
	}
	return strings.Join(lines, "\n")
}
