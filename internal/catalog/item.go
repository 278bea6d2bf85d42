// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import "fmt"

// DefaultAltCurrency is the native token used when an item names none.
const DefaultAltCurrency = "POL"

// Item is one purchasable artwork.
type Item struct {
	ID          string `toml:"id" json:"id" yaml:"id"`
	Name        string `toml:"name" json:"name" yaml:"name"`
	Symbol      string `toml:"symbol" json:"symbol" yaml:"symbol"`
	Description string `toml:"description" json:"description" yaml:"description"`
	Image       string `toml:"image" json:"image,omitempty" yaml:"image"`

	USDPrice    Price  `toml:"usd_price" json:"usdPrice" yaml:"usd_price"`
	AltPrice    Price  `toml:"alt_price" json:"altPrice" yaml:"alt_price"`
	AltCurrency string `toml:"alt_currency" json:"altCurrency" yaml:"alt_currency"`

	EditionContract string `toml:"edition_contract" json:"editionContractAddress,omitempty" yaml:"edition_contract"`
	SplitContract   string `toml:"split_contract" json:"splitContractAddress,omitempty" yaml:"split_contract"`
}

// Label returns "Name (SYMBOL)", the form used in every answer.
func (it Item) Label() string {
	return fmt.Sprintf("%s (%s)", it.Name, it.Symbol)
}

// Currency returns the symbol AltPrice is denominated in.
func (it Item) Currency() string {
	if it.AltCurrency == "" {
		return DefaultAltCurrency
	}
	return it.AltCurrency
}

// Claimable reports whether the item has an edition contract to claim from.
func (it Item) Claimable() bool {
	return it.EditionContract != ""
}
