// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// NotAvailable is how an absent price is displayed.
const NotAvailable = "N/A"

// Price is an optional decimal amount. The zero value is absent.
type Price struct {
	amount decimal.Decimal
	set    bool
}

// NewPrice returns a present price.
func NewPrice(d decimal.Decimal) Price {
	return Price{amount: d, set: true}
}

// ParsePrice parses a decimal string. "", "N/A" and "null" give an absent
// price.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "n/a", "null":
		return Price{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return NewPrice(d), nil
}

// MustPrice is ParsePrice that panics. Intended for literals.
func MustPrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Valid reports whether the price is present.
func (p Price) Valid() bool { return p.set }

// Decimal returns the amount, zero when absent.
func (p Price) Decimal() decimal.Decimal { return p.amount }

// String renders the amount without trailing zeros, or N/A.
func (p Price) String() string {
	if !p.set {
		return NotAvailable
	}
	return p.amount.String()
}

// Equal compares presence and numeric value.
func (p Price) Equal(o Price) bool {
	if p.set != o.set {
		return false
	}
	return !p.set || p.amount.Equal(o.amount)
}

// MarshalJSON writes a JSON number, or null when absent.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return p.UnmarshalText([]byte(s))
	}
	return p.UnmarshalText(data)
}

// MarshalText is used by the TOML encoder. Absent prices encode as "N/A".
func (p Price) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a decimal string.
func (p *Price) UnmarshalText(text []byte) error {
	parsed, err := ParsePrice(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// UnmarshalTOML accepts TOML integers, floats and strings.
func (p *Price) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case int64:
		*p = NewPrice(decimal.NewFromInt(val))
	case float64:
		*p = NewPrice(decimal.NewFromFloat(val))
	case string:
		return p.UnmarshalText([]byte(val))
	default:
		return fmt.Errorf("invalid price value %v (%T)", v, v)
	}
	return nil
}

// UnmarshalYAML accepts scalars; ~ and null give an absent price.
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*p = Price{}
		return nil
	}
	return p.UnmarshalText([]byte(node.Value))
}
