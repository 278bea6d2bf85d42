// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/artdrop/internal/util"
)

var (
	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("catalog item not found")

	// ErrDuplicateSymbol is returned when two items share a symbol,
	// ignoring case.
	ErrDuplicateSymbol = errors.New("duplicate symbol")

	// ErrDuplicateID is returned when two items share an ID.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidItem wraps every other per-item validation failure.
	ErrInvalidItem = errors.New("invalid catalog item")
)

// Store is an ordered, read-only catalog snapshot.
type Store struct {
	items    []Item
	bySymbol map[string]int
	byID     map[string]int
}

// NewStore validates items and returns a Store that keeps their order.
func NewStore(items []Item) (*Store, error) {
	s := &Store{
		items:    make([]Item, len(items)),
		bySymbol: make(map[string]int, len(items)),
		byID:     make(map[string]int, len(items)),
	}
	copy(s.items, items)

	for i := range s.items {
		// Lookups trim their argument, so stored symbols are trimmed too.
		s.items[i].Symbol = strings.TrimSpace(s.items[i].Symbol)
		it := s.items[i]
		if err := validateItem(it); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		key := strings.ToLower(it.Symbol)
		if prev, dup := s.bySymbol[key]; dup {
			return nil, fmt.Errorf("item %d (%s) and item %d: %w", i, it.Symbol, prev, ErrDuplicateSymbol)
		}
		if prev, dup := s.byID[it.ID]; dup {
			return nil, fmt.Errorf("item %d (%s) and item %d: %w", i, it.ID, prev, ErrDuplicateID)
		}
		s.bySymbol[key] = i
		s.byID[it.ID] = i
	}
	return s, nil
}

func validateItem(it Item) error {
	switch {
	case strings.TrimSpace(it.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	case strings.TrimSpace(it.Name) == "":
		return fmt.Errorf("%w: %s: missing name", ErrInvalidItem, it.ID)
	case strings.TrimSpace(it.Symbol) == "":
		return fmt.Errorf("%w: %s: missing symbol", ErrInvalidItem, it.ID)
	case it.USDPrice.Valid() && it.USDPrice.Decimal().IsNegative():
		return fmt.Errorf("%w: %s: negative usd price", ErrInvalidItem, it.ID)
	case it.AltPrice.Valid() && it.AltPrice.Decimal().IsNegative():
		return fmt.Errorf("%w: %s: negative alt price", ErrInvalidItem, it.ID)
	case it.EditionContract != "" && !util.IsAddress(it.EditionContract):
		return fmt.Errorf("%w: %s: edition contract %q is not a 0x address", ErrInvalidItem, it.ID, it.EditionContract)
	case it.SplitContract != "" && !util.IsAddress(it.SplitContract):
		return fmt.Errorf("%w: %s: split contract %q is not a 0x address", ErrInvalidItem, it.ID, it.SplitContract)
	}
	return nil
}

// Items returns a copy of the items in catalog order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items.
func (s *Store) Len() int { return len(s.items) }

// BySymbol finds an item by symbol, ignoring case.
func (s *Store) BySymbol(symbol string) (Item, error) {
	i, ok := s.bySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return Item{}, fmt.Errorf("symbol %q: %w", symbol, ErrNotFound)
	}
	return s.items[i], nil
}

// ByID finds an item by ID.
func (s *Store) ByID(id string) (Item, error) {
	i, ok := s.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	return s.items[i], nil
}
