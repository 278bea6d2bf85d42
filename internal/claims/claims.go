// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package claims describes claim requests handed to an external wallet.
//
// artdrop never signs or submits transactions. A Request records which
// edition contract to claim from, with which wallet, on which chain. What
// happens on-chain is outside this package.
package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/util"
)

// Every claim is for a single edition of token 0 of an ERC-1155 contract.
const (
	TokenID  int64 = 0
	Quantity int64 = 1
)

var (
	// ErrNoContract is returned for items without an edition contract.
	ErrNoContract = errors.New("item has no edition contract")

	// ErrInvalidWallet is returned for a malformed wallet address.
	ErrInvalidWallet = errors.New("invalid wallet address")

	// ErrNoChain is returned when the chain name is empty.
	ErrNoChain = errors.New("chain not set")
)

// Status is where a request stands from artdrop's point of view.
type Status string

// StatusSubmitted is the only status artdrop assigns; the wallet owns the
// rest of the lifecycle.
const StatusSubmitted Status = "submitted"

// Request is one recorded claim request.
type Request struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Symbol    string    `json:"symbol"`
	Contract  string    `json:"contract"`
	Chain     string    `json:"chain"`
	TokenID   int64     `json:"token_id"`
	Quantity  int64     `json:"quantity"`
	Wallet    string    `json:"wallet"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRequest builds a claim request for item.
func NewRequest(item catalog.Item, wallet, chain string) (Request, error) {
	if !item.Claimable() {
		return Request{}, fmt.Errorf("%s: %w", item.Symbol, ErrNoContract)
	}
	wallet = strings.TrimSpace(wallet)
	if !util.IsAddress(wallet) {
		return Request{}, fmt.Errorf("%q: %w", wallet, ErrInvalidWallet)
	}
	chain = strings.TrimSpace(chain)
	if chain == "" {
		return Request{}, ErrNoChain
	}

	return Request{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Symbol:    item.Symbol,
		Contract:  item.EditionContract,
		Chain:     chain,
		TokenID:   TokenID,
		Quantity:  Quantity,
		Wallet:    wallet,
		Status:    StatusSubmitted,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Recorder persists claim requests.
type Recorder interface {
	Record(ctx context.Context, req Request) error
	// List returns requests newest first; limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Request, error)
}
