// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the claim ledger.
//
// The ledger is a single SQLite file (pure Go driver, no cgo) holding every
// claim request artdrop has handed to a wallet. Chat history is never
// persisted.
//
// # Usage
//
//	ledger, err := storage.OpenLedger(path)
//	if err != nil {
//	    return err
//	}
//	defer ledger.Close()
//
//	err = ledger.Record(ctx, req)
//	recent, err := ledger.List(ctx, 20)
//
// # Storage Location
//
// The ledger defaults to ~/.artdrop/claims.db.
package storage
