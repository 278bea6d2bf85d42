// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/util"
)

// MemoryPath opens a private in-memory ledger.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS claims (
	id         TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	contract   TEXT NOT NULL,
	chain      TEXT NOT NULL,
	token_id   INTEGER NOT NULL,
	quantity   INTEGER NOT NULL,
	wallet     TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_claims_created ON claims(created_at);
`

// =============================================================================
// LEDGER
// =============================================================================

// Ledger records claim requests in SQLite. It implements claims.Recorder.
type Ledger struct {
	db *sql.DB
}

var _ claims.Recorder = (*Ledger)(nil)

// OpenLedger opens or creates the ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite only supports one writer at a time, and each :memory:
	// connection would be a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts req.
func (l *Ledger) Record(ctx context.Context, req claims.Request) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO claims (id, item_id, symbol, contract, chain, token_id, quantity, wallet, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.ItemID, req.Symbol, req.Contract, req.Chain,
		req.TokenID, req.Quantity, req.Wallet, string(req.Status), req.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record claim %s: %w", req.ID, err)
	}
	return nil
}

// List returns recorded requests, newest first. limit <= 0 returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]claims.Request, error) {
	query := `SELECT id, item_id, symbol, contract, chain, token_id, quantity, wallet, status, created_at
		FROM claims ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var out []claims.Request
	for rows.Next() {
		var (
			req     claims.Request
			status  string
			created int64
		)
		if err := rows.Scan(&req.ID, &req.ItemID, &req.Symbol, &req.Contract, &req.Chain,
			&req.TokenID, &req.Quantity, &req.Wallet, &status, &created); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		req.Status = claims.Status(status)
		req.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, req)
	}
	return out, rows.Err()
}

// Count returns the number of recorded requests.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM claims").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return n, nil
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatClaimList formats requests as a plain-text table.
func FormatClaimList(reqs []claims.Request) string {
	if len(reqs) == 0 {
		return "No claims recorded."
	}

	var sb strings.Builder
	sb.WriteString("Claims:\n")
	sb.WriteString("--------------------------------------------------------------------------\n")
	sb.WriteString(util.PadWidth("Created", 17) + " " + util.PadWidth("Symbol", 8) + " " +
		util.PadWidth("Chain", 10) + " " + util.PadWidth("Wallet", 14) + " Contract\n")
	sb.WriteString("--------------------------------------------------------------------------\n")

	for _, r := range reqs {
		sb.WriteString(util.PadWidth(r.CreatedAt.Local().Format("2006-01-02 15:04"), 17) + " " +
			util.PadWidth(util.TruncateWidth(r.Symbol, 8), 8) + " " +
			util.PadWidth(util.TruncateWidth(r.Chain, 10), 10) + " " +
			util.PadWidth(util.ShortAddress(r.Wallet), 14) + " " +
			util.ShortAddress(r.Contract) + "\n")
	}
	return sb.String()
}
