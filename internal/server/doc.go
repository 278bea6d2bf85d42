// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the storefront HTTP API.
//
// It exposes the catalog, chat sessions backed by the assistant, and the
// claim ledger as JSON endpoints for a web frontend.
//
// # Endpoints
//
//   - GET    /health                      - Health check
//   - GET    /stats                       - Reply counters
//   - GET    /v1/catalog                  - All items
//   - GET    /v1/catalog/{symbol}         - One item
//   - POST   /v1/sessions                 - Create an open session
//   - GET    /v1/sessions/{id}            - Session state and history
//   - POST   /v1/sessions/{id}/toggle     - Open or close
//   - DELETE /v1/sessions/{id}            - Forget a session
//   - POST   /v1/sessions/{id}/messages   - Submit text and wait for the reply
//   - GET    /v1/sessions/{id}/transcript - Export as md, json or html
//   - POST   /v1/claims                   - Record a claim request
//   - GET    /v1/claims                   - List claim requests
//
// # Middleware
//
// Requests pass through panic recovery, security headers, CORS, request
// logging and a per-IP token bucket, in that order.
//
// # Usage
//
//	srv := server.NewServer(cfg.Server, source, asst, logger).
//		WithLedger(ledger, cfg.Chain)
//	if err := srv.Run(ctx); err != nil {
//		return err
//	}
package server
