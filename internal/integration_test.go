// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/server"
	"github.com/jeranaias/artdrop/internal/session"
	"github.com/jeranaias/artdrop/internal/storage"
)

const (
	wallet   = "0x1234567890abcdef1234567890abcdef12345678"
	contract = "0x2222222222222222222222222222222222222222"
)

const firstCatalog = `
[[items]]
id = "1"
name = "Salt Marsh"
symbol = "SLT"
description = "Tidal flats at dusk."
usd_price = 90
edition_contract = "` + contract + `"
`

const secondCatalog = firstCatalog + `
[[items]]
id = "2"
name = "Copper Reef"
symbol = "CPR"
description = "A reef under green water."
usd_price = 310
`

type stack struct {
	srv    *httptest.Server
	src    *catalog.Source
	ledger *storage.Ledger
	dir    string
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.toml")
	require.NoError(t, os.WriteFile(catPath, []byte(firstCatalog), 0644))

	logger := zap.NewNop()
	src, err := catalog.OpenSource(catPath, logger)
	require.NoError(t, err)

	ledger, err := storage.OpenLedger(filepath.Join(dir, "claims.db"))
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.RateLimit = 1000
	cfg.RateBurst = 1000

	asst := assistant.New(src, nil, logger)
	s := server.NewServer(cfg, src, asst, logger).
		WithLedger(ledger, config.ChainConfig{Name: "polygon", Wallet: wallet})

	st := &stack{srv: httptest.NewServer(s.Handler()), src: src, ledger: ledger, dir: dir}
	t.Cleanup(func() {
		st.srv.Close()
		st.ledger.Close()
	})
	return st
}

func (s *stack) call(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStorefrontFlow(t *testing.T) {
	// Registered first so it runs after the stack is torn down.
	opts := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, opts) })

	st := newStack(t)

	var sess session.Status
	require.Equal(t, http.StatusCreated, st.call(t, "POST", "/v1/sessions", "", &sess))
	assert.Equal(t, session.StateOpen, sess.State)

	var msg server.MessageResponse
	code := st.call(t, "POST", "/v1/sessions/"+sess.ID+"/messages", `{"text":"how much is salt marsh?"}`, &msg)
	require.Equal(t, http.StatusOK, code)
	require.True(t, msg.Accepted)
	require.NotNil(t, msg.Reply)
	assert.Equal(t, assistant.SourceLocal, msg.Reply.Source)
	assert.Equal(t, "Salt Marsh (SLT) costs $90 USD.", msg.Reply.Text)
	assert.Len(t, msg.Messages, 3)

	// Questions the catalog cannot answer fall through to the unconfigured
	// fallback.
	code = st.call(t, "POST", "/v1/sessions/"+sess.ID+"/messages", `{"text":"who painted it?"}`, &msg)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, assistant.UnavailableMessage, msg.Reply.Text)

	var req claims.Request
	require.Equal(t, http.StatusAccepted, st.call(t, "POST", "/v1/claims", `{"symbol":"slt"}`, &req))
	assert.Equal(t, "SLT", req.Symbol)
	assert.Equal(t, contract, req.Contract)
	assert.Equal(t, wallet, req.Wallet)

	stored, err := st.ledger.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, req.ID, stored[0].ID)

	var stats server.StatsResponse
	require.Equal(t, http.StatusOK, st.call(t, "GET", "/stats", "", &stats))
	require.NotNil(t, stats.LedgerClaims)
	assert.Equal(t, 1, *stats.LedgerClaims)

	// A reloaded catalog is visible to the next message without a restart.
	require.NoError(t, os.WriteFile(filepath.Join(st.dir, "catalog.toml"), []byte(secondCatalog), 0644))
	require.NoError(t, st.src.Reload())

	code = st.call(t, "POST", "/v1/sessions/"+sess.ID+"/messages", `{"text":"price of copper reef"}`, &msg)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Copper Reef (CPR) costs $310 USD.", msg.Reply.Text)

	// CPR has no edition contract.
	assert.Equal(t, http.StatusUnprocessableEntity, st.call(t, "POST", "/v1/claims", `{"symbol":"CPR"}`, nil))

	var toggled session.Status
	require.Equal(t, http.StatusOK, st.call(t, "POST", "/v1/sessions/"+sess.ID+"/toggle", "", &toggled))
	assert.Equal(t, session.StateClosed, toggled.State)
	assert.Equal(t, http.StatusConflict, st.call(t, "POST", "/v1/sessions/"+sess.ID+"/messages", `{"text":"hello"}`, nil))
}

func TestLedgerSurvivesRestart(t *testing.T) {
	st := newStack(t)

	var req claims.Request
	require.Equal(t, http.StatusAccepted, st.call(t, "POST", "/v1/claims", `{"symbol":"SLT"}`, &req))
	st.srv.Close()
	require.NoError(t, st.ledger.Close())

	reopened, err := storage.OpenLedger(filepath.Join(st.dir, "claims.db"))
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
