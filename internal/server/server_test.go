// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/export"
	"github.com/jeranaias/artdrop/internal/model"
	"github.com/jeranaias/artdrop/internal/session"
)

const testWallet = "0x1234567890abcdef1234567890abcdef12345678"

// =============================================================================
// FAKES
// =============================================================================

type memRecorder struct {
	mu   sync.Mutex
	reqs []claims.Request
}

func (m *memRecorder) Record(ctx context.Context, req claims.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return nil
}

func (m *memRecorder) List(ctx context.Context, limit int) ([]claims.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]claims.Request, 0, len(m.reqs))
	for i := len(m.reqs) - 1; i >= 0; i-- {
		out = append(out, m.reqs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memRecorder) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reqs), nil
}

// gateFallback blocks every Ask until release is closed.
type gateFallback struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateFallback) Ask(ctx context.Context, input string, history []model.Message) (string, error) {
	g.entered <- struct{}{}
	<-g.release
	return "from the model", nil
}

func testConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.RateLimit = 1000
	cfg.RateBurst = 1000
	return cfg
}

func newTestServer(t *testing.T, fb assistant.Fallback) (*Server, *memRecorder) {
	t.Helper()
	src := catalog.NewStaticSource(catalog.Default())
	asst := assistant.New(src, fb, nil)
	rec := &memRecorder{}
	s := NewServer(testConfig(), src, asst, nil).
		WithLedger(rec, config.ChainConfig{Name: "polygon", Wallet: testWallet})
	return s, rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func createSession(t *testing.T, h http.Handler) session.Status {
	t.Helper()
	w := do(t, h, "POST", "/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d, want %d", w.Code, http.StatusCreated)
	}
	var st session.Status
	decode(t, w, &st)
	return st
}

// =============================================================================
// STATS TESTS
// =============================================================================

func TestStats_RecordReply(t *testing.T) {
	stats := NewStats()
	stats.RecordReply(assistant.SourceLocal)
	stats.RecordReply(assistant.SourceLocal)
	stats.RecordReply(assistant.SourceFallback)
	stats.RecordReply(assistant.SourceUnavailable)
	stats.RecordReply(assistant.SourceError)
	stats.RecordClaim()

	snap := stats.Snapshot()
	if snap.TotalReplies != 5 {
		t.Errorf("TotalReplies = %d, want 5", snap.TotalReplies)
	}
	if snap.LocalReplies != 2 {
		t.Errorf("LocalReplies = %d, want 2", snap.LocalReplies)
	}
	if snap.FallbackReplies != 1 || snap.UnavailableReplies != 1 || snap.FailedReplies != 1 {
		t.Errorf("unexpected counters: %+v", snap)
	}
	if snap.ClaimsRecorded != 1 {
		t.Errorf("ClaimsRecorded = %d, want 1", snap.ClaimsRecorded)
	}
}

func TestHandleStats_CountsLedger(t *testing.T) {
	s, rec := newTestServer(t, nil)
	h := s.Handler()
	rec.reqs = append(rec.reqs, claims.Request{ID: "earlier"})
	createSession(t, h)

	w := do(t, h, "GET", "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp StatsResponse
	decode(t, w, &resp)
	if resp.ActiveSessions != 1 {
		t.Errorf("ActiveSessions = %d, want 1", resp.ActiveSessions)
	}
	if resp.LedgerClaims == nil || *resp.LedgerClaims != 1 {
		t.Errorf("LedgerClaims = %v, want 1", resp.LedgerClaims)
	}
	if resp.ClaimsRecorded != 0 {
		t.Errorf("ClaimsRecorded = %d, want 0 for this process", resp.ClaimsRecorded)
	}
}

func TestHandleStats_NoLedger(t *testing.T) {
	src := catalog.NewStaticSource(catalog.Default())
	s := NewServer(testConfig(), src, assistant.New(src, nil, nil), nil)

	w := do(t, s.Handler(), "GET", "/stats", "")
	if strings.Contains(w.Body.String(), "ledger_claims") {
		t.Errorf("body = %s, want no ledger_claims without a ledger", w.Body.String())
	}
}

// =============================================================================
// HEALTH AND CATALOG TESTS
// =============================================================================

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := do(t, s.Handler(), "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	decode(t, w, &resp)
	if resp.Version != Version {
		t.Errorf("Version = %q, want %q", resp.Version, Version)
	}
	if resp.CatalogItems != catalog.Default().Len() {
		t.Errorf("CatalogItems = %d, want %d", resp.CatalogItems, catalog.Default().Len())
	}
	if resp.FallbackConfigured {
		t.Error("FallbackConfigured should be false without a fallback")
	}
	if !resp.LedgerConfigured {
		t.Error("LedgerConfigured should be true")
	}
}

func TestHandleCatalog(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := do(t, s.Handler(), "GET", "/v1/catalog", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp CatalogResponse
	decode(t, w, &resp)
	want := catalog.Default().Items()
	if len(resp.Items) != len(want) {
		t.Fatalf("len(Items) = %d, want %d", len(resp.Items), len(want))
	}
	for i := range want {
		if resp.Items[i].Symbol != want[i].Symbol {
			t.Errorf("Items[%d].Symbol = %q, want %q", i, resp.Items[i].Symbol, want[i].Symbol)
		}
	}
}

func TestHandleCatalogItem(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	w := do(t, h, "GET", "/v1/catalog/etb", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	var item catalog.Item
	decode(t, w, &item)
	if item.Name != "Eternal Bloom" {
		t.Errorf("Name = %q, want Eternal Bloom", item.Name)
	}

	w = do(t, h, "GET", "/v1/catalog/NOPE", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown symbol: Status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestCreateSession_OpensWithGreeting(t *testing.T) {
	s, _ := newTestServer(t, nil)

	st := createSession(t, s.Handler())
	if st.State != session.StateOpen {
		t.Errorf("State = %v, want open", st.State)
	}
	if len(st.Messages) != 1 || st.Messages[0].Text != session.DefaultGreeting {
		t.Errorf("Messages = %+v, want the greeting only", st.Messages)
	}
}

func TestSendMessage_LocalAnswer(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{"text":"price of Eternal Bloom"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp MessageResponse
	decode(t, w, &resp)
	if !resp.Accepted {
		t.Fatal("message should be accepted")
	}
	if resp.Reply == nil || resp.Reply.Source != assistant.SourceLocal {
		t.Fatalf("Reply = %+v, want a local reply", resp.Reply)
	}
	if !strings.Contains(resp.Reply.Text, "$120 USD") {
		t.Errorf("Reply.Text = %q, want the USD price", resp.Reply.Text)
	}
	if len(resp.Messages) != 3 {
		t.Errorf("len(Messages) = %d, want 3 (greeting, question, answer)", len(resp.Messages))
	}
	if got := s.Stats().Snapshot().LocalReplies; got != 1 {
		t.Errorf("LocalReplies = %d, want 1", got)
	}
}

func TestSendMessage_NoFallbackGivesUnavailable(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{"text":"who painted the ceiling?"}`)
	var resp MessageResponse
	decode(t, w, &resp)
	if resp.Reply == nil || resp.Reply.Text != assistant.UnavailableMessage {
		t.Errorf("Reply = %+v, want the unavailable message", resp.Reply)
	}
}

func TestSendMessage_BlankNotAccepted(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{"text":"   "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp MessageResponse
	decode(t, w, &resp)
	if resp.Accepted {
		t.Error("blank message should not be accepted")
	}
	if len(resp.Messages) != 1 {
		t.Errorf("len(Messages) = %d, want 1", len(resp.Messages))
	}
}

func TestSendMessage_ClosedSessionConflict(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/toggle", "")
	var toggled session.Status
	decode(t, w, &toggled)
	if toggled.State != session.StateClosed {
		t.Fatalf("State = %v, want closed", toggled.State)
	}
	if len(toggled.Messages) != 0 {
		t.Errorf("closed session should have no messages, got %d", len(toggled.Messages))
	}

	w = do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{"text":"hello"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestSendMessage_PendingReplyConflict(t *testing.T) {
	gate := &gateFallback{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s, _ := newTestServer(t, gate)
	h := s.Handler()
	st := createSession(t, h)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{"text":"who painted the ceiling?"}`)
	}()

	select {
	case <-gate.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("fallback was never called")
	}

	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{"text":"hello again"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("second submit: Status = %d, want %d", w.Code, http.StatusConflict)
	}

	close(gate.release)
	w = <-first
	if w.Code != http.StatusOK {
		t.Fatalf("first submit: Status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp MessageResponse
	decode(t, w, &resp)
	if resp.Reply == nil || resp.Reply.Text != "from the model" {
		t.Errorf("Reply = %+v, want the model answer", resp.Reply)
	}
	if len(resp.Messages) != 3 {
		t.Errorf("len(Messages) = %d, want 3", len(resp.Messages))
	}
}

func TestSendMessage_TooLong(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	body := `{"text":"` + strings.Repeat("a", MaxMessageRunes+1) + `"}`
	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestSendMessage_BodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	body := `{"text":"` + strings.Repeat("a", MaxRequestBodySize) + `"}`
	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestSendMessage_InvalidJSON(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	w := do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{invalid json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSession_UnknownAndDelete(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	if w := do(t, h, "GET", "/v1/sessions/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET missing: Status = %d, want %d", w.Code, http.StatusNotFound)
	}

	st := createSession(t, h)
	if w := do(t, h, "GET", "/v1/sessions/"+st.ID, ""); w.Code != http.StatusOK {
		t.Errorf("GET: Status = %d, want %d", w.Code, http.StatusOK)
	}
	if w := do(t, h, "DELETE", "/v1/sessions/"+st.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("DELETE: Status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w := do(t, h, "GET", "/v1/sessions/"+st.ID, ""); w.Code != http.StatusNotFound {
		t.Errorf("GET after delete: Status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if s.Sessions().Len() != 0 {
		t.Errorf("Sessions().Len() = %d, want 0", s.Sessions().Len())
	}
}

// =============================================================================
// CLAIM TESTS
// =============================================================================

func TestCreateClaim(t *testing.T) {
	s, rec := newTestServer(t, nil)
	h := s.Handler()

	w := do(t, h, "POST", "/v1/claims", `{"symbol":"ETB"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	var req claims.Request
	decode(t, w, &req)
	if req.Wallet != testWallet {
		t.Errorf("Wallet = %q, want the configured wallet", req.Wallet)
	}
	if req.Chain != "polygon" || req.TokenID != 0 || req.Quantity != 1 {
		t.Errorf("unexpected request: %+v", req)
	}
	if len(rec.reqs) != 1 {
		t.Errorf("recorded %d claims, want 1", len(rec.reqs))
	}

	w = do(t, h, "GET", "/v1/claims?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: Status = %d, want %d", w.Code, http.StatusOK)
	}
	var list struct {
		Claims []claims.Request `json:"claims"`
	}
	decode(t, w, &list)
	if len(list.Claims) != 1 || list.Claims[0].ID != req.ID {
		t.Errorf("Claims = %+v, want the recorded request", list.Claims)
	}
}

func TestCreateClaim_Errors(t *testing.T) {
	s, rec := newTestServer(t, nil)
	h := s.Handler()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown symbol", `{"symbol":"NOPE"}`, http.StatusNotFound},
		{"no contract", `{"symbol":"MACQ"}`, http.StatusUnprocessableEntity},
		{"bad wallet", `{"symbol":"ETB","wallet":"0xabc"}`, http.StatusBadRequest},
		{"unknown field", `{"symbol":"ETB","token_id":3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/v1/claims", tt.body)
			if w.Code != tt.code {
				t.Errorf("Status = %d, want %d", w.Code, tt.code)
			}
		})
	}
	if len(rec.reqs) != 0 {
		t.Errorf("recorded %d claims, want 0", len(rec.reqs))
	}

	if w := do(t, h, "GET", "/v1/claims?limit=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative limit: Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestClaims_NoLedger(t *testing.T) {
	src := catalog.NewStaticSource(catalog.Default())
	s := NewServer(testConfig(), src, assistant.New(src, nil, nil), nil)

	if w := do(t, s.Handler(), "POST", "/v1/claims", `{"symbol":"ETB"}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_Formats(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)
	do(t, h, "POST", "/v1/sessions/"+st.ID+"/messages", `{"text":"price of Eternal Bloom"}`)

	w := do(t, h, "GET", "/v1/sessions/"+st.ID+"/transcript", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}
	if !strings.Contains(w.Body.String(), "# price of Eternal Bloom") {
		t.Errorf("markdown transcript missing title:\n%s", w.Body.String())
	}

	w = do(t, h, "GET", "/v1/sessions/"+st.ID+"/transcript?format=json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("json: Status = %d, want %d", w.Code, http.StatusOK)
	}
	var tr export.Transcript
	decode(t, w, &tr)
	if tr.SessionID != st.ID || len(tr.Messages) != 3 {
		t.Errorf("transcript = %s with %d messages, want %s with 3", tr.SessionID, len(tr.Messages), st.ID)
	}

	w = do(t, h, "GET", "/v1/sessions/"+st.ID+"/transcript?format=html", "")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("html: Content-Type = %q", ct)
	}
}

func TestTranscript_Errors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	st := createSession(t, h)

	if w := do(t, h, "GET", "/v1/sessions/"+st.ID+"/transcript?format=pdf", ""); w.Code != http.StatusBadRequest {
		t.Errorf("unknown format: Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if w := do(t, h, "GET", "/v1/sessions/nope/transcript", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown session: Status = %d, want %d", w.Code, http.StatusNotFound)
	}

	do(t, h, "POST", "/v1/sessions/"+st.ID+"/toggle", "")
	if w := do(t, h, "GET", "/v1/sessions/"+st.ID+"/transcript", ""); w.Code != http.StatusConflict {
		t.Errorf("closed session: Status = %d, want %d", w.Code, http.StatusConflict)
	}
}
