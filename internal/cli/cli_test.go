// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/export"
	"github.com/jeranaias/artdrop/internal/server"
)

const testWallet = "0x1234567890abcdef1234567890abcdef12345678"

var envKeys = []string{
	"ARTDROP_API_KEY", "GOOGLE_AI_API_KEY", "VITE_GOOGLE_AI_API_KEY",
	"ARTDROP_PROVIDER", "ARTDROP_MODEL", "ARTDROP_CATALOG", "ARTDROP_WALLET",
	"ARTDROP_PORT", "ARTDROP_LEDGER", "ARTDROP_LOG_LEVEL",
}

// isolate points HOME at a temp dir, clears ARTDROP_* variables and writes
// a config file that keeps the ledger inside the temp dir.
func isolate(t *testing.T) (home, configPath string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range envKeys {
		t.Setenv(k, "")
	}

	configPath = filepath.Join(home, "artdrop.toml")
	body := fmt.Sprintf(`[chain]
name = "polygon"
wallet = %q

[storage]
ledger_path = %q

[log]
level = "error"
`, testWallet, filepath.Join(home, "claims.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0600))
	return home, configPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// =============================================================================
// VERSION AND CONFIG
// =============================================================================

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "artdrop "+Version)
	assert.Contains(t, out, runtime.Version())
}

func TestConfigInit(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, "new", "config.toml")

	out, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server.Port, cfg.Server.Port)

	_, err = run(t, "--config", path, "config", "init")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigInit_JSON(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, "config.json")

	_, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderGemini, cfg.Assistant.Provider)
}

func TestConfigShow_MasksKey(t *testing.T) {
	_, cfgPath := isolate(t)
	t.Setenv("ARTDROP_API_KEY", "abcd1234efgh5678")

	out, err := run(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "abcd...5678")
	assert.NotContains(t, out, "abcd1234efgh5678")
}

func TestInvalidConfigExitCode(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chain]\nwallet = \"not-a-wallet\"\n"), 0600))

	_, err := run(t, "--config", path, "catalog")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

// =============================================================================
// ASK AND CATALOG
// =============================================================================

func TestAsk_LocalPrice(t *testing.T) {
	_, cfgPath := isolate(t)
	out, err := run(t, "--config", cfgPath, "ask", "how", "much", "is", "Jaguar", "Night?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Jaguar Night (JGN) costs $250 USD."), out)
	assert.Contains(t, out, "449 POL")
}

func TestAsk_JSON(t *testing.T) {
	_, cfgPath := isolate(t)
	out, err := run(t, "--config", cfgPath, "ask", "--json", "tell me about ETB")
	require.NoError(t, err)

	var reply assistant.Reply
	require.NoError(t, json.Unmarshal([]byte(out), &reply))
	assert.Equal(t, assistant.SourceLocal, reply.Source)
	assert.Equal(t, "description", reply.Intent.String())
	assert.True(t, strings.HasPrefix(reply.Text, "Eternal Bloom (ETB): "))
}

func TestAsk_NoKeyGivesUnavailable(t *testing.T) {
	_, cfgPath := isolate(t)
	out, err := run(t, "--config", cfgPath, "ask", "--json", "what is the weather like in Tulum?")
	require.NoError(t, err)

	var reply assistant.Reply
	require.NoError(t, json.Unmarshal([]byte(out), &reply))
	assert.Equal(t, assistant.SourceUnavailable, reply.Source)
	assert.Equal(t, assistant.UnavailableMessage, reply.Text)
}

func TestAsk_RequiresQuestion(t *testing.T) {
	_, cfgPath := isolate(t)
	_, err := run(t, "--config", cfgPath, "ask")
	require.Error(t, err)
}

func TestCatalog_Table(t *testing.T) {
	_, cfgPath := isolate(t)
	out, err := run(t, "--config", cfgPath, "catalog")
	require.NoError(t, err)
	for _, it := range catalog.Default().Items() {
		assert.Contains(t, out, it.Symbol)
	}
	assert.Contains(t, out, "Jaguar Night")
	assert.Contains(t, out, "0x1b2c...3d4e")
}

func TestCatalog_JSONFromFlag(t *testing.T) {
	home, cfgPath := isolate(t)
	catPath := filepath.Join(home, "catalog.yaml")
	require.NoError(t, os.WriteFile(catPath, []byte(`items:
  - id: one
    name: Solo Piece
    symbol: SOLO
    description: The only one.
    usd_price: "10"
`), 0600))

	out, err := run(t, "--config", cfgPath, "--catalog", catPath, "catalog", "--json")
	require.NoError(t, err)

	var items []catalog.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "SOLO", items[0].Symbol)
}

// =============================================================================
// CLAIMS
// =============================================================================

func TestClaimAndList(t *testing.T) {
	_, cfgPath := isolate(t)

	out, err := run(t, "--config", cfgPath, "claim", "jgn")
	require.NoError(t, err)
	assert.Contains(t, out, "JGN")
	assert.Contains(t, out, "0x1234...5678")

	out, err = run(t, "--config", cfgPath, "claim", "ETB", "--json")
	require.NoError(t, err)
	var req claims.Request
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, "ETB", req.Symbol)
	assert.Equal(t, claims.StatusSubmitted, req.Status)

	out, err = run(t, "--config", cfgPath, "claims")
	require.NoError(t, err)
	assert.Contains(t, out, "JGN")
	assert.Contains(t, out, "ETB")

	out, err = run(t, "--config", cfgPath, "claims", "--limit", "1", "--json")
	require.NoError(t, err)
	var listed []claims.Request
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "ETB", listed[0].Symbol)
}

func TestClaims_Empty(t *testing.T) {
	_, cfgPath := isolate(t)
	out, err := run(t, "--config", cfgPath, "claims")
	require.NoError(t, err)
	assert.Equal(t, "No claims recorded.\n", out)

	out, err = run(t, "--config", cfgPath, "claims", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestClaim_Errors(t *testing.T) {
	_, cfgPath := isolate(t)

	_, err := run(t, "--config", cfgPath, "claim", "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, ExitNotFoundError, ExitCode(err))

	_, err = run(t, "--config", cfgPath, "claim", "JGN", "--wallet", "not-a-wallet")
	require.Error(t, err)
	assert.ErrorIs(t, err, claims.ErrInvalidWallet)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, "--config", cfgPath, "claim", "MACQ")
	require.Error(t, err)
	assert.ErrorIs(t, err, claims.ErrNoContract)

	_, err = run(t, "--config", cfgPath, "claims", "--limit", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

// =============================================================================
// CHAT
// =============================================================================

// scriptedInput replays lines, then reports EOF.
type scriptedInput struct {
	lines   []string
	history []string
}

func (s *scriptedInput) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) AppendHistory(item string) { s.history = append(s.history, item) }

func testAssistant() *assistant.Assistant {
	return assistant.New(catalog.NewStaticSource(catalog.Default()), nil, zap.NewNop())
}

func TestRunChat(t *testing.T) {
	in := &scriptedInput{lines: []string{
		"how much is Jaguar Night?",
		"   ",
		"/reset",
		"/help",
		"/quit",
		"never read",
	}}
	var out bytes.Buffer

	err := runChat(context.Background(), in, &out, testAssistant(), chatOptions{greeting: "Hola!"})
	require.NoError(t, err)

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, "Hola!"), "greeting printed at start and after /reset")
	assert.Contains(t, text, "Jaguar Night (JGN) costs $250 USD.")
	assert.Contains(t, text, "/reset")
	assert.NotContains(t, text, "never read")
	assert.Equal(t, []string{"how much is Jaguar Night?", "/reset", "/help", "/quit"}, in.history)
}

func TestRunChat_EOFEnds(t *testing.T) {
	in := &scriptedInput{lines: []string{"what is the weather like?"}}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), in, &out, testAssistant(), chatOptions{}))
	assert.Contains(t, out.String(), assistant.UnavailableMessage)
}

func TestRunChat_Export(t *testing.T) {
	dir := t.TempDir()
	in := &scriptedInput{lines: []string{
		"how much is Jaguar Night?",
		"/export json",
		"/export pdf",
	}}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), in, &out, testAssistant(), chatOptions{exportDir: dir}))
	assert.Contains(t, out.String(), "Saved ")
	assert.Contains(t, out.String(), "unknown export format")

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var tr export.Transcript
	require.NoError(t, json.Unmarshal(data, &tr))
	require.Len(t, tr.Messages, 3)
	assert.Equal(t, "how much is Jaguar Night?", tr.Title)
}

type failingInput struct{}

func (failingInput) Prompt(string) (string, error) { return "", errors.New("tty gone") }
func (failingInput) AppendHistory(string)          {}

func TestRunChat_ReadError(t *testing.T) {
	err := runChat(context.Background(), failingInput{}, io.Discard, testAssistant(), chatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tty gone")
}

// =============================================================================
// SERVE
// =============================================================================

type fakeWatcher struct {
	err error
}

func (f fakeWatcher) Watch(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func testServer() *server.Server {
	cfg := config.Default().Server
	cfg.Port = 0
	src := catalog.NewStaticSource(catalog.Default())
	return server.NewServer(cfg, src, testAssistant(), zap.NewNop())
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, testServer(), fakeWatcher{}, true, zap.NewNop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not stop")
	}
}

func TestRunServe_WatcherFailureStopsServer(t *testing.T) {
	boom := errors.New("watch failed")
	done := make(chan error, 1)
	go func() {
		done <- runServe(context.Background(), testServer(), fakeWatcher{err: boom}, true, zap.NewNop())
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not stop")
	}
}

func TestServe_InvalidPort(t *testing.T) {
	_, cfgPath := isolate(t)
	_, err := run(t, "--config", cfgPath, "serve", "--port", "70000")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("x"), ExitGeneralError},
		{"explicit", withExitCode(ExitConfigError, errors.New("x")), ExitConfigError},
		{"not found", fmt.Errorf("lookup: %w", catalog.ErrNotFound), ExitNotFoundError},
		{"wallet", fmt.Errorf("claim: %w", claims.ErrInvalidWallet), ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
	assert.Nil(t, withExitCode(ExitUsageError, nil))
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	isolate(t)
	_, err := run(t, "catalog", "--nope")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}
