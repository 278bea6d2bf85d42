// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

const oneItem = `
[[items]]
id = "1"
name = "Eternal Bloom"
symbol = "ETB"
usd_price = 120
`

const twoItems = oneItem + `
[[items]]
id = "2"
name = "Jaguar Night"
symbol = "JGN"
usd_price = 250
`

func TestOpenSource_EmptyPathUsesDefault(t *testing.T) {
	src, err := OpenSource("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), src.Snapshot().Len())
	assert.Equal(t, "", src.Path())
	assert.NoError(t, src.Reload())
	assert.Equal(t, uint64(1), src.Version())
}

func TestSource_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(oneItem), 0644))

	src, err := OpenSource(path, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, src.Snapshot().Len())

	require.NoError(t, os.WriteFile(path, []byte(twoItems), 0644))
	require.NoError(t, src.Reload())
	assert.Equal(t, 2, src.Snapshot().Len())
	assert.Equal(t, uint64(2), src.Version())

	require.NoError(t, os.WriteFile(path, []byte("[[items]]\nid = \"1\"\n"), 0644))
	assert.Error(t, src.Reload())
	assert.Equal(t, 2, src.Snapshot().Len())
	assert.Equal(t, uint64(2), src.Version())
}

func TestSource_WatchReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(oneItem), 0644))

	src, err := OpenSource(path, zap.NewNop())
	require.NoError(t, err)
	src.WithDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()

	// The watcher may not be registered yet, so keep writing until a
	// reload is observed.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(twoItems), 0644)
		return src.Snapshot().Len() == 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestSource_StaticWatchWaitsForContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := NewStaticSource(Default())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, src.Watch(ctx))
}
