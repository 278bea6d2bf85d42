// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/logging"
)

// DefaultDebounce is how long Watch waits after the last file event before
// reloading. Editors tend to write a file in several steps.
const DefaultDebounce = 250 * time.Millisecond

// =============================================================================
// SOURCE
// =============================================================================

// Source hands out the current catalog snapshot. Snapshots are swapped
// atomically, so readers never see a half-loaded catalog.
type Source struct {
	path     string
	current  atomic.Pointer[Store]
	version  atomic.Uint64
	debounce time.Duration
	logger   *zap.Logger
}

// NewStaticSource wraps a fixed store. Watch on it only waits for ctx.
func NewStaticSource(store *Store) *Source {
	s := &Source{debounce: DefaultDebounce, logger: zap.NewNop()}
	s.current.Store(store)
	s.version.Store(1)
	return s
}

// OpenSource loads path, or the built-in catalog when path is empty.
func OpenSource(path string, logger *zap.Logger) (*Source, error) {
	if path == "" {
		s := NewStaticSource(Default())
		s.logger = logging.OrNop(logger)
		return s, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}
	store, err := LoadFile(abs)
	if err != nil {
		return nil, err
	}

	s := &Source{
		path:     abs,
		debounce: DefaultDebounce,
		logger:   logging.OrNop(logger).With(zap.String("catalog", abs)),
	}
	s.current.Store(store)
	s.version.Store(1)
	return s, nil
}

// WithDebounce sets the reload debounce.
func (s *Source) WithDebounce(d time.Duration) *Source {
	s.debounce = d
	return s
}

// Snapshot returns the current store.
func (s *Source) Snapshot() *Store { return s.current.Load() }

// Version increases by one on every successful reload.
func (s *Source) Version() uint64 { return s.version.Load() }

// Path returns the watched file, or "" for a static source.
func (s *Source) Path() string { return s.path }

// Reload re-reads the file. On failure the previous snapshot stays.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	store, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.current.Store(store)
	v := s.version.Add(1)
	s.logger.Info("catalog reloaded", zap.Int("items", store.Len()), zap.Uint64("version", v))
	return nil
}

// =============================================================================
// WATCH
// =============================================================================

// Watch reloads the catalog whenever its file is written or replaced, until
// ctx is cancelled. The parent directory is watched rather than the file so
// that atomic rename-into-place saves are seen.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}
	s.logger.Debug("watching catalog")

	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(s.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watcher error", zap.Error(err))

		case <-timer.C:
			if err := s.Reload(); err != nil {
				s.logger.Warn("catalog reload failed, keeping previous snapshot", zap.Error(err))
			}
		}
	}
}
