// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/logging"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Registry holds the sessions of HTTP clients by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	greeting    string
	idleTimeout time.Duration
	logger      *zap.Logger
}

// NewRegistry creates an empty registry. Sessions idle for longer than
// idleTimeout are removed by Run.
func NewRegistry(greeting string, idleTimeout time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		greeting:    greeting,
		idleTimeout: idleTimeout,
		logger:      logging.OrNop(logger),
	}
}

// Create registers a new session and opens it.
func (r *Registry) Create() *Session {
	s := New(r.greeting)
	s.Open()

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.logger.Debug("session created", zap.String("session", s.ID()))
	return s
}

// Get looks up a session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return s, nil
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	s.Close()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now minus the idle timeout. A
// session awaiting a reply is never removed. It returns how many were
// removed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.idleSince(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval(r.idleTimeout))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				r.logger.Info("expired idle sessions", zap.Int("removed", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}

// sweepInterval is half the idle timeout, kept between 10ms and a minute.
func sweepInterval(idle time.Duration) time.Duration {
	d := idle / 2
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	if d > time.Minute {
		d = time.Minute
	}
	return d
}
