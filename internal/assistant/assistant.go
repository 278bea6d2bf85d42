// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/catalog"
	"github.com/jeranaias/artdrop/internal/logging"
	"github.com/jeranaias/artdrop/internal/model"
	"github.com/jeranaias/artdrop/internal/resolver"
)

// DefaultTimeout bounds a fallback call when none is configured.
const DefaultTimeout = 30 * time.Second

// Source says where a reply came from.
type Source string

const (
	SourceLocal       Source = "local"
	SourceFallback    Source = "fallback"
	SourceUnavailable Source = "unavailable"
	SourceError       Source = "error"
)

// Reply is one bot answer.
type Reply struct {
	Text   string          `json:"text"`
	Source Source          `json:"source"`
	Intent resolver.Intent `json:"intent,omitempty"`
}

// Catalog supplies the current catalog snapshot. *catalog.Source
// implements it.
type Catalog interface {
	Snapshot() *catalog.Store
}

// Assistant answers user messages.
type Assistant struct {
	catalog  Catalog
	fallback Fallback
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates an Assistant. fallback may be nil, in which case unmatched
// questions get UnavailableMessage.
func New(cat Catalog, fallback Fallback, logger *zap.Logger) *Assistant {
	return &Assistant{
		catalog:  cat,
		fallback: fallback,
		timeout:  DefaultTimeout,
		logger:   logging.OrNop(logger),
	}
}

// WithTimeout sets the fallback call deadline.
func (a *Assistant) WithTimeout(d time.Duration) *Assistant {
	if d > 0 {
		a.timeout = d
	}
	return a
}

// FallbackConfigured reports whether unmatched questions reach a model.
func (a *Assistant) FallbackConfigured() bool {
	return a.fallback != nil
}

// Reply answers input. history is the conversation before input. It always
// returns displayable text.
func (a *Assistant) Reply(ctx context.Context, input string, history []model.Message) Reply {
	if ans, ok := resolver.Resolve(input, a.catalog.Snapshot().Items()); ok {
		a.logger.Debug("answered locally", zap.Stringer("intent", ans.Intent))
		return Reply{Text: ans.Text, Source: SourceLocal, Intent: ans.Intent}
	}

	if a.fallback == nil {
		return Reply{Text: UnavailableMessage, Source: SourceUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.fallback.Ask(ctx, input, history)
	if err != nil {
		a.logger.Warn("fallback failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return Reply{Text: FailureMessage, Source: SourceError}
	}
	a.logger.Debug("answered by fallback", zap.Duration("elapsed", time.Since(start)))
	return Reply{Text: resolver.Sanitize(text), Source: SourceFallback}
}
