// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/logging"
	"github.com/jeranaias/artdrop/internal/model"
)

var (
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrUnsupportedProvider is returned for an unknown provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// Fallback answers questions the local rules could not.
type Fallback interface {
	// Ask sends the persona preamble, history and input, and returns the
	// model's text. It does not retry.
	Ask(ctx context.Context, input string, history []model.Message) (string, error)
}

// Settings are the generation parameters sent identically on every call.
type Settings struct {
	Model           string
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32

	// HistoryTurns limits how many prior messages are sent.
	HistoryTurns int
}

// SettingsFromConfig converts the assistant config section.
func SettingsFromConfig(cfg config.AssistantConfig) Settings {
	return Settings{
		Model:           cfg.ModelName(),
		Temperature:     float32(cfg.Temperature),
		TopK:            float32(cfg.TopK),
		TopP:            float32(cfg.TopP),
		MaxOutputTokens: int32(cfg.MaxOutputTokens),
		HistoryTurns:    cfg.HistoryTurns,
	}
}

// NewFallback builds the configured provider. It returns (nil, nil) when no
// API key is set; a nil Fallback means the assistant is unconfigured.
func NewFallback(ctx context.Context, cfg config.AssistantConfig, logger *zap.Logger) (Fallback, error) {
	logger = logging.OrNop(logger)
	if !cfg.Enabled() {
		logger.Info("fallback disabled, no API key configured")
		return nil, nil
	}

	settings := SettingsFromConfig(cfg)
	switch cfg.Provider {
	case config.ProviderGemini, "":
		g, err := NewGemini(ctx, cfg.APIKey, cfg.BaseURL, settings)
		if err != nil {
			return nil, err
		}
		logger.Info("fallback enabled", zap.String("provider", config.ProviderGemini), zap.String("model", settings.Model))
		return g, nil
	case config.ProviderOpenAI:
		logger.Info("fallback enabled", zap.String("provider", config.ProviderOpenAI), zap.String("model", settings.Model))
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, settings), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// recent returns the last n messages of history.
func recent(history []model.Message, n int) []model.Message {
	if len(history) == 0 {
		return nil
	}
	return model.NewConversation(history...).Tail(n)
}
