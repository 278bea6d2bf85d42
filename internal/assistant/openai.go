// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/artdrop/internal/model"
)

// ChatCompleter is the part of *openai.Client that OpenAI uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI is a Fallback for OpenAI-compatible chat endpoints. Safety
// categories are a Gemini feature and are not sent.
type OpenAI struct {
	client   ChatCompleter
	settings Settings
}

// NewOpenAI creates a client. baseURL may be empty for api.openai.com.
func NewOpenAI(apiKey, baseURL string, settings Settings) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(cfg), settings)
}

// NewOpenAIWithClient wraps an existing client.
func NewOpenAIWithClient(client ChatCompleter, settings Settings) *OpenAI {
	return &OpenAI{client: client, settings: settings}
}

// Ask implements Fallback.
func (o *OpenAI) Ask(ctx context.Context, input string, history []model.Message) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.request(input, history))
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (o *OpenAI) request(input string, history []model.Message) openai.ChatCompletionRequest {
	prior := recent(history, o.settings.HistoryTurns)
	msgs := make([]openai.ChatCompletionMessage, 0, len(prior)+3)
	msgs = append(msgs,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: PersonaInstruction},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: PersonaAcknowledgement},
	)
	for _, m := range prior {
		role := openai.ChatMessageRoleUser
		if !m.IsUser() {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: input})

	return openai.ChatCompletionRequest{
		Model:       o.settings.Model,
		Messages:    msgs,
		Temperature: o.settings.Temperature,
		TopP:        o.settings.TopP,
		MaxTokens:   int(o.settings.MaxOutputTokens),
	}
}
