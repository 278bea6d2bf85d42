// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jeranaias/artdrop/internal/model"
)

// ContentGenerator is the part of *genai.Models that Gemini uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// blockedCategories are filtered at medium probability and above.
var blockedCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// Gemini is a Fallback backed by the Gemini API.
type Gemini struct {
	models   ContentGenerator
	settings Settings
}

// NewGemini creates a Gemini API client. baseURL may be empty.
func NewGemini(ctx context.Context, apiKey, baseURL string, settings Settings) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return NewGeminiWithGenerator(client.Models, settings), nil
}

// NewGeminiWithGenerator wraps an existing generator.
func NewGeminiWithGenerator(models ContentGenerator, settings Settings) *Gemini {
	return &Gemini{models: models, settings: settings}
}

// Ask implements Fallback.
func (g *Gemini) Ask(ctx context.Context, input string, history []model.Message) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.settings.Model, g.contents(input, history), g.generationConfig())
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// contents is the persona preamble, recent history and the live input.
func (g *Gemini) contents(input string, history []model.Message) []*genai.Content {
	prior := recent(history, g.settings.HistoryTurns)
	contents := make([]*genai.Content, 0, len(prior)+3)
	contents = append(contents,
		genai.NewContentFromText(PersonaInstruction, genai.RoleUser),
		genai.NewContentFromText(PersonaAcknowledgement, genai.RoleModel),
	)
	for _, m := range prior {
		role := genai.Role(genai.RoleUser)
		if !m.IsUser() {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return append(contents, genai.NewContentFromText(input, genai.RoleUser))
}

func (g *Gemini) generationConfig() *genai.GenerateContentConfig {
	safety := make([]*genai.SafetySetting, len(blockedCategories))
	for i, c := range blockedCategories {
		safety[i] = &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		}
	}
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.settings.Temperature),
		TopK:            genai.Ptr(g.settings.TopK),
		TopP:            genai.Ptr(g.settings.TopP),
		MaxOutputTokens: g.settings.MaxOutputTokens,
		SafetySettings:  safety,
	}
}
