// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant produces one bot reply per user message.
//
// Local catalog rules are tried first (see package resolver). When they have
// no answer, the question goes to a Fallback backed by a hosted generative
// model: Gemini through google.golang.org/genai, or any OpenAI-compatible
// endpoint through go-openai. Every outcome, including a missing credential
// or a failed call, ends in exactly one displayable text.
package assistant
