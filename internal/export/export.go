// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts as Markdown, JSON or HTML.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/artdrop/internal/model"
	"github.com/jeranaias/artdrop/internal/util"
)

// ErrUnknownFormat is returned by ForFormat for an unsupported name.
var ErrUnknownFormat = errors.New("unknown export format")

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// Generator names the tool in exported metadata.
const Generator = "artdrop"

// titleWidth bounds the title taken from the first question.
const titleWidth = 50

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of one conversation.
type Transcript struct {
	SessionID string          `json:"session_id"`
	Title     string          `json:"title"`
	Messages  []model.Message `json:"messages"`
	Exported  time.Time       `json:"exported"`
}

// NewTranscript snapshots msgs. The title is the first user message, or
// "Conversation" when the user has not said anything yet.
func NewTranscript(sessionID string, msgs []model.Message) *Transcript {
	title := "Conversation"
	for _, m := range msgs {
		if m.IsUser() {
			title = m.Preview(titleWidth)
			break
		}
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return &Transcript{
		SessionID: sessionID,
		Title:     title,
		Messages:  out,
		Exported:  time.Now(),
	}
}

// Started returns the time of the first message.
func (t *Transcript) Started() time.Time {
	if len(t.Messages) == 0 {
		return time.Time{}
	}
	return t.Messages[0].Timestamp
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)

	// FileExtension includes the dot, e.g. ".md".
	FileExtension() string

	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where ToFile writes. Default: current directory.
	OutputDir string

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

// Formats lists the accepted format names.
func Formats() []string {
	return []string{"md", "json", "html"}
}

// ForFormat returns the exporter for name. Matching ignores case and a
// leading dot; "markdown" is accepted for "md".
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
}

// ToFile exports t into opts.OutputDir and returns the written path.
func ToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("artdrop_chat_%s_%s%s",
		sanitizeFilename(t.Title),
		t.Exported.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	path := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in file names on
// Windows or Unix.
func sanitizeFilename(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > titleWidth {
		runes = runes[:titleWidth]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "conversation"
	}
	return string(out)
}

func formatTimestamp(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
