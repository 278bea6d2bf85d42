// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot question command.
//
// Examples:
//
//	artdrop ask "how much is Jaguar Night?"
//	artdrop ask --json "tell me about ETB"

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newAskCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a single question",
		Long: `Ask one question and print the reply.

Catalog questions are answered locally. Other questions go to the configured
model; without an API key a fixed notice is printed instead.`,
		Example: `  artdrop ask "how much is Jaguar Night?"
  artdrop ask --json "what NFTs do you have?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.newLogger(false)
			if err != nil {
				return err
			}
			src, err := a.openCatalog(logger)
			if err != nil {
				return err
			}
			asst, err := a.newAssistant(cmd.Context(), src, logger)
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				return withExitCode(ExitUsageError, fmt.Errorf("question is empty"))
			}
			reply := asst.Reply(cmd.Context(), question, nil)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, reply)
			}
			displayReply(out, reply.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print {text, source, intent} as JSON")
	return cmd
}

// =============================================================================
// OUTPUT
// =============================================================================

// displayReply prints text, rendering markdown only on a terminal so piped
// output stays plain.
func displayReply(w io.Writer, text string) {
	if isTerminal(w) {
		fmt.Fprint(w, renderMarkdown(text, terminalWidth(w)))
		return
	}
	fmt.Fprintln(w, text)
}

// renderMarkdown returns text unchanged when rendering fails.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return text + "\n"
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return rendered
}

// writeJSON prints v as indented JSON, highlighted when w is a color
// terminal.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if isTerminal(w) && colorProfile() != termenv.Ascii {
		var buf bytes.Buffer
		if err := quick.Highlight(&buf, string(data), "json", "terminal256", "monokai"); err == nil {
			data = buf.Bytes()
		}
	}
	_, err = w.Write(data)
	return err
}
