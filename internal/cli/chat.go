// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/config"
	"github.com/jeranaias/artdrop/internal/export"
	"github.com/jeranaias/artdrop/internal/session"
	"github.com/jeranaias/artdrop/internal/ui/styles"
)

const chatHelp = `Commands:
  /reset          start the conversation over
  /export [fmt]   save the transcript as md, json or html
  /help           show this help
  /quit           leave the chat`

var (
	promptStyle = lipgloss.NewStyle().Foreground(styles.Lagoon).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(styles.Coral)
	mutedStyle  = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Long: `Start an interactive conversation. Arrow keys recall earlier input.

Type /reset to start over and /quit (or Ctrl+D) to leave.`,
		Args: cobra.NoArgs,
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

			exportDir, err := config.ExportDir()
			if err != nil {
				return err
			}

			in := newChatInput()
			defer in.Close()
			return runChat(cmd.Context(), in, cmd.OutOrStdout(), asst, chatOptions{
				greeting:  a.cfg.Assistant.Greeting,
				exportDir: exportDir,
			})
		},
	}
}

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of user input.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// chatInput is a liner-backed lineReader with history kept in the config
// directory.
type chatInput struct {
	*liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &chatInput{State: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return in
}

// Close saves the history and restores the terminal.
func (c *chatInput) Close() error {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = c.WriteHistory(f)
			f.Close()
		}
	}
	return c.State.Close()
}

// =============================================================================
// REPL
// =============================================================================

type chatOptions struct {
	greeting  string
	exportDir string
}

// runChat drives one session until /quit, EOF or Ctrl+C.
func runChat(ctx context.Context, in lineReader, out io.Writer, asst *assistant.Assistant, opts chatOptions) error {
	sess := session.New(opts.greeting)
	sess.Open()
	printGreeting(out, sess)
	fmt.Fprintln(out, mutedStyle.Render("Type /help for commands."))

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := in.Prompt("you> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		in.AppendHistory(input)

		command, arg, _ := strings.Cut(strings.ToLower(input), " ")
		switch command {
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, chatHelp)
			continue
		case "/reset":
			sess.Toggle()
			sess.Toggle()
			printGreeting(out, sess)
			continue
		case "/export":
			path, err := exportChat(sess, arg, opts.exportDir)
			if err != nil {
				fmt.Fprintln(out, styles.RenderError(err.Error()))
			} else {
				fmt.Fprintln(out, styles.RenderSuccess("Saved "+path))
			}
			continue
		}

		pending, ok := sess.Submit(input)
		if !ok {
			continue
		}
		reply := asst.Reply(ctx, pending.Input, pending.History)
		msg := sess.Deliver(pending, reply.Text)
		printBot(out, msg.Text)
	}
}

// exportChat writes the session transcript into dir.
func exportChat(sess *session.Session, format, dir string) (string, error) {
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	exporter, err := export.ForFormat(strings.TrimSpace(format), opts)
	if err != nil {
		return "", err
	}
	return export.ToFile(export.NewTranscript(sess.ID(), sess.Messages()), exporter, opts)
}

func printGreeting(w io.Writer, sess *session.Session) {
	msgs := sess.Messages()
	if len(msgs) > 0 {
		printBot(w, msgs[0].Text)
	}
}

func printBot(w io.Writer, text string) {
	fmt.Fprintln(w, promptStyle.Render("bot>")+" "+botStyle.Render(text))
}
