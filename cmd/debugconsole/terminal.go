// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/debugconsole/internal/config"
	"github.com/jeranaias/debugconsole/internal/console"
	"github.com/jeranaias/debugconsole/internal/util"
)

// =============================================================================
// LINE EDITING
// =============================================================================

// terminal reads operator input with history and tab completion.
type terminal struct {
	line        *liner.State
	historyFile string
}

func newTerminal(cfg *config.Config, completer *console.Completer) (*terminal, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabCircular)
	line.SetCompleter((&tabCompleter{completer: completer}).complete)

	historyFile := cfg.Console.HistoryFile
	if historyFile == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		historyFile = filepath.Join(dir, "history")
	}

	t := &terminal{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return t, nil
}

// tabCompleter feeds liner one candidate per Tab press, letting the console
// completer own the cycling. Any edit since the last candidate starts a new
// stem.
type tabCompleter struct {
	completer *console.Completer
	last      string
}

// complete completes the command name only; arguments are left alone.
func (t *tabCompleter) complete(input string) []string {
	if strings.ContainsAny(input, " \"") {
		t.completer.Reset()
		t.last = ""
		return nil
	}
	if input != t.last {
		t.completer.Reset()
	}
	if len(t.completer.Matches(input)) == 0 && t.completer.Stem() == "" {
		t.last = ""
		return nil
	}
	t.last = t.completer.Complete(input)
	return []string{t.last}
}

// Prompt reads one line. Ctrl-C maps to errAborted and Ctrl-D to io.EOF.
func (t *terminal) Prompt(prompt string) (string, error) {
	input, err := t.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errAborted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		t.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (t *terminal) Close() error {
	var buf bytes.Buffer
	if _, err := t.line.WriteHistory(&buf); err == nil {
		_ = util.AtomicWriteFile(t.historyFile, buf.Bytes(), 0600)
	}
	return t.line.Close()
}

var _ io.Closer = (*terminal)(nil)
