// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jeranaias/debugconsole/internal/console"
	"github.com/jeranaias/debugconsole/internal/util"
)

// =============================================================================
// SEVERITY COLORS
// =============================================================================

var severityStyles = map[console.Severity]lipgloss.Style{
	console.SeverityInfo:    lipgloss.NewStyle(),
	console.SeverityNotice:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}),
	console.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}),
	console.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}).Bold(true),
	console.SeverityDebug:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}).Faint(true),
}

// =============================================================================
// PRINTER
// =============================================================================

// printer writes new message log entries to a terminal.
type printer struct {
	out   io.Writer
	width int
	color bool
	last  uint64
}

func newPrinter(out io.Writer, color bool, width int) *printer {
	return &printer{out: out, color: color, width: width}
}

// newStdoutPrinter colors and wraps output only when stdout is a terminal.
func newStdoutPrinter() *printer {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return newPrinter(os.Stdout, false, 0)
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}
	return newPrinter(os.Stdout, true, width)
}

// flush prints messages appended since the previous call.
func (p *printer) flush(log *console.MessageLog) {
	msgs, last := log.Since(p.last)
	p.last = last
	for _, m := range msgs {
		for _, line := range util.WrapWidth(m.Text, p.width) {
			if p.color {
				line = severityStyles[m.Severity].Render(line)
			}
			fmt.Fprintln(p.out, line)
		}
	}
}
