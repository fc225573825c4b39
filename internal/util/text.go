// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and text helpers.
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WrapWidth splits s into lines no wider than width display columns.
// Existing newlines are kept. Words longer than width are broken mid-word.
// A width below 1 disables wrapping.
func WrapWidth(s string, width int) []string {
	if width < 1 {
		return strings.Split(s, "\n")
	}

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		if runewidth.StringWidth(para) <= width {
			lines = append(lines, para)
			continue
		}
		lines = append(lines, wrapLine(para, width)...)
	}
	return lines
}

func wrapLine(s string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
		curW  int
	)
	emit := func() {
		lines = append(lines, strings.TrimRight(cur.String(), " "))
		cur.Reset()
		curW = 0
	}

	for i, word := range strings.Split(s, " ") {
		ww := runewidth.StringWidth(word)
		if i > 0 && curW > 0 {
			if curW+1+ww > width {
				emit()
			} else {
				cur.WriteByte(' ')
				curW++
			}
		}
		if ww <= width-curW {
			cur.WriteString(word)
			curW += ww
			continue
		}
		for _, r := range word {
			rw := runewidth.RuneWidth(r)
			if curW > 0 && curW+rw > width {
				emit()
			}
			cur.WriteRune(r)
			curW += rw
		}
	}
	if cur.Len() > 0 {
		emit()
	}
	return lines
}
