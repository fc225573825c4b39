// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import (
	"strings"
	"unicode"
)

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits a command line into arguments.
//
// Spaces separate tokens unless they are inside double quotes. A backslash
// escapes the following backslash or quote; any other escaped character is
// dropped. Unterminated quotes and trailing backslashes are tolerated.
func Tokenize(line string) []string {
	line = strings.TrimSpace(line)

	var (
		tokens   []string
		current  strings.Builder
		escape   int
		inQuotes bool
	)

	flush := func() {
		if strings.TrimFunc(current.String(), unicode.IsSpace) != "" {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}

	for _, r := range line {
		switch {
		case r == '\\':
			if escape == 0 {
				escape = 2
			} else {
				current.WriteRune('\\')
			}
		case r == '"':
			if escape == 0 {
				inQuotes = !inQuotes
			} else {
				current.WriteRune('"')
			}
		case r == ' ' && !inQuotes:
			flush()
		case escape == 0:
			current.WriteRune(r)
		}

		// The escape spans the backslash and exactly one following rune.
		if escape > 0 {
			escape--
		}
	}

	flush()
	return tokens
}
