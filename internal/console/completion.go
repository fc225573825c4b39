// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import "strings"

// =============================================================================
// COMPLETER
// =============================================================================

// Completer cycles through command aliases that start with a captured stem.
//
// The first Complete after a Reset captures its input as the stem. Further
// calls ignore their input and return the next match, wrapping around.
// Callers must Reset whenever the user edits the text instead of cycling.
type Completer struct {
	registry *Registry
	stem     string
	index    int
}

// NewCompleter creates a completer over the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns the next alias matching the stem, or input unchanged when
// nothing matches. The prefix comparison is case-sensitive.
func (c *Completer) Complete(input string) string {
	if strings.TrimSpace(c.stem) == "" {
		c.stem = input
	}

	matches := c.Matches(c.stem)
	if len(matches) == 0 {
		return input
	}

	c.index %= len(matches)
	next := matches[c.index]
	c.index++
	return next
}

// Matches returns all aliases with the given prefix in registry order.
func (c *Completer) Matches(prefix string) []string {
	if c.registry == nil {
		return nil
	}
	var matches []string
	for _, alias := range c.registry.Aliases() {
		if strings.HasPrefix(alias, prefix) {
			matches = append(matches, alias)
		}
	}
	return matches
}

// Reset clears the captured stem and cursor.
func (c *Completer) Reset() {
	c.stem = ""
	c.index = 0
}

// Stem returns the captured stem, empty after Reset.
func (c *Completer) Stem() string {
	return c.stem
}
