// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCompleter() *Completer {
	r := NewRegistry()
	r.MustRegister(
		&Command{Aliases: []string{"spawn", "spawncharacter"}, Local: nop},
		&Command{Aliases: []string{"spawnitem"}, Local: nop},
		&Command{Aliases: []string{"heal"}, Local: nop},
	)
	return NewCompleter(r)
}

func TestCompleter_CyclesMatches(t *testing.T) {
	c := newTestCompleter()

	assert.Equal(t, "spawn", c.Complete("sp"))
	// The stem stays "sp" even though the caller now passes the suggestion.
	assert.Equal(t, "spawncharacter", c.Complete("spawn"))
	assert.Equal(t, "spawnitem", c.Complete("spawncharacter"))
	assert.Equal(t, "spawn", c.Complete("spawnitem"))
	assert.Equal(t, "sp", c.Stem())
}

func TestCompleter_Reset(t *testing.T) {
	c := newTestCompleter()

	assert.Equal(t, "spawn", c.Complete("sp"))
	c.Reset()
	assert.Equal(t, "", c.Stem())
	assert.Equal(t, "heal", c.Complete("he"))
	assert.Equal(t, "heal", c.Complete("heal"))
}

func TestCompleter_NoMatchReturnsInput(t *testing.T) {
	c := newTestCompleter()
	assert.Equal(t, "xyz", c.Complete("xyz"))
	assert.Equal(t, "xyz", c.Complete("xyz"))
}

func TestCompleter_CaseSensitive(t *testing.T) {
	c := newTestCompleter()
	assert.Equal(t, "SP", c.Complete("SP"))
}

func TestCompleter_EmptyStemMatchesAll(t *testing.T) {
	c := newTestCompleter()
	assert.Equal(t, []string{"heal", "spawn", "spawncharacter", "spawnitem"}, c.Matches(""))
}
