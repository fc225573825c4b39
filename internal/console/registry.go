// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands. It is built once at startup and is
// not safe for registration concurrently with lookups.
type Registry struct {
	// commands is kept sorted by primary alias
	commands []*Command
	// aliases is keyed by the case-folded alias
	aliases map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		aliases: make(map[string]*Command),
	}
}

// Register adds a command. Aliases are stored lower-cased and matched
// case-folded, so "Straße" is listed as "straße" but also found as "STRASSE".
// If any alias is already taken the registry is left unchanged and
// ErrAliasConflict is returned.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil || cmd.Local == nil {
		return fmt.Errorf("%w: missing local handler", ErrInvalidCommand)
	}

	aliases := make([]string, 0, len(cmd.Aliases))
	keys := make([]string, 0, len(cmd.Aliases))
	seen := make(map[string]bool, len(cmd.Aliases))
	for _, a := range cmd.Aliases {
		a = lower(strings.TrimSpace(a))
		key := fold(a)
		if key == "" || seen[key] {
			continue
		}
		if owner, ok := r.aliases[key]; ok {
			return fmt.Errorf("%w: %q is used by %q", ErrAliasConflict, a, owner.Name())
		}
		seen[key] = true
		aliases = append(aliases, a)
		keys = append(keys, key)
	}
	if len(aliases) == 0 {
		return fmt.Errorf("%w: no aliases", ErrInvalidCommand)
	}

	cmd.Aliases = aliases
	for _, key := range keys {
		r.aliases[key] = cmd
	}
	r.commands = append(r.commands, cmd)
	sort.SliceStable(r.commands, func(i, j int) bool {
		return r.commands[i].Name() < r.commands[j].Name()
	})
	return nil
}

// MustRegister is like Register but panics on error. Intended for the
// fixed command set built at process start.
func (r *Registry) MustRegister(cmds ...*Command) {
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Find returns the command with the given alias, ignoring case, or nil.
func (r *Registry) Find(name string) *Command {
	return r.aliases[fold(name)]
}

// All returns the commands sorted by primary alias. The slice is a copy.
func (r *Registry) All() []*Command {
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Aliases returns every alias of every command, commands in All order.
func (r *Registry) Aliases() []string {
	var out []string
	for _, cmd := range r.commands {
		out = append(out, cmd.Aliases...)
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

// fold returns the caseless form used for alias matching.
func fold(s string) string {
	return cases.Fold().String(s)
}

// lower returns the display form of an alias.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
