// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package permstore keeps the authority's requester permissions in a TOML file.
package permstore

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/jeranaias/debugconsole/internal/console"
)

var _ console.Requester = (*Requester)(nil)

// Requester is a connected participant known to the store. It is safe for
// concurrent use; consoles keep the pointer across reloads.
type Requester struct {
	mu        sync.RWMutex
	id        string
	name      string
	address   string
	character string
	perms     Flags
	commands  map[string]bool
}

func newRequester(rec record) *Requester {
	r := &Requester{id: rec.ID}
	r.apply(rec)
	return r
}

// apply replaces everything except the ID with rec.
func (r *Requester) apply(rec record) {
	commands := make(map[string]bool, len(rec.Commands))
	for _, c := range rec.Commands {
		if name := foldCommand(c); name != "" {
			commands[name] = true
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = rec.Name
	r.address = rec.Address
	r.character = rec.Character
	r.perms = rec.Permissions
	r.commands = commands
}

func (r *Requester) record() record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return record{
		ID:          r.id,
		Name:        r.name,
		Address:     r.address,
		Character:   r.character,
		Permissions: r.perms,
		Commands:    r.commandsLocked(),
	}
}

// ID returns the stable requester identifier.
func (r *Requester) ID() string { return r.id }

// Name returns the display name.
func (r *Requester) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// Address returns the network address recorded for the requester.
func (r *Requester) Address() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.address
}

// Controlled returns the name of the controlled character, or nil when the
// requester controls nothing.
func (r *Requester) Controlled() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.character == "" {
		return nil
	}
	return r.character
}

// Permissions returns the current permission flags.
func (r *Requester) Permissions() Flags {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.perms
}

// HasConsolePermission reports whether the requester may use the console.
func (r *Requester) HasConsolePermission() bool {
	return r.Permissions().Has(ConsoleCommands)
}

// IsCommandPermitted reports whether name is on the allow-list.
func (r *Requester) IsCommandPermitted(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[foldCommand(name)]
}

// Commands returns the allow-list in sorted order.
func (r *Requester) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commandsLocked()
}

func (r *Requester) commandsLocked() []string {
	out := make([]string, 0, len(r.commands))
	for c := range r.commands {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (r *Requester) grant(f Flags) {
	r.mu.Lock()
	r.perms |= f
	r.mu.Unlock()
}

func (r *Requester) revoke(f Flags) {
	r.mu.Lock()
	r.perms &^= f
	r.mu.Unlock()
}

func (r *Requester) allow(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		if name := foldCommand(n); name != "" {
			r.commands[name] = true
		}
	}
}

func (r *Requester) disallow(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		delete(r.commands, foldCommand(n))
	}
}

// foldCommand normalizes a command name the same way the console registry
// does, so allow-list entries match registered names.
func foldCommand(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
