// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package permstore keeps the authority's requester permissions in a TOML file.
package permstore

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// PERMISSION FLAGS
// =============================================================================

// Flags is a set of administrative permissions held by a requester.
type Flags uint32

const (
	EndRound Flags = 1 << iota
	Kick
	Ban
	SelectSub
	SelectMode
	ManageCampaign
	ConsoleCommands

	// None grants nothing.
	None Flags = 0
	// All grants every permission, console commands included.
	All = EndRound | Kick | Ban | SelectSub | SelectMode | ManageCampaign | ConsoleCommands
)

// ErrUnknownPermission is returned by ParseFlags for a name it does not know.
var ErrUnknownPermission = errors.New("unknown permission")

var flagNames = []struct {
	name string
	flag Flags
}{
	{"EndRound", EndRound},
	{"Kick", Kick},
	{"Ban", Ban},
	{"SelectSub", SelectSub},
	{"SelectMode", SelectMode},
	{"ManageCampaign", ManageCampaign},
	{"ConsoleCommands", ConsoleCommands},
}

// Has reports whether every flag in want is set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// String lists the set flags separated by ", ", or "None".
func (f Flags) String() string {
	if f == None {
		return "None"
	}
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ", ")
}

// ParseFlags parses permission names separated by commas, pipes or spaces.
// Matching is case-insensitive and "all" selects every permission.
func ParseFlags(s string) (Flags, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' ' || r == '\t'
	})

	var out Flags
	for _, field := range fields {
		if strings.EqualFold(field, "all") {
			out |= All
			continue
		}
		if strings.EqualFold(field, "none") {
			continue
		}
		found := false
		for _, fn := range flagNames {
			if strings.EqualFold(field, fn.name) {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("%w: %q", ErrUnknownPermission, field)
		}
	}
	return out, nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Flags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flags) UnmarshalText(text []byte) error {
	parsed, err := ParseFlags(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
