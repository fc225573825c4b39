// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import "fmt"

// =============================================================================
// ROLES
// =============================================================================

// Role selects how a console executes commands. It is fixed at construction.
type Role int

const (
	// Standalone runs every command locally.
	Standalone Role = iota
	// ClientRelay is a non-authoritative participant that relays commands
	// to the authority unless they have a Client handler.
	ClientRelay
	// ServerOnBehalf is the authority. Its own operator dispatches like
	// Standalone; remote requests go through ExecuteOnBehalf.
	ServerOnBehalf
)

// String returns the role name used in config and logs.
func (r Role) String() string {
	switch r {
	case Standalone:
		return "standalone"
	case ClientRelay:
		return "client"
	case ServerOnBehalf:
		return "server"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts a config or flag value into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "standalone", "":
		return Standalone, nil
	case "client":
		return ClientRelay, nil
	case "server":
		return ServerOnBehalf, nil
	default:
		return Standalone, fmt.Errorf("unknown role %q, must be one of: standalone, client, server", s)
	}
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler executes a command with its arguments (the tokens after the alias).
// A returned error is reported to the message log; it is not a fault.
type Handler func(c *Console, args []string) error

// RequestHandler executes a command on the authority for a remote requester.
// origin is the requester's cursor position, which the authority cannot infer.
type RequestHandler func(c *Console, req Requester, origin Vector2, args []string) error

// Command is a console command. It must not be modified after registration.
type Command struct {
	// Aliases are the names of the command. The first one is the primary
	// name used in help listings and permission allow-lists.
	Aliases []string

	// Help is shown by the help command. Commands with empty help are not listed.
	Help string

	// Local is the default action.
	Local Handler

	// Client runs on a ClientRelay console. If nil the command is always
	// relayed to the authority as typed.
	Client Handler

	// OnBehalf runs on the authority for a remote requester. If nil the
	// authority falls back to Local.
	OnBehalf RequestHandler

	// Hidden commands are not listed by help.
	Hidden bool
}

// Name returns the primary alias.
func (c *Command) Name() string {
	if len(c.Aliases) == 0 {
		return ""
	}
	return c.Aliases[0]
}

// RelayToServer reports whether a ClientRelay console forwards the command
// instead of running anything locally.
func (c *Command) RelayToServer() bool {
	return c.Client == nil
}

// HasAlias reports whether name is one of the command's aliases.
func (c *Command) HasAlias(name string) bool {
	name = fold(name)
	for _, a := range c.Aliases {
		if fold(a) == name {
			return true
		}
	}
	return false
}

// =============================================================================
// REQUESTERS
// =============================================================================

// Vector2 is a world position.
type Vector2 struct {
	X, Y float32
}

// LocalPermissions is the permission view a ClientRelay console has of its
// own participant.
type LocalPermissions interface {
	// HasConsolePermission reports the coarse "may use console commands" capability.
	HasConsolePermission() bool
}

// Requester is a remote participant whose command the authority evaluates.
// The console only reads it; the permission backend owns it.
type Requester interface {
	LocalPermissions

	// ID uniquely identifies the requester for rate limiting and logs.
	ID() string

	// Name is the display name used in replies and fault descriptions.
	Name() string

	// IsCommandPermitted reports whether the fine-grained allow-list
	// contains the command with the given primary alias.
	IsCommandPermitted(name string) bool

	// Controlled returns the entity the requester controls, or nil.
	Controlled() any
}

// =============================================================================
// TRANSPORT CONTRACTS
// =============================================================================

// ConsoleCommand is the payload a client sends to the authority.
// Requester identity and origin travel out of band.
type ConsoleCommand struct {
	Text string `json:"text"`
}

// Relayer sends relayed commands to the authority. Delivery is fire-and-forget.
type Relayer interface {
	SendConsoleCommand(cmd ConsoleCommand) error
}

// Replier delivers text to a requester over the chat channel.
type Replier interface {
	SendChatMessage(req Requester, text string)
}

// RelayerFunc adapts a function to Relayer.
type RelayerFunc func(cmd ConsoleCommand) error

// SendConsoleCommand calls f(cmd).
func (f RelayerFunc) SendConsoleCommand(cmd ConsoleCommand) error { return f(cmd) }

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(req Requester, text string)

// SendChatMessage calls f(req, text).
func (f ReplierFunc) SendChatMessage(req Requester, text string) { f(req, text) }
