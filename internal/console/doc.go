// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console shared by a standalone
// simulation, the networked authority and its remote participants.
//
// A Console owns the command registry, the bounded message log and the
// pending prompt slot. Its role is fixed at construction and decides how an
// input line is executed.
//
// # Key Types
//
//   - Console: Context value owning registry, log and prompt state
//   - Command: Aliases, help text and the three handler slots
//   - Registry: Alias lookup and sorted enumeration
//   - Completer: Cycling tab completion over command aliases
//   - MessageLog: Bounded, concurrency-safe output sink
//
// # Roles
//
//   - Standalone: every command runs its Local handler
//   - ClientRelay: commands without a Client handler are relayed verbatim
//   - ServerOnBehalf: remote requests are gated by the requester's permissions
//
// # Usage
//
// Build a console and dispatch operator input:
//
//	con := console.New(console.Standalone, console.WithLogger(logger))
//	con.MustRegister(&console.Command{
//	    Aliases: []string{"spawn", "spawncharacter"},
//	    Help:    "spawn [name]: Spawn a creature.",
//	    Local:   spawn,
//	})
//	con.Dispatch(`spawn "mud raptor"`)
//
// Execute a command on behalf of a remote requester:
//
//	con.ExecuteOnBehalf(requester, origin, msg.Text)
package console
