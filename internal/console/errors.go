// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"errors"
	"fmt"
)

var (
	// ErrAliasConflict is returned when a command reuses an alias that is
	// already registered.
	ErrAliasConflict = errors.New("alias already registered")

	// ErrInvalidCommand is returned for commands without aliases or without
	// a Local handler.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidDuration is returned by ParseDuration.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrNotConnected is returned by Relay when no relayer is configured.
	ErrNotConnected = errors.New("not connected to a server")
)

// PermissionError reports a request dropped by the permission gate.
type PermissionError struct {
	// Command is the primary alias, empty when the coarse check failed.
	Command string
	// Requester is the display name of the caller, empty for the local operator.
	Requester string
}

func (e *PermissionError) Error() string {
	if e.Command == "" {
		return "You are not permitted to use console commands!"
	}
	return fmt.Sprintf("You are not permitted to use the command %q!", e.Command)
}

// HandlerFault wraps a panic recovered from a command handler.
type HandlerFault struct {
	Command   string
	Requester string
	Value     any
	Stack     []byte
}

func (f *HandlerFault) Error() string {
	return fmt.Sprintf("%v", f.Value)
}

// Unwrap returns the panic value when it was an error.
func (f *HandlerFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// Summary is the single-line description sent to remote requesters.
func (f *HandlerFault) Summary() string {
	var desc string
	switch {
	case f.Command == "":
		desc = "Answering the prompt failed."
	case f.Requester != "":
		desc = fmt.Sprintf("Executing the command %q by request from %q failed.", f.Command, f.Requester)
	default:
		desc = fmt.Sprintf("Executing the command %q failed.", f.Command)
	}
	return desc + " {" + f.Error() + "}"
}

// Describe renders the fault for the message log: the summary followed by
// the stack of the panicking goroutine.
func (f *HandlerFault) Describe() string {
	return f.Summary() + "\n" + string(f.Stack)
}
