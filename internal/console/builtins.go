// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import (
	"fmt"
	"strings"
)

// RegisterBuiltins adds the commands every console has: help and clear.
// Both run locally on clients; help answers remote requesters directly.
func (c *Console) RegisterBuiltins() error {
	builtins := []*Command{
		{
			Aliases:  []string{"help"},
			Help:     "help [command]: List all commands, or show the help of one command.",
			Local:    handleHelp,
			Client:   handleHelp,
			OnBehalf: handleHelpRemote,
		},
		{
			Aliases: []string{"clear", "cls"},
			Help:    "clear: Clear the console.",
			Local:   handleClear,
			Client:  handleClear,
		},
	}
	for _, cmd := range builtins {
		if err := c.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func handleHelp(c *Console, args []string) error {
	lines, err := helpLines(c.registry, args)
	if err != nil {
		return err
	}
	for _, line := range lines {
		c.NewMessage(line, SeverityNotice)
	}
	return nil
}

// handleHelpRemote sends the help text to the requester instead of the
// authority's own log.
func handleHelpRemote(c *Console, req Requester, _ Vector2, args []string) error {
	lines, err := helpLines(c.registry, args)
	if err != nil {
		return err
	}
	for _, line := range lines {
		c.Reply(req, line)
	}
	return nil
}

func helpLines(r *Registry, args []string) ([]string, error) {
	if len(args) == 0 {
		var lines []string
		for _, cmd := range r.All() {
			if cmd.Hidden || cmd.Help == "" {
				continue
			}
			lines = append(lines, cmd.Help)
		}
		return lines, nil
	}

	cmd := r.Find(args[0])
	if cmd == nil {
		return nil, fmt.Errorf("Command %q not found.", args[0])
	}
	help := cmd.Help
	if help == "" {
		help = cmd.Name() + ": No help available."
	}
	lines := []string{help}
	if len(cmd.Aliases) > 1 {
		lines = append(lines, "Aliases: "+strings.Join(cmd.Aliases, ", "))
	}
	return lines, nil
}

func handleClear(c *Console, _ []string) error {
	c.log.Clear()
	return nil
}
