// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/jeranaias/debugconsole/internal/console"
	"github.com/jeranaias/debugconsole/internal/permstore"
)

// permanentBan is relayed in place of an empty duration answer.
const permanentBan = "permanent"

// noReason is relayed in place of an empty reason answer.
const noReason = "No reason given."

// =============================================================================
// SERVER STATE
// =============================================================================

// server is the state the demo commands act on: connected participants come
// from the permission store, bans are kept in memory.
type server struct {
	store  *permstore.Store
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	bans map[string]ban
}

type ban struct {
	name    string
	reason  string
	expires time.Time // zero means permanent
}

func newServer(store *permstore.Store, logger *zap.Logger) *server {
	return &server{
		store:  store,
		logger: logger,
		now:    time.Now,
		bans:   make(map[string]ban),
	}
}

// kick disconnects the named participant.
func (s *server) kick(c *console.Console, name, reason string) (string, error) {
	r, ok := s.store.FindByName(name)
	if !ok {
		return "", fmt.Errorf("Player %q not found.", name)
	}
	s.store.Remove(r.ID())
	c.ForgetRequester(r.ID())
	s.logger.Info("player kicked",
		zap.String("requester", r.ID()),
		zap.String("name", r.Name()),
		zap.String("reason", reason))

	msg := fmt.Sprintf("Kicked %s.", r.Name())
	if reason != "" {
		msg = fmt.Sprintf("Kicked %s. Reason: %s", r.Name(), reason)
	}
	return msg, nil
}

// ban records a ban for name and kicks them if connected. An empty or
// "permanent" duration bans permanently.
func (s *server) ban(c *console.Console, name, reason, duration string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("ban [name]: no player name given")
	}

	var d time.Duration
	if text := strings.TrimSpace(duration); text != "" && !strings.EqualFold(text, permanentBan) {
		parsed, err := console.ParseDuration(text)
		if err != nil {
			return "", fmt.Errorf("%q is not a valid ban duration. Use the format %s.", text, console.DurationFormatHelp)
		}
		d = parsed
	}

	b := ban{name: name, reason: reason}
	if d > 0 {
		b.expires = s.now().Add(d)
	}
	s.mu.Lock()
	s.bans[banKey(name)] = b
	s.mu.Unlock()

	if r, ok := s.store.FindByName(name); ok {
		s.store.Remove(r.ID())
		c.ForgetRequester(r.ID())
		name = r.Name()
	}
	s.logger.Info("player banned",
		zap.String("name", name),
		zap.String("reason", reason),
		zap.Duration("duration", d))

	if d == 0 {
		return fmt.Sprintf("Banned %s permanently.", name), nil
	}
	return fmt.Sprintf("Banned %s for %s.", name, d), nil
}

func (s *server) unban(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := banKey(name)
	if _, ok := s.bans[key]; !ok {
		return false
	}
	delete(s.bans, key)
	return true
}

// banList returns active bans sorted by name, dropping expired ones.
func (s *server) banList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0, len(s.bans))
	for k, b := range s.bans {
		if !b.expires.IsZero() && !now.Before(b.expires) {
			delete(s.bans, k)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		b := s.bans[k]
		until := "permanent"
		if !b.expires.IsZero() {
			until = "until " + b.expires.Format(time.DateTime)
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", b.name, until, b.reason))
	}
	return lines
}

func (s *server) clientList() []string {
	lines := []string{"***************"}
	for _, r := range s.store.List() {
		lines = append(lines, fmt.Sprintf("- %s: %s, %s", r.ID(), r.Name(), r.Address()))
	}
	return append(lines, "***************")
}

func (s *server) changePermissions(id, perm string, grant bool) (string, error) {
	r, ok := s.store.Find(id)
	if !ok {
		return "", fmt.Errorf("Client id %q not found.", id)
	}

	var (
		flags permstore.Flags
		err   error
	)
	if !grant && strings.EqualFold(strings.TrimSpace(perm), "all") {
		// "all" leaves ConsoleCommands in place when revoking.
		flags = permstore.All &^ permstore.ConsoleCommands
	} else if flags, err = permstore.ParseFlags(perm); err != nil {
		return "", err
	}

	if grant {
		err = s.store.Grant(id, flags)
	} else {
		err = s.store.Revoke(id, flags)
	}
	if err != nil {
		return "", err
	}
	if err := s.store.Save(); err != nil {
		s.logger.Warn("permissions not saved", zap.Error(err))
	}

	if grant {
		return fmt.Sprintf("Granted %s permissions to %s.", flags, r.Name()), nil
	}
	return fmt.Sprintf("Revoked %s permissions from %s.", flags, r.Name()), nil
}

func banKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// =============================================================================
// COMMANDS
// =============================================================================

// commands returns a fresh set of demo commands bound to s.
func (s *server) commands() []*console.Command {
	return []*console.Command{
		{
			Aliases: []string{"say"},
			Help:    `say [message]: Send a chat message that displays "HOST" as the sender.`,
			Local: func(c *console.Console, args []string) error {
				if msg := strings.Join(args, " "); msg != "" {
					c.Printf("HOST: %s", msg)
				}
				return nil
			},
			OnBehalf: func(c *console.Console, req console.Requester, _ console.Vector2, args []string) error {
				msg := strings.Join(args, " ")
				if msg == "" {
					return nil
				}
				c.Printf("%s: %s", req.Name(), msg)
				c.Reply(req, req.Name()+": "+msg)
				return nil
			},
		},
		{
			Aliases: []string{"clientlist"},
			Help:    "clientlist: List all the clients connected to the server.",
			Local: func(c *console.Console, _ []string) error {
				for _, line := range s.clientList() {
					c.NewMessage(line, console.SeverityNotice)
				}
				return nil
			},
			OnBehalf: func(c *console.Console, req console.Requester, _ console.Vector2, _ []string) error {
				for _, line := range s.clientList() {
					c.Reply(req, line)
				}
				return nil
			},
		},
		{
			Aliases: []string{"kick"},
			Help:    "kick [name]: Kick a player out of the server.",
			Local: func(c *console.Console, args []string) error {
				name := strings.Join(args, " ")
				if name == "" {
					return nil
				}
				c.Ask(fmt.Sprintf("Reason for kicking %q?", name), func(reason string) {
					msg, err := s.kick(c, name, reason)
					if err != nil {
						c.Errorf("%v", err)
						return
					}
					c.Printf("%s", msg)
				})
				return nil
			},
			Client: func(c *console.Console, args []string) error {
				name := strings.Join(args, " ")
				if name == "" {
					return nil
				}
				c.Ask(fmt.Sprintf("Reason for kicking %q?", name), func(reason string) {
					relayAnswer(c, "kick", name, orDefault(reason, noReason))
				})
				return nil
			},
			OnBehalf: func(c *console.Console, req console.Requester, _ console.Vector2, args []string) error {
				if len(args) == 0 {
					return errors.New("kick [name]: no player name given")
				}
				msg, err := s.kick(c, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				c.Printf("%s (by %s)", msg, req.Name())
				c.Reply(req, msg)
				return nil
			},
		},
		{
			Aliases: []string{"ban"},
			Help:    "ban [name]: Kick and ban the player from the server.",
			Local: func(c *console.Console, args []string) error {
				name := strings.Join(args, " ")
				if name == "" {
					return nil
				}
				askBan(c, name, func(reason, duration string) {
					msg, err := s.ban(c, name, reason, duration)
					if err != nil {
						c.Errorf("%v", err)
						return
					}
					c.Printf("%s", msg)
				})
				return nil
			},
			Client: func(c *console.Console, args []string) error {
				name := strings.Join(args, " ")
				if name == "" {
					return nil
				}
				askBan(c, name, func(reason, duration string) {
					if text := strings.TrimSpace(duration); text != "" {
						if _, err := console.ParseDuration(text); err != nil {
							c.Errorf("%q is not a valid ban duration. Use the format %s.", text, console.DurationFormatHelp)
							return
						}
					}
					relayAnswer(c, "ban", name, orDefault(reason, noReason), orDefault(duration, permanentBan))
				})
				return nil
			},
			OnBehalf: func(c *console.Console, req console.Requester, _ console.Vector2, args []string) error {
				if len(args) == 0 {
					return errors.New("ban [name]: no player name given")
				}
				var reason, duration string
				if len(args) > 1 {
					reason = args[1]
				}
				if len(args) > 2 {
					duration = args[2]
				}
				msg, err := s.ban(c, args[0], reason, duration)
				if err != nil {
					return err
				}
				c.Printf("%s (by %s)", msg, req.Name())
				c.Reply(req, msg)
				return nil
			},
		},
		{
			Aliases: []string{"unban"},
			Help:    "unban [name]: Remove the ban of a player.",
			Local: func(c *console.Console, args []string) error {
				name := strings.Join(args, " ")
				if !s.unban(name) {
					return fmt.Errorf("Player %q is not banned.", name)
				}
				c.Printf("Unbanned %s.", name)
				return nil
			},
		},
		{
			Aliases: []string{"banlist"},
			Help:    "banlist: List the banned players.",
			Local: func(c *console.Console, _ []string) error {
				lines := s.banList()
				if len(lines) == 0 {
					c.Printf("No players are banned.")
				}
				for _, line := range lines {
					c.NewMessage(line, console.SeverityNotice)
				}
				return nil
			},
			OnBehalf: func(c *console.Console, req console.Requester, _ console.Vector2, _ []string) error {
				lines := s.banList()
				if len(lines) == 0 {
					c.Reply(req, "No players are banned.")
				}
				for _, line := range lines {
					c.Reply(req, line)
				}
				return nil
			},
		},
		s.permissionCommand("giveperm",
			"giveperm [id]: Grants administrative permissions to the player with the specified client ID.",
			"Permission to grant to %q?", true),
		s.permissionCommand("revokeperm",
			"revokeperm [id]: Revokes administrative permissions from the player with the specified client ID.",
			"Permission to revoke from %q?", false),
	}
}

// permissionCommand builds giveperm and revokeperm. The permission is asked
// for unless it follows the ID on the command line.
func (s *server) permissionCommand(name, help, question string, grant bool) *console.Command {
	apply := func(c *console.Console, id, perm string) {
		msg, err := s.changePermissions(id, perm, grant)
		if err != nil {
			c.Errorf("%v", err)
			return
		}
		c.Printf("%s", msg)
	}

	return &console.Command{
		Aliases: []string{name},
		Help:    help,
		Local: func(c *console.Console, args []string) error {
			if len(args) == 0 {
				return nil
			}
			id := args[0]
			if len(args) > 1 {
				apply(c, id, strings.Join(args[1:], " "))
				return nil
			}
			r, ok := s.store.Find(id)
			if !ok {
				return fmt.Errorf("Client id %q not found.", id)
			}
			c.Ask(fmt.Sprintf(question, r.Name()), func(perm string) {
				apply(c, id, perm)
			})
			return nil
		},
		Client: func(c *console.Console, args []string) error {
			if len(args) == 0 {
				return nil
			}
			id := args[0]
			if len(args) > 1 {
				relayAnswer(c, name, id, strings.Join(args[1:], " "))
				return nil
			}
			c.Ask(fmt.Sprintf(question, "client "+id), func(perm string) {
				relayAnswer(c, name, id, perm)
			})
			return nil
		},
		OnBehalf: func(c *console.Console, req console.Requester, _ console.Vector2, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("%s [id] [permissions]: missing arguments", name)
			}
			msg, err := s.changePermissions(args[0], strings.Join(args[1:], " "), grant)
			if err != nil {
				return err
			}
			c.Printf("%s (by %s)", msg, req.Name())
			c.Reply(req, msg)
			return nil
		},
	}
}

// askBan chains the reason and duration questions.
func askBan(c *console.Console, name string, done func(reason, duration string)) {
	c.Ask(fmt.Sprintf("Reason for banning %q?", name), func(reason string) {
		c.Ask("Enter the duration of the ban (leave empty to ban permanently, or use the format "+console.DurationFormatHelp+")",
			func(duration string) {
				done(reason, duration)
			})
	})
}

// relayAnswer sends a command assembled from prompt answers to the server.
func relayAnswer(c *console.Console, name string, args ...string) {
	line := quoteCommand(name, args...)
	if err := c.Relay(line); err != nil {
		c.Errorf("Failed to send the command to the server: %v", err)
		return
	}
	c.Printf("Server command: %s", line)
}

// quoteCommand builds a line that tokenizes back into name and args.
func quoteCommand(name string, args ...string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, a := range args {
		b.WriteString(` "`)
		for _, r := range a {
			if r == '"' || r == '\\' {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
