// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/debugconsole/internal/config"
	"github.com/jeranaias/debugconsole/internal/console"
	"github.com/jeranaias/debugconsole/internal/permstore"
)

var (
	// errQuit ends the input loop normally.
	errQuit = errors.New("quit")
	// errAborted is returned by a lineReader when the user presses Ctrl-C.
	errAborted = errors.New("input aborted")
)

// lineReader reads one line of operator input.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// =============================================================================
// HOST
// =============================================================================

// host wires the operator's console to the rest of the process. In the client
// role it also owns an in-process authority and the queue between them.
type host struct {
	local     *console.Console
	authority *console.Console
	server    *server
	self      *permstore.Requester
	logger    *zap.Logger

	// relayed commands waiting for the authority
	outbox []console.ConsoleCommand
}

func consoleOptions(cfg *config.Config, logger *zap.Logger) []console.Option {
	return []console.Option{
		console.WithLogger(logger),
		console.WithMaxMessages(cfg.Console.MaxMessages),
		console.WithNoEcho(cfg.Console.NoEcho...),
		console.WithVerbose(cfg.Console.Verbose),
		console.WithPermissionEnforcement(cfg.Security.EnforcePermissions),
		console.WithRateLimit(cfg.Server.RequestsPerSecond, cfg.Server.RequestBurst),
	}
}

func newHost(cfg *config.Config, role console.Role, store *permstore.Store, selfID string, logger *zap.Logger) (*host, error) {
	h := &host{
		server: newServer(store, logger.Named("server")),
		logger: logger,
	}
	opts := consoleOptions(cfg, logger.Named("console"))

	switch role {
	case console.Standalone:
		h.local = console.New(role, opts...)

	case console.ServerOnBehalf:
		h.local = console.New(role, append(opts, console.WithReplier(console.ReplierFunc(h.chat)))...)

	case console.ClientRelay:
		h.authority = console.New(console.ServerOnBehalf,
			append(opts, console.WithLogger(logger.Named("authority")), console.WithReplier(console.ReplierFunc(h.chat)))...)
		if err := h.install(h.authority); err != nil {
			return nil, err
		}
		seedStore(store, h.authority.Registry(), logger)

		self, ok := store.Find(selfID)
		if !ok {
			return nil, fmt.Errorf("requester %q is not in the permission store", selfID)
		}
		h.self = self
		h.local = console.New(role, append(opts,
			console.WithRelayer(console.RelayerFunc(h.enqueue)),
			console.WithLocalPermissions(self))...)

	default:
		return nil, fmt.Errorf("unsupported role %v", role)
	}

	if err := h.install(h.local); err != nil {
		return nil, err
	}
	if h.authority == nil {
		seedStore(store, h.local.Registry(), logger)
	}
	return h, nil
}

// install registers the builtin and demo commands on c.
func (h *host) install(c *console.Console) error {
	if err := c.RegisterBuiltins(); err != nil {
		return err
	}
	for _, cmd := range h.server.commands() {
		if err := c.Register(cmd); err != nil {
			return fmt.Errorf("register %s: %w", cmd.Name(), err)
		}
	}
	return nil
}

// seedStore gives an empty store one local participant with every permission
// and every command, so a fresh install is usable.
func seedStore(store *permstore.Store, registry *console.Registry, logger *zap.Logger) {
	if len(store.List()) > 0 {
		return
	}
	r := store.Add("1", "Host", "127.0.0.1")
	if err := store.Grant(r.ID(), permstore.All); err != nil {
		logger.Warn("seeding permissions failed", zap.String("requester", r.ID()), zap.Error(err))
	}
	names := make([]string, 0, registry.Len())
	for _, cmd := range registry.All() {
		names = append(names, cmd.Name())
	}
	if err := store.Allow(r.ID(), names...); err != nil {
		logger.Warn("seeding command allow list failed", zap.String("requester", r.ID()), zap.Error(err))
	}
	logger.Info("permission store empty, seeded local participant",
		zap.String("requester", r.ID()),
		zap.Strings("commands", names))
}

// enqueue is the client console's relayer.
func (h *host) enqueue(cmd console.ConsoleCommand) error {
	if h.authority == nil {
		return errors.New("no server")
	}
	h.outbox = append(h.outbox, cmd)
	return nil
}

// deliver hands queued commands to the authority.
func (h *host) deliver() {
	for len(h.outbox) > 0 {
		cmd := h.outbox[0]
		h.outbox = h.outbox[1:]
		h.authority.ExecuteOnBehalf(h.self, console.Vector2{}, cmd.Text)
	}
}

// chat is the authority's replier. Replies to the local participant land in
// the operator's log; everyone else only exists in the diagnostic log.
func (h *host) chat(req console.Requester, text string) {
	if h.self != nil && req.ID() == h.self.ID() {
		h.local.NewMessage(text, console.SeverityNotice)
		return
	}
	h.logger.Info("chat message", zap.String("requester", req.ID()), zap.String("text", text))
}

// submit runs one input line through the operator's console.
func (h *host) submit(line string) {
	h.local.Dispatch(line)
	h.local.Completer().Reset()
	h.deliver()
}

// loop reads lines until EOF, "exit" or ctx is done.
func (h *host) loop(ctx context.Context, in lineReader, out *printer) error {
	h.local.Printf("Debug console (%s). Type \"help\" for a list of commands, \"exit\" to quit.", h.local.Role())
	out.flush(h.local.Messages())

	for ctx.Err() == nil {
		prompt := "> "
		if _, pending := h.local.PendingQuestion(); pending {
			prompt = "? "
		}

		line, err := in.Prompt(prompt)
		switch {
		case errors.Is(err, errAborted):
			if _, pending := h.local.PendingQuestion(); pending {
				h.local.CancelPrompt()
				h.local.NewMessage("Cancelled.", console.SeverityWarning)
				out.flush(h.local.Messages())
				continue
			}
			return errQuit
		case errors.Is(err, io.EOF):
			return errQuit
		case err != nil:
			return err
		}

		if _, pending := h.local.PendingQuestion(); !pending {
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "exit", "quit":
				return errQuit
			}
		}

		h.submit(line)
		out.flush(h.local.Messages())
	}
	return nil
}
