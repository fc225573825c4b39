// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// CONSOLE
// =============================================================================

// Console owns the registry, message log and prompt slot of one process.
// Dispatch, Ask and ExecuteOnBehalf must be called from a single goroutine;
// the message log may be read and appended from any goroutine.
type Console struct {
	role      Role
	registry  *Registry
	log       *MessageLog
	completer *Completer
	prompt    *pendingPrompt

	logger  *zap.Logger
	relayer Relayer
	replier Replier
	self    LocalPermissions

	enforce bool
	verbose bool
	noEcho  map[string]bool

	maxMessages int

	// per-requester rate limiting on the authority; disabled when rps is 0
	rps        rate.Limit
	burst      int
	limiterMu  sync.Mutex
	limiters   map[string]*rate.Limiter
	newRequest func() string
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the diagnostic logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRelayer sets where a ClientRelay console sends relayed commands.
func WithRelayer(r Relayer) Option {
	return func(c *Console) { c.relayer = r }
}

// WithReplier sets how the authority answers remote requesters.
func WithReplier(r Replier) Option {
	return func(c *Console) { c.replier = r }
}

// WithLocalPermissions sets the permissions of the local participant,
// consulted by ClientRelay consoles before relaying.
func WithLocalPermissions(p LocalPermissions) Option {
	return func(c *Console) { c.self = p }
}

// WithPermissionEnforcement toggles the local permission check of ClientRelay
// consoles. Disabling it is meant for trusted debug deployments. Requests
// executed on behalf of remote requesters are always checked.
func WithPermissionEnforcement(enabled bool) Option {
	return func(c *Console) { c.enforce = enabled }
}

// WithMaxMessages sets the message log capacity.
func WithMaxMessages(n int) Option {
	return func(c *Console) { c.maxMessages = n }
}

// WithNoEcho lists commands whose input line is not echoed to the log.
func WithNoEcho(names ...string) Option {
	return func(c *Console) {
		for _, n := range names {
			c.noEcho[fold(n)] = true
		}
	}
}

// WithVerbose enables Debugf output in the message log.
func WithVerbose(verbose bool) Option {
	return func(c *Console) { c.verbose = verbose }
}

// WithRateLimit limits each remote requester to rps commands per second with
// the given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Console) {
		c.rps = rate.Limit(rps)
		c.burst = burst
	}
}

// New creates a console for the given role.
func New(role Role, opts ...Option) *Console {
	c := &Console{
		role:        role,
		registry:    NewRegistry(),
		logger:      zap.NewNop(),
		enforce:     true,
		noEcho:      make(map[string]bool),
		maxMessages: DefaultMaxMessages,
		limiters:    make(map[string]*rate.Limiter),
		newRequest:  newRequestID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.burst < 1 {
		c.burst = 1
	}
	c.log = NewMessageLog(c.maxMessages)
	c.completer = NewCompleter(c.registry)
	c.logger = c.logger.With(zap.Stringer("role", role))
	return c
}

// Role returns the role fixed at construction.
func (c *Console) Role() Role { return c.role }

// Registry returns the command registry.
func (c *Console) Registry() *Registry { return c.registry }

// Messages returns the message log.
func (c *Console) Messages() *MessageLog { return c.log }

// Completer returns the tab completer bound to the registry.
func (c *Console) Completer() *Completer { return c.completer }

// Register adds a command to the registry.
func (c *Console) Register(cmd *Command) error {
	if err := c.registry.Register(cmd); err != nil {
		return err
	}
	c.logger.Debug("command registered", zap.Strings("aliases", cmd.Aliases))
	return nil
}

// MustRegister registers commands and panics on the first error.
func (c *Console) MustRegister(cmds ...*Command) {
	for _, cmd := range cmds {
		if err := c.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

// NewMessage appends text to the message log. Empty text is ignored.
func (c *Console) NewMessage(text string, severity Severity) {
	c.log.Append(text, severity)
}

// Printf appends a formatted info message.
func (c *Console) Printf(format string, args ...any) {
	c.NewMessage(fmt.Sprintf(format, args...), SeverityInfo)
}

// Errorf appends a formatted error message.
func (c *Console) Errorf(format string, args ...any) {
	c.NewMessage(fmt.Sprintf(format, args...), SeverityError)
}

// Debugf appends a formatted debug message when verbose output is enabled.
func (c *Console) Debugf(format string, args ...any) {
	if !c.verbose {
		return
	}
	c.NewMessage(fmt.Sprintf(format, args...), SeverityDebug)
}

// Reply sends text to a remote requester. Without a Replier the text is
// only written to the diagnostic log.
func (c *Console) Reply(req Requester, text string) {
	if req == nil || text == "" {
		return
	}
	if c.replier == nil {
		c.logger.Debug("reply dropped, no replier",
			zap.String("requester", req.ID()),
			zap.String("text", text))
		return
	}
	c.replier.SendChatMessage(req, text)
}

// Relay sends raw command text to the authority. Client handlers may call it
// to forward something after doing local work.
func (c *Console) Relay(text string) error {
	if c.relayer == nil {
		return ErrNotConnected
	}
	if err := c.relayer.SendConsoleCommand(ConsoleCommand{Text: text}); err != nil {
		return fmt.Errorf("relay %q: %w", text, err)
	}
	c.logger.Debug("command relayed", zap.String("text", text))
	return nil
}
