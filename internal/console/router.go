// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import (
	"errors"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// LOCAL DISPATCH
// =============================================================================

// Dispatch handles one line typed by the local operator.
//
// A pending prompt consumes the line verbatim. Otherwise the line is
// tokenized and executed according to the console role: Standalone and the
// authority's own operator run the Local handler, ClientRelay runs the Client
// handler or relays the line. Failures are reported to the message log.
func (c *Console) Dispatch(line string) {
	if p := c.takePrompt(); p != nil {
		c.NewMessage(line, SeverityInfo)
		if err := c.invoke("", nil, func() error {
			p.answer(line)
			return nil
		}); err != nil {
			c.report(err, nil)
		}
		return
	}

	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return
	}
	name := fold(tokens[0])
	args := tokens[1:]

	if !c.noEcho[name] {
		c.NewMessage(line, SeverityInfo)
	}

	if c.role == ClientRelay {
		c.dispatchClient(line, tokens[0], args)
		return
	}

	cmd := c.registry.Find(name)
	if cmd == nil {
		c.Errorf("Command %q not found.", tokens[0])
		return
	}
	if err := c.invoke(cmd.Name(), nil, func() error {
		return cmd.Local(c, args)
	}); err != nil {
		c.report(err, nil)
	}
}

// dispatchClient applies the participant's coarse permission and then either
// runs the Client handler or relays the unmodified line.
func (c *Console) dispatchClient(line, name string, args []string) {
	if c.enforce && (c.self == nil || !c.self.HasConsolePermission()) {
		err := &PermissionError{}
		c.logger.Info("console command denied locally", zap.String("command", name))
		c.Errorf("%s", err.Error())
		return
	}

	cmd := c.registry.Find(name)
	if cmd == nil {
		c.Errorf("Command %q not found.", name)
		return
	}

	if cmd.RelayToServer() {
		if err := c.Relay(line); err != nil {
			c.Errorf("Failed to send the command to the server: %v", err)
			return
		}
		c.Printf("Server command: %s", line)
		return
	}

	if err := c.invoke(cmd.Name(), nil, func() error {
		return cmd.Client(c, args)
	}); err != nil {
		c.report(err, nil)
	}
}

// =============================================================================
// REMOTE REQUESTS
// =============================================================================

// ExecuteOnBehalf runs a command received from a remote requester. Only an
// authority console accepts requests.
//
// The requester needs the coarse console capability and the command must be
// on their allow-list. Denials, unknown commands, handler errors and faults
// are answered through the Replier; nothing propagates to the caller.
func (c *Console) ExecuteOnBehalf(req Requester, origin Vector2, text string) {
	if req == nil || strings.TrimSpace(text) == "" {
		return
	}
	if c.role != ServerOnBehalf {
		c.logger.Warn("remote console command ignored, not the authority",
			zap.String("requester", req.ID()))
		return
	}

	log := c.logger.With(
		zap.String("request_id", c.newRequest()),
		zap.String("requester", req.ID()),
	)

	if !c.allowRequest(req.ID()) {
		log.Warn("console command rate limited")
		c.Reply(req, "Too many console commands, please wait before trying again.")
		return
	}

	if !req.HasConsolePermission() {
		log.Info("console command denied", zap.String("reason", "no console permission"))
		c.Reply(req, (&PermissionError{Requester: req.Name()}).Error())
		return
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return
	}
	cmd := c.registry.Find(tokens[0])
	if cmd == nil {
		c.Reply(req, "Command \""+tokens[0]+"\" not found.")
		return
	}
	if !req.IsCommandPermitted(cmd.Name()) {
		log.Info("console command denied",
			zap.String("command", cmd.Name()),
			zap.String("reason", "not on allow-list"))
		c.Reply(req, (&PermissionError{Command: cmd.Name(), Requester: req.Name()}).Error())
		return
	}

	c.Debugf("%s: %s", req.Name(), text)
	log.Info("executing console command on behalf of requester",
		zap.String("command", cmd.Name()),
		zap.Float32("origin_x", origin.X),
		zap.Float32("origin_y", origin.Y))

	args := tokens[1:]
	err := c.invoke(cmd.Name(), req, func() error {
		if cmd.OnBehalf != nil {
			return cmd.OnBehalf(c, req, origin, args)
		}
		return cmd.Local(c, args)
	})
	if err != nil {
		c.report(err, req)
	}
}

// ForgetRequester drops the rate limiter state of a disconnected requester.
func (c *Console) ForgetRequester(id string) {
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()
	delete(c.limiters, id)
}

func (c *Console) allowRequest(id string) bool {
	if c.rps <= 0 {
		return true
	}
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()

	l, ok := c.limiters[id]
	if !ok {
		l = rate.NewLimiter(c.rps, c.burst)
		c.limiters[id] = l
	}
	return l.Allow()
}

// =============================================================================
// FAULT BOUNDARY
// =============================================================================

// invoke runs fn and converts a panic into a *HandlerFault. This is the only
// place handler panics are recovered.
func (c *Console) invoke(command string, req Requester, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault := &HandlerFault{Command: command, Value: r, Stack: debug.Stack()}
			if req != nil {
				fault.Requester = req.Name()
			}
			err = fault
		}
	}()
	return fn()
}

// report writes a handler failure to the message log and, for remote
// requests, replies to the requester.
func (c *Console) report(err error, req Requester) {
	var fault *HandlerFault
	if errors.As(err, &fault) {
		c.logger.Error("console command fault",
			zap.String("command", fault.Command),
			zap.String("requester", fault.Requester),
			zap.Any("fault", fault.Value),
			zap.ByteString("stack", fault.Stack))
		c.NewMessage(fault.Describe(), SeverityError)
		c.Reply(req, fault.Summary())
		return
	}

	c.NewMessage(err.Error(), SeverityError)
	c.Reply(req, err.Error())
}

func newRequestID() string {
	return uuid.NewString()
}
