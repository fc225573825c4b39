// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import (
	"sync"
	"time"
)

// DefaultMaxMessages is the message log capacity used when none is configured.
const DefaultMaxMessages = 200

// =============================================================================
// SEVERITY
// =============================================================================

// Severity tags a message for display.
type Severity int

const (
	// SeverityInfo is plain output and echoed input.
	SeverityInfo Severity = iota
	// SeverityNotice is used for prompts and help text.
	SeverityNotice
	// SeverityWarning marks recoverable problems.
	SeverityWarning
	// SeverityError marks failed commands, denials and faults.
	SeverityError
	// SeverityDebug is verbose diagnostic output.
	SeverityDebug
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityNotice:
		return "notice"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ColoredMessage is one immutable log entry.
type ColoredMessage struct {
	// Seq increases by one per appended message, starting at 1.
	Seq      uint64
	Text     string
	Severity Severity
	Time     time.Time
}

// =============================================================================
// MESSAGE LOG
// =============================================================================

// MessageLog is a bounded, ordered message sink. It is safe for concurrent use:
// network handlers append while the render loop polls.
type MessageLog struct {
	mu       sync.Mutex
	messages []ColoredMessage
	capacity int
	seq      uint64
	selected int
	now      func() time.Time
}

// NewMessageLog creates a log holding at most capacity messages.
// A capacity <= 0 uses DefaultMaxMessages.
func NewMessageLog(capacity int) *MessageLog {
	if capacity <= 0 {
		capacity = DefaultMaxMessages
	}
	return &MessageLog{
		capacity: capacity,
		messages: make([]ColoredMessage, 0, capacity),
		now:      time.Now,
	}
}

// Append adds a message at the tail, evicting from the head when full.
// Empty text is ignored. Returns the stored message.
func (l *MessageLog) Append(text string, severity Severity) (ColoredMessage, bool) {
	if text == "" {
		return ColoredMessage{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	msg := ColoredMessage{
		Seq:      l.seq,
		Text:     text,
		Severity: severity,
		Time:     l.now(),
	}
	l.messages = append(l.messages, msg)
	if over := len(l.messages) - l.capacity; over > 0 {
		// Copy down so the backing array does not grow without bound.
		n := copy(l.messages, l.messages[over:])
		l.messages = l.messages[:n]
	}
	return msg, true
}

// Messages returns a copy of the retained messages, oldest first.
func (l *MessageLog) Messages() []ColoredMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ColoredMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Since returns retained messages with Seq greater than after, and the Seq
// to pass next time. Pollers start with 0.
func (l *MessageLog) Since(after uint64) ([]ColoredMessage, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []ColoredMessage
	for _, m := range l.messages {
		if m.Seq > after {
			out = append(out, m)
		}
	}
	return out, l.seq
}

// Len returns the number of retained messages.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Capacity returns the maximum number of retained messages.
func (l *MessageLog) Capacity() int {
	return l.capacity
}

// Clear drops all retained messages. Sequence numbers keep increasing.
func (l *MessageLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
	l.selected = 0
}

// Select moves the history cursor by direction (clamped to -1..1) and
// returns the text under it, wrapping at both ends. Used for up/down
// recall of earlier lines. Returns "" when the log is empty.
func (l *MessageLog) Select(direction int) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.messages) == 0 {
		return ""
	}
	if direction > 1 {
		direction = 1
	} else if direction < -1 {
		direction = -1
	}

	l.selected += direction
	if l.selected < 0 {
		l.selected = len(l.messages) - 1
	}
	l.selected %= len(l.messages)
	return l.messages[l.selected].Text
}
