// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import "go.uber.org/zap"

// QuestionPrefix is prepended to prompt questions in the message log.
const QuestionPrefix = "   >>"

// pendingPrompt is a one-shot continuation waiting for the next input line.
type pendingPrompt struct {
	question string
	answer   func(answer string)
}

// Ask shows question and routes the next line passed to Dispatch, whatever
// it contains, to answer instead of executing it.
//
// There is a single slot: asking while another question is pending replaces
// it. The slot is cleared before answer runs, so answer may Ask again to
// chain questions.
func (c *Console) Ask(question string, answer func(answer string)) {
	if answer == nil {
		return
	}
	if c.prompt != nil {
		c.logger.Debug("pending prompt replaced",
			zap.String("previous", c.prompt.question),
			zap.String("question", question))
	}
	c.prompt = &pendingPrompt{question: question, answer: answer}
	c.NewMessage(QuestionPrefix+question, SeverityNotice)
}

// PendingQuestion returns the question awaiting an answer, if any.
func (c *Console) PendingQuestion() (string, bool) {
	if c.prompt == nil {
		return "", false
	}
	return c.prompt.question, true
}

// CancelPrompt drops the pending question without answering it.
func (c *Console) CancelPrompt() {
	c.prompt = nil
}

// takePrompt clears and returns the pending prompt.
func (c *Console) takePrompt() *pendingPrompt {
	p := c.prompt
	c.prompt = nil
	return p
}
