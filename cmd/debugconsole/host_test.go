// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/debugconsole/internal/config"
	"github.com/jeranaias/debugconsole/internal/console"
	"github.com/jeranaias/debugconsole/internal/permstore"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestHost(t *testing.T, role console.Role, store *permstore.Store, selfID string) *host {
	t.Helper()
	h, err := newHost(config.Default(), role, store, selfID, zap.NewNop())
	require.NoError(t, err)
	return h
}

func memStore(t *testing.T) *permstore.Store {
	t.Helper()
	s, err := permstore.Open("")
	require.NoError(t, err)
	return s
}

func texts(c *console.Console) []string {
	var out []string
	for _, m := range c.Messages().Messages() {
		out = append(out, m.Text)
	}
	return out
}

// scriptedInput replays lines, then reports EOF.
type scriptedInput struct {
	lines   []string
	errs    map[int]error
	prompts []string
}

func (s *scriptedInput) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	n := len(s.prompts) - 1
	if err, ok := s.errs[n]; ok {
		return "", err
	}
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

// =============================================================================
// STANDALONE
// =============================================================================

func TestHost_StandaloneSeedsStore(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.Standalone, store, "")

	seeded, ok := store.Find("1")
	require.True(t, ok)
	assert.True(t, seeded.HasConsolePermission())
	assert.True(t, seeded.IsCommandPermitted("ban"))
	assert.True(t, seeded.IsCommandPermitted("help"))

	h.submit("clientlist")
	assert.Equal(t, []string{
		"clientlist",
		"***************",
		"- 1: Host, 127.0.0.1",
		"***************",
	}, texts(h.local))
}

func TestSeedStore_LogsOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := memStore(t)
	_, err := newHost(config.Default(), console.Standalone, store, "", zap.New(core))
	require.NoError(t, err)

	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	seeded := logs.FilterMessage("permission store empty, seeded local participant").All()
	require.Len(t, seeded, 1)
	assert.Equal(t, "1", seeded[0].ContextMap()["requester"])

	logs.TakeAll()
	seedStore(store, console.NewRegistry(), zap.New(core))
	assert.Zero(t, logs.Len(), "populated store is left alone")
}

func TestHost_KickPromptChain(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.Standalone, store, "")
	store.Add("2", "Guest", "10.0.0.2")

	h.submit("kick guest")
	q, pending := h.local.PendingQuestion()
	require.True(t, pending)
	assert.Equal(t, `Reason for kicking "guest"?`, q)

	h.submit("griefing")
	_, pending = h.local.PendingQuestion()
	assert.False(t, pending)
	assert.Contains(t, texts(h.local), "Kicked Guest. Reason: griefing")

	_, ok := store.Find("2")
	assert.False(t, ok)
}

func TestHost_KickUnknownPlayer(t *testing.T) {
	h := newTestHost(t, console.Standalone, memStore(t), "")

	h.submit("kick nobody")
	h.submit("")
	msgs := h.local.Messages().Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, `Player "nobody" not found.`, last.Text)
	assert.Equal(t, console.SeverityError, last.Severity)
}

func TestHost_BanPromptChain(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.Standalone, store, "")
	h.server.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	store.Add("2", "Guest", "")

	h.submit("ban Guest")
	h.submit("spam")
	h.submit("soon")
	assert.Contains(t, texts(h.local),
		`"soon" is not a valid ban duration. Use the format `+console.DurationFormatHelp+".")
	_, ok := store.Find("2")
	assert.True(t, ok, "invalid duration must not ban")

	h.submit("ban Guest")
	h.submit("spam")
	h.submit("1d 2h")
	assert.Contains(t, texts(h.local), "Banned Guest for 26h0m0s.")
	_, ok = store.Find("2")
	assert.False(t, ok)

	h.submit("banlist")
	assert.Contains(t, texts(h.local), "- Guest (until 2025-01-02 02:00:00): spam")

	h.submit("unban guest")
	h.submit("banlist")
	assert.Equal(t, "No players are banned.", texts(h.local)[len(texts(h.local))-1])
}

func TestHost_BanPermanent(t *testing.T) {
	h := newTestHost(t, console.Standalone, memStore(t), "")

	h.submit("ban Ghost")
	h.submit("")
	h.submit("")
	assert.Contains(t, texts(h.local), "Banned Ghost permanently.")
}

func TestHost_GivePermWithPrompt(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.Standalone, store, "")
	guest := store.Add("2", "Guest", "")

	h.submit("giveperm 2")
	q, _ := h.local.PendingQuestion()
	assert.Equal(t, `Permission to grant to "Guest"?`, q)
	h.submit("kick, ban")
	assert.Equal(t, permstore.Kick|permstore.Ban, guest.Permissions())
	assert.Contains(t, texts(h.local), "Granted Kick, Ban permissions to Guest.")

	h.submit("revokeperm 2 all")
	assert.Equal(t, permstore.None, guest.Permissions())

	h.submit("giveperm 2 fly")
	assert.Contains(t, texts(h.local)[len(texts(h.local))-1], "unknown permission")

	h.submit("giveperm 9")
	assert.Equal(t, `Client id "9" not found.`, texts(h.local)[len(texts(h.local))-1])
}

func TestHost_RevokeAllKeepsConsoleAccess(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.Standalone, store, "")
	seeded, _ := store.Find("1")

	h.submit("revokeperm 1 all")
	assert.Equal(t, permstore.ConsoleCommands, seeded.Permissions())
}

// =============================================================================
// CLIENT LOOPBACK
// =============================================================================

func TestHost_ClientRelaysAndReceivesReplies(t *testing.T) {
	h := newTestHost(t, console.ClientRelay, memStore(t), "1")

	h.submit("say hello there")
	want := []string{
		"say hello there",
		"Server command: say hello there",
		"Host: hello there",
	}
	if diff := cmp.Diff(want, texts(h.local)); diff != "" {
		t.Errorf("client log mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, texts(h.authority), "Host: hello there")
}

func TestHost_ClientRunsHelpLocally(t *testing.T) {
	h := newTestHost(t, console.ClientRelay, memStore(t), "1")

	h.submit("help kick")
	assert.Equal(t, []string{"help kick", "kick [name]: Kick a player out of the server."}, texts(h.local))
	assert.Empty(t, h.outbox)
}

func TestHost_ClientWithoutConsolePermission(t *testing.T) {
	store := memStore(t)
	store.Add("2", "Guest", "")
	h := newTestHost(t, console.ClientRelay, store, "2")

	h.submit("say hi")
	assert.Equal(t, "You are not permitted to use console commands!", texts(h.local)[len(texts(h.local))-1])
	assert.Empty(t, texts(h.authority))
}

func TestHost_ClientCommandNotOnAllowList(t *testing.T) {
	store := memStore(t)
	store.Add("2", "Guest", "")
	require.NoError(t, store.Grant("2", permstore.ConsoleCommands))
	h := newTestHost(t, console.ClientRelay, store, "2")

	h.submit("say hi")
	assert.Equal(t, `You are not permitted to use the command "say"!`, texts(h.local)[len(texts(h.local))-1])
}

func TestHost_ClientPromptChainRelaysAnswer(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.ClientRelay, store, "1")
	guest := store.Add("2", "Guest", "")

	h.submit("giveperm 2")
	q, pending := h.local.PendingQuestion()
	require.True(t, pending)
	assert.Equal(t, `Permission to grant to "client 2"?`, q)

	h.submit("kick")
	assert.Equal(t, permstore.Kick, guest.Permissions())
	assert.Contains(t, texts(h.local), `Server command: giveperm "2" "kick"`)
	assert.Contains(t, texts(h.local), "Granted Kick permissions to Guest.")
}

func TestHost_ClientBanRelaysDefaults(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.ClientRelay, store, "1")
	store.Add("2", "Guest", "")

	h.submit("ban Guest")
	h.submit("")
	h.submit("")
	assert.Contains(t, texts(h.local), `Server command: ban "Guest" "No reason given." "permanent"`)
	assert.Contains(t, texts(h.local), "Banned Guest permanently.")
}

func TestHost_ClientUnknownSelf(t *testing.T) {
	store := memStore(t)
	_, err := newHost(config.Default(), console.ClientRelay, store, "42", zap.NewNop())
	require.Error(t, err)
}

// =============================================================================
// INPUT LOOP
// =============================================================================

func TestHost_LoopPrintsAndQuits(t *testing.T) {
	h := newTestHost(t, console.Standalone, memStore(t), "")
	in := &scriptedInput{lines: []string{"say hi", "exit", "say never"}}
	var out bytes.Buffer

	err := h.loop(context.Background(), in, newPrinter(&out, false, 0))
	require.ErrorIs(t, err, errQuit)
	assert.Contains(t, out.String(), "HOST: hi\n")
	assert.NotContains(t, out.String(), "never")
}

func TestHost_LoopAbortCancelsPrompt(t *testing.T) {
	store := memStore(t)
	h := newTestHost(t, console.Standalone, store, "")
	store.Add("2", "Guest", "")
	in := &scriptedInput{
		lines: []string{"kick Guest"},
		errs:  map[int]error{1: errAborted},
	}
	var out bytes.Buffer

	err := h.loop(context.Background(), in, newPrinter(&out, false, 0))
	require.ErrorIs(t, err, errQuit)
	assert.Equal(t, []string{"> ", "? ", "> "}, in.prompts)
	assert.Contains(t, out.String(), "Cancelled.")
	_, ok := store.Find("2")
	assert.True(t, ok)
}

func TestHost_LoopExitAnswersPrompt(t *testing.T) {
	h := newTestHost(t, console.Standalone, memStore(t), "")
	in := &scriptedInput{lines: []string{"kick Guest", "exit"}}

	err := h.loop(context.Background(), in, newPrinter(io.Discard, false, 0))
	require.ErrorIs(t, err, errQuit)
	assert.Contains(t, texts(h.local), `Player "Guest" not found.`)
}

// =============================================================================
// HELPERS
// =============================================================================

func TestQuoteCommand_Tokenizes(t *testing.T) {
	args := []string{"Guest", `say "hi"`, `back\slash`, "two words"}
	line := quoteCommand("kick", args...)
	assert.Equal(t, append([]string{"kick"}, args...), console.Tokenize(line))
}

func TestPrinter_WrapsAndTracksPosition(t *testing.T) {
	log := console.NewMessageLog(10)
	var out bytes.Buffer
	p := newPrinter(&out, false, 10)

	log.Append("hello world again", console.SeverityInfo)
	p.flush(log)
	assert.Equal(t, "hello\nworld\nagain\n", out.String())

	out.Reset()
	p.flush(log)
	assert.Empty(t, out.String())

	log.Append("next", console.SeverityError)
	p.flush(log)
	assert.Equal(t, "next\n", out.String())
}

func TestTabCompleter_CyclesThroughConsoleCompleter(t *testing.T) {
	h := newTestHost(t, console.Standalone, memStore(t), "")
	c := h.local.Completer()
	tab := &tabCompleter{completer: c}

	assert.Equal(t, []string{"ban"}, tab.complete("ba"))
	assert.Equal(t, "ba", c.Stem())
	assert.Equal(t, []string{"banlist"}, tab.complete("ban"))
	assert.Equal(t, []string{"ban"}, tab.complete("banlist"))

	// editing the line starts over from the new text
	assert.Equal(t, []string{"kick"}, tab.complete("ki"))
	assert.Equal(t, "ki", c.Stem())

	assert.Nil(t, tab.complete("ban x"))
	assert.Empty(t, c.Stem())
	assert.Nil(t, tab.complete("zzz"))
}

func TestHost_SubmitResetsCompleter(t *testing.T) {
	h := newTestHost(t, console.Standalone, memStore(t), "")
	tab := &tabCompleter{completer: h.local.Completer()}

	assert.Equal(t, []string{"ban"}, tab.complete("ba"))
	h.submit("ban")
	assert.Empty(t, h.local.Completer().Stem())
}
