// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain words", "spawn mudraptor outside", []string{"spawn", "mudraptor", "outside"}},
		{"quoted argument", `kick "Long Name"`, []string{"kick", "Long Name"}},
		{"escaped quotes", `say \"hi\"`, []string{"say", `"hi"`}},
		{"escaped backslash", `path a\\b`, []string{"path", `a\b`}},
		{"escaped other char is dropped", `say a\bc`, []string{"say", "ac"}},
		{"repeated spaces", "a   b", []string{"a", "b"}},
		{"surrounding whitespace", "  help  ", []string{"help"}},
		{"quotes join words", `ban "a b" "c"`, []string{"ban", "a b", "c"}},
		{"quote inside word", `a"b c"d`, []string{"ab cd"}},
		{"unterminated quote", `kick "Long Name`, []string{"kick", "Long Name"}},
		{"trailing backslash", `say hi\`, []string{"say", "hi"}},
		{"empty quotes", `say ""`, []string{"say"}},
		{"empty", "", nil},
		{"only spaces", "    ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

// TestTokenize_NeverPanics feeds malformed input that must not panic.
func TestTokenize_NeverPanics(t *testing.T) {
	inputs := []string{
		`"`, `\`, `\\\`, `"\`, `\"`, `"""`, "\x00\"\\", "日本 \"語", `a\ b`, "\t\"\t",
	}
	for _, in := range inputs {
		_ = Tokenize(in)
	}
}
