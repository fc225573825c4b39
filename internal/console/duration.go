// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the embedded debug console.
package console

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// durationUnits maps the unit letters accepted by ParseDuration.
var durationUnits = map[rune]time.Duration{
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// DurationFormatHelp describes the accepted format in prompts and errors.
const DurationFormatHelp = `"[days] d [hours] h", "[days] d" or "[hours] h"`

// ParseDuration parses a human-readable span such as "1d 2h" or "90m".
//
// Each group is a run of digits followed by one of d, h, m or s. Whitespace
// is ignored and groups accumulate, so "1h 1h" is two hours. Digits with no
// unit after them are ignored.
func ParseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidDuration)
	}

	var (
		total  time.Duration
		digits strings.Builder
	)

	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case unicode.IsSpace(r):
			continue
		default:
			unit, ok := durationUnits[r]
			if !ok {
				return 0, fmt.Errorf("%w: unknown unit %q in %q", ErrInvalidDuration, r, s)
			}
			if digits.Len() == 0 {
				return 0, fmt.Errorf("%w: unit %q without a value in %q", ErrInvalidDuration, r, s)
			}
			n, err := strconv.ParseInt(digits.String(), 10, 32)
			if err != nil {
				return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, err)
			}
			if n > int64(math.MaxInt64/unit) || total > math.MaxInt64-time.Duration(n)*unit {
				return 0, fmt.Errorf("%w: %q is too large", ErrInvalidDuration, s)
			}
			total += time.Duration(n) * unit
			digits.Reset()
		}
	}

	return total, nil
}
