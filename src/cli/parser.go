/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements the line-oriented host command surface: a
// whitespace tokenizer, unique-prefix abbreviation matching for verbs and
// their arguments, and the OK:/ERROR:/API-mode ack-byte dispatcher.
package cli

import (
	"errors"
	"strings"
)

var (
	errNoMatch   = errors.New("cli: no matching candidate")
	errAmbiguous = errors.New("cli: ambiguous abbreviation")
)

// Tokenize splits a command line on whitespace. Empty lines yield a nil
// slice.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// MatchPrefix resolves token against candidates case-insensitively,
// accepting any unique prefix. An exact case-insensitive match always
// wins even if it is also a prefix of another candidate (so "ON" matches
// "ON" outright rather than being reported ambiguous against some other
// candidate starting with "ON").
func MatchPrefix(token string, candidates ...string) (string, error) {
	lower := strings.ToLower(token)
	if lower == "" {
		return "", errNoMatch
	}

	var match string
	count := 0
	for _, c := range candidates {
		cl := strings.ToLower(c)
		if cl == lower {
			return c, nil
		}
		if strings.HasPrefix(cl, lower) {
			match = c
			count++
		}
	}
	switch count {
	case 0:
		return "", errNoMatch
	case 1:
		return match, nil
	default:
		return "", errAmbiguous
	}
}
