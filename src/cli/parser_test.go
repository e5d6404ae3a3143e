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

package cli

import "testing"

func TestTokenize(t *testing.T) {
	got := Tokenize("  SET   width 150  \n")
	want := []string{"SET", "width", "150"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize() = %v, want %v", got, want)
		}
	}
}

func TestMatchPrefixUniquePrefix(t *testing.T) {
	got, err := MatchPrefix("w", "PAUSE", "WIDTH", "GAP", "COUNT")
	if err != nil || got != "WIDTH" {
		t.Fatalf("MatchPrefix(w) = (%q, %v), want (WIDTH, nil)", got, err)
	}
}

func TestMatchPrefixCaseInsensitive(t *testing.T) {
	got, err := MatchPrefix("gAp", "PAUSE", "WIDTH", "GAP", "COUNT")
	if err != nil || got != "GAP" {
		t.Fatalf("MatchPrefix(gAp) = (%q, %v), want (GAP, nil)", got, err)
	}
}

func TestMatchPrefixAmbiguous(t *testing.T) {
	_, err := MatchPrefix("g", "GAP", "GPIO")
	if err != errAmbiguous {
		t.Fatalf("MatchPrefix(g) = %v, want errAmbiguous", err)
	}
}

func TestMatchPrefixNoMatch(t *testing.T) {
	_, err := MatchPrefix("z", "PAUSE", "WIDTH")
	if err != errNoMatch {
		t.Fatalf("MatchPrefix(z) = %v, want errNoMatch", err)
	}
}

func TestMatchPrefixExactBeatsAmbiguity(t *testing.T) {
	got, err := MatchPrefix("ON", "ON", "ONCE")
	if err != nil || got != "ON" {
		t.Fatalf("MatchPrefix(ON) = (%q, %v), want (ON, nil)", got, err)
	}
}
