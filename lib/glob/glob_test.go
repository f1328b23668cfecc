// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package glob

import "testing"

var matchCases = []struct {
	pattern string
	path    string
	want    bool
}{
	// Single segment star
	{"*.txt", "a.txt", true},
	{"*.txt", ".txt", true},
	{"*.txt", "a/b.txt", false},
	{"*.txt", "a.txtx", false},

	// Question mark, one non-separator character
	{"?at", "cat", true},
	{"?at", "at", false},
	{"a?c", "a/c", false},
	{"a?c", "abc", true},

	// Double star crossing segments
	{"**/*.txt", "a/b/c.txt", true},
	{"**/*.txt", "c.txt", true},
	{"**/*.txt", "a/b/c.txtx", false},
	{"**/*.txt", "a/b.txt/c", false},
	{"**", "a/b/c", true},
	{"**", "", true},
	{"src/**", "src/a/b", true},
	{"src/**", "src/", true},
	{"src/**", "src", false},
	{"**/foo", "foo", true},
	{"**/foo", "a/b/foo", true},
	{"**/foo", "afoo", false},
	{"**/node_modules/*/**", "x/node_modules/pkg/index.js", true},
	{"**/node_modules/*/**", "x/node_modules/index.js", false},

	// Star runs away from a segment boundary are plain stars
	{"a**b", "axxb", true},
	{"a**b", "ab", true},
	{"a**b", "a/b", false},

	// Character classes
	{"[a-c].txt", "a.txt", true},
	{"[a-c].txt", "b.txt", true},
	{"[a-c].txt", "c.txt", true},
	{"[a-c].txt", "d.txt", false},
	{"[!a-c].txt", "d.txt", true},
	{"[!a-c].txt", "a.txt", false},
	{"[a-cx-z]1", "a1", true},
	{"[a-cx-z]1", "y1", true},
	{"[a-cx-z]1", "m1", false},

	// Brace alternation
	{"file.{js,ts}", "file.js", true},
	{"file.{js,ts}", "file.ts", true},
	{"file.{js,ts}", "file.jsx", false},
	{"file.{js,ts}", "file.j", false},
	{"a{b,c{d,e}}f", "abf", true},
	{"a{b,c{d,e}}f", "acdf", true},
	{"a{b,c{d,e}}f", "acef", true},
	{"a{b,c{d,e}}f", "acf", false},
	{"file.{,bak}", "file.", true},
	{"file.{,bak}", "file.bak", true},
	{"file.{,bak}", "file.x", false},

	// Star is a literal inside braces
	{"{*.js}", "*.js", true},
	{"{*.js}", "a.js", false},

	// Anchoring at both ends
	{"foo", "foo", true},
	{"foo", "foobar", false},
	{"foo", "barfoo", false},
}

func TestMatch(t *testing.T) {
	for _, tc := range matchCases {
		m, err := Compile(tc.pattern)
		if err != nil {
			t.Errorf("Compile(%q): %v", tc.pattern, err)
			continue
		}
		if res := m.Match(tc.path); res != tc.want {
			t.Errorf("Match(%q) on %q => %v, expected %v", tc.path, tc.pattern, res, tc.want)
		}
	}
}

func TestMatchDeterministic(t *testing.T) {
	for _, tc := range matchCases {
		m, err := Compile(tc.pattern)
		if err != nil {
			continue
		}
		first := m.Match(tc.path)
		for i := 0; i < 10; i++ {
			if m.Match(tc.path) != first {
				t.Errorf("Match(%q) on %q is not deterministic", tc.path, tc.pattern)
				break
			}
		}
	}
}

func TestCompileErrors(t *testing.T) {
	badPatterns := []string{
		"[a-",
		"[a-c",
		"[abc]",
		"[]",
		"[!]",
		"a[0-9",
		"{a,b",
		"{a,{b,c}",
		"foo.{js",
	}
	for _, pattern := range badPatterns {
		if m, err := Compile(pattern); err == nil {
			t.Errorf("Compile(%q) succeeded (%v), expected error", pattern, m)
		}
	}
}

func TestUnion(t *testing.T) {
	if Union().Match("anything") {
		t.Error("The empty union matches nothing")
	}

	m := Union(MustCompile("**/*.go"), MustCompile("**/*.txt"))
	for path, want := range map[string]bool{
		"a/b.go":  true,
		"a/b.txt": true,
		"a/b.rs":  false,
	} {
		if res := m.Match(path); res != want {
			t.Errorf("Union match of %q => %v, expected %v", path, res, want)
		}
	}
}

func TestRooted(t *testing.T) {
	m := Rooted("/ws", MustCompile("**/*.go"))
	for path, want := range map[string]bool{
		"/ws/a/b.go":  true,
		"/ws/b.go":    true,
		"/other/a.go": false,
		"/wsx/a.go":   false,
		"/ws/a.txt":   false,
	} {
		if res := m.Match(path); res != want {
			t.Errorf("Rooted match of %q => %v, expected %v", path, res, want)
		}
	}

	// A trailing separator on the directory makes no difference.
	m = Rooted("/ws/", MustCompile("*.go"))
	if !m.Match("/ws/a.go") {
		t.Error("Expected match below dir with trailing separator")
	}
}

func BenchmarkMatch(b *testing.B) {
	m := MustCompile("**/node_modules/*/**")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Match("x/y/node_modules/pkg/lib/index.js")
	}
}
