// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package glob

import (
	"strings"
	"unicode/utf8"
)

// A Matcher reports whether a path matches. Matchers are immutable once
// built and may be shared freely between goroutines.
type Matcher interface {
	Match(path string) bool
}

// Union returns a matcher that matches when any of the given matchers
// match. The empty union matches nothing, making it the starting
// accumulator when folding pattern lists.
func Union(matchers ...Matcher) Matcher {
	return union(matchers)
}

type union []Matcher

func (u union) Match(path string) bool {
	for _, m := range u {
		if m.Match(path) {
			return true
		}
	}
	return false
}

// Rooted returns a matcher that matches paths directly below dir for which
// the remainder, sans separator, matches m. It is the literal-directory
// prefix used for watchers declared against a single base directory.
func Rooted(dir string, m Matcher) Matcher {
	return &rooted{
		prefix: strings.TrimSuffix(dir, "/") + "/",
		inner:  m,
	}
}

type rooted struct {
	prefix string
	inner  Matcher
}

func (r *rooted) Match(path string) bool {
	rest, ok := strings.CutPrefix(path, r.prefix)
	if !ok {
		return false
	}
	return r.inner.Match(rest)
}

// Matching below is continuation passing: each node consumes a span of the
// candidate and hands the resulting offset to next, backtracking over all
// admissible spans until next succeeds. Greedy constructs therefore prefer
// the shortest span that lets the rest of the pattern match.

type nextFunc func(pos int) bool

type node interface {
	match(s string, pos int, next nextFunc) bool
}

func matchSeq(seq []node, idx int, s string, pos int, next nextFunc) bool {
	if idx == len(seq) {
		return next(pos)
	}
	return seq[idx].match(s, pos, func(end int) bool {
		return matchSeq(seq, idx+1, s, end, next)
	})
}

type literal string

func (l literal) match(s string, pos int, next nextFunc) bool {
	end := pos + len(l)
	if end > len(s) || s[pos:end] != string(l) {
		return false
	}
	return next(end)
}

type anyChar struct{}

func (anyChar) match(s string, pos int, next nextFunc) bool {
	if pos >= len(s) {
		return false
	}
	r, size := utf8.DecodeRuneInString(s[pos:])
	if r == '/' {
		return false
	}
	return next(pos + size)
}

type charRange struct {
	lo, hi rune
}

type charClass struct {
	negate bool
	ranges []charRange
}

func (c charClass) match(s string, pos int, next nextFunc) bool {
	if pos >= len(s) {
		return false
	}
	r, size := utf8.DecodeRuneInString(s[pos:])
	var in bool
	for _, rr := range c.ranges {
		if r >= rr.lo && r <= rr.hi {
			in = true
			break
		}
	}
	if in == c.negate {
		return false
	}
	return next(pos + size)
}

// star matches any run of characters within one path segment.
type star struct{}

func (star) match(s string, pos int, next nextFunc) bool {
	for i := pos; ; {
		if next(i) {
			return true
		}
		if i >= len(s) {
			return false
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '/' {
			return false
		}
		i += size
	}
}

// doubleStar is a trailing "**"; it swallows the rest of the candidate,
// separators included.
type doubleStar struct{}

func (doubleStar) match(s string, pos int, next nextFunc) bool {
	for i := pos; ; {
		if next(i) {
			return true
		}
		if i >= len(s) {
			return false
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
}

// doubleStarSlash is "**/": zero or more complete path segments, separator
// included.
type doubleStarSlash struct{}

func (doubleStarSlash) match(s string, pos int, next nextFunc) bool {
	if next(pos) {
		return true
	}
	for i := pos; i < len(s); i++ {
		if s[i] == '/' && next(i+1) {
			return true
		}
	}
	return false
}

// alternation holds the branches of a brace group, tried in declaration
// order.
type alternation [][]node

func (a alternation) match(s string, pos int, next nextFunc) bool {
	for _, branch := range a {
		if matchSeq(branch, 0, s, pos, next) {
			return true
		}
	}
	return false
}
