// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package glob compiles glob patterns, as used in watched-file
// registrations, into matchers over slash separated paths.
//
// The supported grammar:
//
//	?           matches a single character, except the path separator
//	*           matches any run of characters, except the path separator
//	**          matches any number of complete path segments; it must sit
//	            at a segment boundary and be followed by a separator or
//	            end the pattern, otherwise it degrades to plain stars
//	[a-z0-9]    matches one character in the given ranges
//	[!a-z]      matches one character outside the given ranges
//	{js,ts}     matches if any comma separated condition matches; an empty
//	            condition matches the empty string
//
// Inside brace groups only ?, character classes and nested braces keep
// their meaning; notably * matches a literal asterisk there. Patterns are
// anchored: a match must cover the whole candidate string.
package glob

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	errUnterminatedClass = errors.New("unterminated character class")
	errEmptyClass        = errors.New("empty character class")
	errMalformedRange    = errors.New("malformed range in character class")
	errUnterminatedGroup = errors.New("unterminated brace group")
)

// Compile parses the given pattern and returns a matcher for it. The
// returned matcher is immutable and safe for concurrent use. A malformed
// pattern results in an error and no matcher.
func Compile(pattern string) (Matcher, error) {
	p := &parser{src: pattern}
	seq, err := p.sequence(false)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return &compiled{src: pattern, seq: seq}, nil
}

// MustCompile is like Compile but panics on malformed patterns. It is
// intended for patterns that are compile time constants.
func MustCompile(pattern string) Matcher {
	m, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// A compiled pattern is the sequential composition of its elements,
// terminated by an implicit end anchor in Match.
type compiled struct {
	src string
	seq []node
}

func (c *compiled) Match(path string) bool {
	return matchSeq(c.seq, 0, path, 0, func(pos int) bool {
		return pos == len(path)
	})
}

func (c *compiled) String() string {
	return c.src
}

type parser struct {
	src string
	pos int
}

// sequence parses elements until the end of the pattern or, inside a brace
// group, until a comma or closing brace.
func (p *parser) sequence(inGroup bool) ([]node, error) {
	var seq []node
	var lit []byte

	flush := func() {
		if len(lit) > 0 {
			seq = append(seq, literal(lit))
			lit = nil
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if inGroup && (c == ',' || c == '}') {
			break
		}
		switch c {
		case '*':
			if inGroup {
				// No wildcard meaning inside brace groups; a literal
				// asterisk.
				lit = append(lit, c)
				p.pos++
				continue
			}
			flush()
			n, err := p.stars()
			if err != nil {
				return nil, err
			}
			seq = append(seq, n)
		case '?':
			flush()
			seq = append(seq, anyChar{})
			p.pos++
		case '[':
			flush()
			n, err := p.class()
			if err != nil {
				return nil, err
			}
			seq = append(seq, n)
		case '{':
			flush()
			n, err := p.group()
			if err != nil {
				return nil, err
			}
			seq = append(seq, n)
		default:
			lit = append(lit, c)
			p.pos++
		}
	}
	flush()
	return seq, nil
}

// stars consumes a run of asterisks. Exactly two of them at a segment
// boundary, followed by a separator or the end of the pattern, form the
// double star construct; any other run collapses to a single star.
func (p *parser) stars() (node, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] == '*' {
		p.pos++
	}
	atBoundary := start == 0 || p.src[start-1] == '/'
	if p.pos-start == 2 && atBoundary {
		if p.pos == len(p.src) {
			return doubleStar{}, nil
		}
		if p.src[p.pos] == '/' {
			p.pos++
			return doubleStarSlash{}, nil
		}
	}
	return star{}, nil
}

func (p *parser) class() (node, error) {
	p.pos++ // '['
	var neg bool
	if p.pos < len(p.src) && p.src[p.pos] == '!' {
		neg = true
		p.pos++
	}
	var ranges []charRange
	for {
		if p.pos >= len(p.src) {
			return nil, errUnterminatedClass
		}
		if p.src[p.pos] == ']' {
			if len(ranges) == 0 {
				return nil, errEmptyClass
			}
			p.pos++
			return charClass{negate: neg, ranges: ranges}, nil
		}
		lo, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		if p.pos >= len(p.src) || p.src[p.pos] != '-' {
			return nil, errMalformedRange
		}
		p.pos++ // '-'
		if p.pos >= len(p.src) {
			return nil, errUnterminatedClass
		}
		if p.src[p.pos] == ']' {
			return nil, errMalformedRange
		}
		hi, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		ranges = append(ranges, charRange{lo, hi})
	}
}

func (p *parser) group() (node, error) {
	p.pos++ // '{'
	var branches alternation
	for {
		seq, err := p.sequence(true)
		if err != nil {
			return nil, err
		}
		branches = append(branches, seq)
		if p.pos >= len(p.src) {
			return nil, errUnterminatedGroup
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return branches, nil
		}
	}
}
