// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ignore provides the fixed exclusion filter applied to every
// installed watch. It keeps the watch backend out of directories that
// generate lots of events and never interest a subscriber.
package ignore

import "github.com/syncthing/watchfiles/lib/glob"

// Version control object stores and package manager trees, one package
// level deep and everything below it.
var defaultPatterns = []string{
	"**/.git/objects/**",
	"**/.git/subtree-cache/**",
	"**/node_modules/*/**",
}

// Default is the exclusion matcher shared by all registrations. It is
// built once and never mutated.
var Default = compileDefault()

func compileDefault() glob.Matcher {
	ms := make([]glob.Matcher, len(defaultPatterns))
	for i, pattern := range defaultPatterns {
		ms[i] = glob.MustCompile(pattern)
	}
	return glob.Union(ms...)
}
