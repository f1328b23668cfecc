// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ignore

import "testing"

func TestDefault(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/home/user/proj/.git/objects/ab/cdef0123", true},
		{"/home/user/proj/.git/subtree-cache/12345/x", true},
		{"/home/user/proj/node_modules/leftpad/index.js", true},
		{"/home/user/proj/node_modules/leftpad/lib/pad.js", true},

		// Files directly in node_modules are not one package level deep
		{"/home/user/proj/node_modules/index.js", false},
		// Other .git contents stay visible
		{"/home/user/proj/.git/HEAD", false},
		{"/home/user/proj/src/main.go", false},
		{"/home/user/proj/objects/x", false},
	}

	for _, tc := range cases {
		if res := Default.Match(tc.path); res != tc.want {
			t.Errorf("Match(%q) => %v, expected %v", tc.path, res, tc.want)
		}
	}
}
