// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package protocol defines the wire level types of the watched files
// feature: the change kinds reported for a file, the kind masks a watcher
// declares interest in, and the batched notification payload.
package protocol

import "fmt"

// FileChangeType is the kind of change reported for a single file. The
// numeric values are fixed by the wire format.
type FileChangeType int

const (
	Created FileChangeType = 1 + iota
	Changed
	Deleted
)

func (t FileChangeType) String() string {
	switch t {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("unknown (%d)", int(t))
	}
}

// Mask returns the watch kind bit corresponding to the change type. The
// watch primitive guarantees it only ever reports the three known kinds;
// anything else is a broken contract, not an input error.
func (t FileChangeType) Mask() WatchKind {
	switch t {
	case Created:
		return WatchCreate
	case Changed:
		return WatchChange
	case Deleted:
		return WatchDelete
	default:
		panic(fmt.Sprintf("bug: file change type %d is not a known kind", int(t)))
	}
}

// WatchKind is a bitset of change kinds a watcher cares about.
type WatchKind int

const (
	WatchCreate WatchKind = 1 << iota
	WatchChange
	WatchDelete

	WatchAll = WatchCreate | WatchChange | WatchDelete
)

// FileEvent is one entry of the outbound notification batch.
type FileEvent struct {
	URI  string         `json:"uri"`
	Type FileChangeType `json:"type"`
}

// DidChangeWatchedFilesParams is the batch payload handed to the
// notification transport, at most once per flush window per subscriber.
type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}

// GlobPattern is the pattern half of a watcher declaration. With an empty
// BaseURI the pattern applies to every workspace base directory; otherwise
// it applies below the one directory the URI names.
type GlobPattern struct {
	BaseURI string `json:"baseUri,omitempty"`
	Pattern string `json:"pattern"`
}

// FileSystemWatcher is one declared watcher of a registration request. A
// zero Kind means unspecified and defaults to WatchAll at registration.
type FileSystemWatcher struct {
	Pattern GlobPattern `json:"globPattern"`
	Kind    WatchKind   `json:"kind,omitempty"`
}
