// Copyright (C) 2016 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package watcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/syncthing/notify"

	"github.com/syncthing/watchfiles/lib/glob"
	"github.com/syncthing/watchfiles/lib/protocol"
)

// Event is one raw change below a watched directory.
type Event struct {
	Path string // full path
	Type protocol.FileChangeType
}

// Backend is the underlying OS level watch primitive. Watch recursively
// watches dir and delivers events for paths accepted by include and not
// matched by exclude, until ctx is cancelled.
type Backend interface {
	Watch(ctx context.Context, dir string, include, exclude glob.Matcher) (<-chan Event, error)
}

// Notify does not block on sending to channel, so the channel must be buffered.
// The actual number is magic.
// Not meant to be changed, but must be changeable for tests
var backendBuffer = 500

type notifyBackend struct{}

// NewNotifyBackend returns the default Backend, built on the inotify,
// FSEvents, kqueue or ReadDirectoryChangesW facility of the host.
func NewNotifyBackend() Backend {
	return notifyBackend{}
}

func (notifyBackend) Watch(ctx context.Context, dir string, include, exclude glob.Matcher) (<-chan Event, error) {
	backendChan := make(chan notify.EventInfo, backendBuffer)

	eventMask := notify.Create | notify.Write | notify.Remove | notify.Rename

	absShouldIgnore := func(absPath string) bool {
		return exclude.Match(filepath.ToSlash(absPath))
	}
	if err := notify.WatchWithFilter(filepath.Join(dir, "..."), backendChan, absShouldIgnore, eventMask); err != nil {
		notify.Stop(backendChan)
		return nil, err
	}

	outChan := make(chan Event)
	go watchLoop(ctx, backendChan, outChan, include, exclude)
	return outChan, nil
}

func watchLoop(ctx context.Context, backendChan chan notify.EventInfo, outChan chan<- Event, include, exclude glob.Matcher) {
	for {
		// Detect channel overflow
		if len(backendChan) == backendBuffer {
		outer:
			for {
				select {
				case <-backendChan:
				default:
					break outer
				}
			}
			l.Warnln("Event overflow, change notifications have been lost")
		}

		select {
		case ev := <-backendChan:
			path := filepath.ToSlash(ev.Path())
			if exclude.Match(path) || !include.Match(path) {
				l.Debugln("Backend: skipping", path)
				continue
			}
			select {
			case outChan <- Event{Path: ev.Path(), Type: eventType(ev.Event())}:
				l.Debugln("Backend: sending", path)
			case <-ctx.Done():
				notify.Stop(backendChan)
				return
			}
		case <-ctx.Done():
			notify.Stop(backendChan)
			return
		}
	}
}

func eventType(ev notify.Event) protocol.FileChangeType {
	switch {
	case ev&notify.Create != 0:
		return protocol.Created
	case ev&notify.Write != 0:
		return protocol.Changed
	case ev&notify.Remove != 0 || ev&notify.Rename != 0:
		return protocol.Deleted
	default:
		panic(fmt.Sprintf("bug: backend delivered event %v outside its mask", ev))
	}
}
