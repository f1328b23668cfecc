// Copyright (C) 2016 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package watcher turns watched-file registrations into active filesystem
// watches. A registration declares glob patterns and change kinds; the
// manager compiles the patterns, installs one recursive watch per base
// directory and feeds matching events to a per subscriber batcher, which
// eventually hands a deduplicated batch to the subscriber's transport.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/syncthing/watchfiles/lib/aggregator"
	"github.com/syncthing/watchfiles/lib/glob"
	"github.com/syncthing/watchfiles/lib/ignore"
	"github.com/syncthing/watchfiles/lib/protocol"
	"github.com/syncthing/watchfiles/lib/serviceutil"
	"github.com/syncthing/watchfiles/lib/sync"
)

const removeTimeout = 10 * time.Second

// Client identifies one subscriber and the collaborators belonging to it.
type Client struct {
	ID      string
	Folders []string // workspace base directories, absolute paths

	// DynamicRegistration mirrors the capability the subscriber declared.
	// Without it, registrations are silently ignored.
	DynamicRegistration bool

	// Notify is the notification transport; it receives at most one batch
	// per flush window.
	Notify aggregator.SendFunc
}

type Config struct {
	// Backend is the watch primitive. Nil means the notify based default.
	Backend Backend
	// Delay is the quiet period before a batch is flushed. Zero means
	// aggregator.DefaultDelay.
	Delay time.Duration
	// URIFor converts an event path to the identifier sent to the
	// transport. PathFromURI resolves the base URI of a single directory
	// watcher. Both have trivial file scheme defaults.
	URIFor      func(path string) string
	PathFromURI func(uri string) (string, error)
}

// Manager owns the active registrations of all subscribers. It must be
// served (directly or under a supervisor) for watches to run.
type Manager struct {
	backend     Backend
	delay       time.Duration
	uriFor      func(string) string
	pathFromURI func(string) (string, error)
	sup         *suture.Supervisor

	mut     sync.Mutex
	clients map[string]*clientState
}

type clientState struct {
	client  Client
	batcher *aggregator.Batcher
	regs    map[string][]suture.ServiceToken
}

func NewManager(cfg Config) *Manager {
	if cfg.Backend == nil {
		cfg.Backend = NewNotifyBackend()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = aggregator.DefaultDelay
	}
	if cfg.URIFor == nil {
		cfg.URIFor = func(path string) string { return "file://" + filepath.ToSlash(path) }
	}
	if cfg.PathFromURI == nil {
		cfg.PathFromURI = defaultPathFromURI
	}
	return &Manager{
		backend:     cfg.Backend,
		delay:       cfg.Delay,
		uriFor:      cfg.URIFor,
		pathFromURI: cfg.PathFromURI,
		sup:         suture.New("watcher", serviceutil.SpecWithDebugLogger(l)),
		mut:         sync.NewMutex(),
		clients:     make(map[string]*clientState),
	}
}

func defaultPathFromURI(uri string) (string, error) {
	path, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return "", fmt.Errorf("unsupported scheme in base URI %q", uri)
	}
	return path, nil
}

// Serve runs the manager and all watches installed through it.
func (m *Manager) Serve(ctx context.Context) error {
	return m.sup.Serve(ctx)
}

// A watchEntry pairs one compiled pattern with the kinds it wants.
// Entries keep declaration order; dispatch stops at the first match.
type watchEntry struct {
	matcher glob.Matcher
	kind    protocol.WatchKind
}

type dirGroup struct {
	dir     string
	entries []watchEntry
}

// Register compiles the declared watchers and installs one recursive
// watch per base directory. All patterns are compiled before any watch is
// installed, so a malformed pattern fails the whole call and leaves
// nothing behind. Registering an id that is already active replaces it.
func (m *Manager) Register(client Client, id string, watchers []protocol.FileSystemWatcher) error {
	if !client.DynamicRegistration || len(client.Folders) == 0 {
		// A counterpart registering without the capability, or without
		// any base directories, is ignored rather than rejected.
		l.Debugln("Ignoring registration", id, "from client", client.ID)
		return nil
	}

	var groups []*dirGroup
	index := make(map[string]*dirGroup)
	groupFor := func(dir string) *dirGroup {
		if g, ok := index[dir]; ok {
			return g
		}
		g := &dirGroup{dir: dir}
		index[dir] = g
		groups = append(groups, g)
		return g
	}

	for _, w := range watchers {
		kind := w.Kind
		if kind == 0 {
			kind = protocol.WatchAll
		}
		matcher, err := glob.Compile(w.Pattern.Pattern)
		if err != nil {
			return err
		}
		if w.Pattern.BaseURI == "" {
			// Applies to every workspace base directory.
			for _, dir := range client.Folders {
				g := groupFor(dir)
				g.entries = append(g.entries, watchEntry{matcher, kind})
			}
			continue
		}
		// Applies only below the one directory the URI names.
		base, err := m.pathFromURI(w.Pattern.BaseURI)
		if err != nil {
			return fmt.Errorf("watcher for %q: %w", w.Pattern.Pattern, err)
		}
		g := groupFor(base)
		g.entries = append(g.entries, watchEntry{glob.Rooted(base, matcher), kind})
	}

	m.mut.Lock()
	defer m.mut.Unlock()

	cs := m.clients[client.ID]
	if cs == nil {
		cs = &clientState{
			client:  client,
			batcher: aggregator.New(m.delay, client.Notify),
			regs:    make(map[string][]suture.ServiceToken),
		}
		m.clients[client.ID] = cs
	}
	if old, ok := cs.regs[id]; ok {
		delete(cs.regs, id)
		m.removeTokens(old)
	}

	tokens := make([]suture.ServiceToken, 0, len(groups))
	for _, g := range groups {
		coarse := make([]glob.Matcher, len(g.entries))
		for i, e := range g.entries {
			coarse[i] = e.matcher
		}
		svc := &watchService{
			backend: m.backend,
			dir:     g.dir,
			include: glob.Union(coarse...),
			entries: g.entries,
			batcher: cs.batcher,
			uriFor:  m.uriFor,
		}
		tokens = append(tokens, m.sup.Add(svc))
	}
	cs.regs[id] = tokens
	l.Debugf("Registered %d watches for client %s, registration %s", len(tokens), client.ID, id)
	return nil
}

// Unregister cancels the watches of the given registration. It is a no-op
// for unknown ids. When it returns, no further events are dispatched for
// the registration; events already queued in the batcher still flush.
func (m *Manager) Unregister(clientID, id string) {
	m.mut.Lock()
	defer m.mut.Unlock()

	cs := m.clients[clientID]
	if cs == nil {
		return
	}
	tokens, ok := cs.regs[id]
	if !ok {
		return
	}
	delete(cs.regs, id)
	if len(cs.regs) == 0 {
		delete(m.clients, clientID)
	}
	m.removeTokens(tokens)
	l.Debugln("Unregistered", id, "for client", clientID)
}

func (m *Manager) removeTokens(tokens []suture.ServiceToken) {
	for _, token := range tokens {
		if err := m.sup.RemoveAndWait(token, removeTimeout); err != nil {
			l.Debugln("Removing watch:", err)
		}
	}
}

// watchService is one installed watch: a recursive watch on dir with a
// coarse inclusion filter, dispatching fine grained matches to the
// subscriber's batcher.
type watchService struct {
	backend Backend
	dir     string
	include glob.Matcher
	entries []watchEntry
	batcher *aggregator.Batcher
	uriFor  func(string) string
}

func (s *watchService) Serve(ctx context.Context) error {
	events, err := s.backend.Watch(ctx, s.dir, s.include, ignore.Default)
	if err != nil {
		// The backend's own reliability is its concern; no retries here.
		l.Warnf("Watching %s: %v", s.dir, err)
		return suture.ErrDoNotRestart
	}
	l.Debugln("Watching", s.dir)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.dispatch(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch forwards the event at most once, via the first declared entry
// whose matcher and kind mask both accept it.
func (s *watchService) dispatch(ev Event) {
	want := ev.Type.Mask()
	path := filepath.ToSlash(ev.Path)
	for _, e := range s.entries {
		if e.kind&want != 0 && e.matcher.Match(path) {
			s.batcher.Submit(s.uriFor(ev.Path), ev.Type)
			return
		}
	}
}

func (s *watchService) String() string {
	return "watch@" + s.dir
}
