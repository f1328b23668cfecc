// Copyright (C) 2016 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Command watchfiles watches one or more directories for changes matching
// glob patterns and prints each batched notification as a line of JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/syncthing/watchfiles/lib/logger"
	"github.com/syncthing/watchfiles/lib/protocol"
	"github.com/syncthing/watchfiles/lib/watcher"
)

var l = logger.DefaultLogger.NewFacility("main", "Main")

type cli struct {
	Dir     []string      `arg:"" help:"Base directory to watch." type:"existingdir"`
	Pattern []string      `short:"p" default:"**" help:"Glob pattern to match, repeatable."`
	Delay   time.Duration `default:"100ms" help:"Quiet period before a batch is printed."`
}

func main() {
	var opts cli
	kong.Parse(&opts, kong.Description("Print batched file change notifications for the given directories."))

	watchers := make([]protocol.FileSystemWatcher, 0, len(opts.Pattern))
	for _, pattern := range opts.Pattern {
		watchers = append(watchers, protocol.FileSystemWatcher{
			Pattern: protocol.GlobPattern{Pattern: pattern},
		})
	}

	enc := json.NewEncoder(os.Stdout)
	mgr := watcher.NewManager(watcher.Config{Delay: opts.Delay})
	client := watcher.Client{
		ID:                  "cli",
		Folders:             opts.Dir,
		DynamicRegistration: true,
		Notify: func(params protocol.DidChangeWatchedFilesParams) {
			if err := enc.Encode(params); err != nil {
				l.Warnln("Encoding batch:", err)
			}
		},
	}

	if err := mgr.Register(client, "cli", watchers); err != nil {
		l.Warnln("Registration:", err)
		os.Exit(1)
	}
	l.Infof("Watching %d directories for %d patterns", len(opts.Dir), len(opts.Pattern))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := mgr.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Warnln("Exiting:", err)
		os.Exit(1)
	}
}
