// Copyright (C) 2016 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serviceutil contains helpers for wiring things into a suture
// supervision tree.
package serviceutil

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/syncthing/watchfiles/lib/logger"
	"github.com/syncthing/watchfiles/lib/sync"
)

type ServiceWithError interface {
	suture.Service
	fmt.Stringer
	Error() error
}

// AsService wraps the given function to implement suture.Service. In
// addition it keeps track of the returned error and allows querying that
// error.
func AsService(fn func(ctx context.Context) error, creator string) ServiceWithError {
	return &service{
		creator: creator,
		serve:   fn,
		mut:     sync.NewMutex(),
	}
}

type service struct {
	creator string
	serve   func(ctx context.Context) error
	err     error
	mut     sync.Mutex
}

func (s *service) Serve(ctx context.Context) error {
	s.mut.Lock()
	s.err = nil
	s.mut.Unlock()

	err := s.serve(ctx)

	s.mut.Lock()
	s.err = err
	s.mut.Unlock()

	return err
}

func (s *service) Error() error {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.err
}

func (s *service) String() string {
	return fmt.Sprintf("Service@%p created by %v", s, s.creator)
}

// SpecWithDebugLogger returns a suture spec that routes supervisor events
// to the given logger at debug level.
func SpecWithDebugLogger(l logger.Logger) suture.Spec {
	return suture.Spec{
		EventHook: func(e suture.Event) { l.Debugln(e) },
	}
}
