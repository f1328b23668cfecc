// Copyright (C) 2015 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sync provides mutexes that can log when they are held for a long
// time, when debugging for the "sync" facility is enabled. Otherwise they
// are plain stdlib mutexes.
package sync

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

type Mutex interface {
	Lock()
	Unlock()
}

type RWMutex interface {
	Mutex
	RLock()
	RUnlock()
}

type WaitGroup interface {
	Add(int)
	Done()
	Wait()
}

func NewMutex() Mutex {
	if debug {
		return &loggedMutex{}
	}
	return &sync.Mutex{}
}

func NewRWMutex() RWMutex {
	if debug {
		return &loggedRWMutex{}
	}
	return &sync.RWMutex{}
}

func NewWaitGroup() WaitGroup {
	if debug {
		return &loggedWaitGroup{}
	}
	return &sync.WaitGroup{}
}

type loggedMutex struct {
	sync.Mutex
	lockedAt time.Time
	lockedBy string
}

func (m *loggedMutex) Lock() {
	m.Mutex.Lock()
	m.lockedAt = time.Now()
	m.lockedBy = caller(2)
}

func (m *loggedMutex) Unlock() {
	held := time.Since(m.lockedAt)
	if held >= threshold {
		l.Debugf("Mutex held for %v, locked at %s unlocked at %s", held, m.lockedBy, caller(2))
	}
	m.lockedAt = time.Time{}
	m.lockedBy = ""
	m.Mutex.Unlock()
}

type loggedRWMutex struct {
	sync.RWMutex
	lockedAt time.Time
	lockedBy string
}

func (m *loggedRWMutex) Lock() {
	start := time.Now()
	m.RWMutex.Lock()
	m.lockedAt = time.Now()
	m.lockedBy = caller(2)
	if wait := m.lockedAt.Sub(start); wait >= threshold {
		l.Debugf("RWMutex took %v to lock at %s", wait, m.lockedBy)
	}
}

func (m *loggedRWMutex) Unlock() {
	held := time.Since(m.lockedAt)
	if held >= threshold {
		l.Debugf("RWMutex held for %v, locked at %s unlocked at %s", held, m.lockedBy, caller(2))
	}
	m.lockedAt = time.Time{}
	m.lockedBy = ""
	m.RWMutex.Unlock()
}

type loggedWaitGroup struct {
	sync.WaitGroup
}

func (wg *loggedWaitGroup) Wait() {
	start := time.Now()
	wg.WaitGroup.Wait()
	if wait := time.Since(start); wait >= threshold {
		l.Debugf("WaitGroup took %v to complete at %s", wait, caller(2))
	}
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}
