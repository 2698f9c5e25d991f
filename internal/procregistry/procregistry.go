// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package procregistry tracks the simulator processes started by one scheduler
// so that an interrupt can terminate all of them at once.
package procregistry

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrStopping is returned by Add when StopAll has already been called.
// The process has been killed by the time Add returns.
var ErrStopping = errors.New("registry is stopping all processes")

// Killer is the part of *os.Process the registry needs.
type Killer interface {
	Kill() error
}

// Registry is a set of live processes keyed by pid.
// Add and StopAll take the same lock, so a process registered after the
// stop-all sweep is killed on registration.
type Registry struct {
	mu       sync.Mutex
	procs    map[int]Killer
	killed   map[int]struct{}
	stopping atomic.Bool
	stopped  chan struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		procs:   make(map[int]Killer),
		killed:  make(map[int]struct{}),
		stopped: make(chan struct{}),
	}
}

// Add registers a live process.
func (r *Registry) Add(pid int, p Killer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopping.Load() {
		_ = p.Kill()
		r.killed[pid] = struct{}{}

		return ErrStopping
	}

	r.procs[pid] = p

	return nil
}

// Remove forgets pid. It is safe to call more than once.
func (r *Registry) Remove(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.procs, pid)
	delete(r.killed, pid)
}

// StopAll sets the stop flag and kills every registered process.
// It returns the number of processes signalled.
func (r *Registry) StopAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.stopping.Swap(true) {
		close(r.stopped)
	}

	for pid, p := range r.procs {
		_ = p.Kill()
		r.killed[pid] = struct{}{}
	}

	return len(r.procs)
}

// Stopping reports whether StopAll has been called.
func (r *Registry) Stopping() bool {
	return r.stopping.Load()
}

// Stopped returns a channel that is closed by StopAll.
func (r *Registry) Stopped() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stopped
}

// WasKilled reports whether the registry killed pid.
func (r *Registry) WasKilled(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.killed[pid]

	return ok
}

// Len returns the number of live processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.procs)
}

// Pids returns the registered pids in ascending order.
func (r *Registry) Pids() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pids := make([]int, 0, len(r.procs))
	for pid := range r.procs {
		pids = append(pids, pid)
	}

	slices.Sort(pids)

	return pids
}

// Reset clears the stop flag so the registry can serve another batch.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopping.Swap(false) {
		r.stopped = make(chan struct{})
	}
}
