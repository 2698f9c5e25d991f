// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
)

// ChannelReporter delivers events over a buffered channel.
// Report never blocks: events are dropped when the buffer is full, the context
// is done or the reporter is closed.
type ChannelReporter struct {
	ch     chan Event
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	wg     sync.WaitGroup
	closed bool
}

// NewChannelReporter returns a reporter with the given buffer size.
func NewChannelReporter(ctx context.Context, bufferSize int) *ChannelReporter {
	rctx, cancel := context.WithCancel(ctx)

	return &ChannelReporter{
		ch:     make(chan Event, bufferSize),
		ctx:    rctx,
		cancel: cancel,
	}
}

// Report implements Reporter.
func (cr *ChannelReporter) Report(e Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed || cr.ctx.Err() != nil {
		return
	}

	select {
	case cr.ch <- e:
	default:
	}
}

// Close stops delivery, closes the channel and waits for Listen to return.
func (cr *ChannelReporter) Close() {
	cr.cancel()

	cr.mu.Lock()
	if !cr.closed {
		cr.closed = true
		close(cr.ch)
	}
	cr.mu.Unlock()

	cr.wg.Wait()
}

// Listen forwards events to l on a new goroutine until the reporter is closed.
// Events still buffered at Close are delivered.
func (cr *ChannelReporter) Listen(l Listener) {
	cr.wg.Add(1)

	go func() {
		defer cr.wg.Done()

		for e := range cr.ch {
			l.OnEvent(e)
		}
	}()
}

// Events returns the event channel for callers that read it themselves.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}
