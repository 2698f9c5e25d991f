// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type calls struct {
	interrupts atomic.Int32
	escalated  atomic.Int32
}

func (c *calls) watch(ctx context.Context, ch <-chan os.Signal) chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, ch, func() { c.interrupts.Add(1) }, func() { c.escalated.Add(1) })
	}()

	return done
}

func TestWatch_FirstSignalInterrupts(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := make(chan os.Signal, 1)
	c := &calls{}
	done := c.watch(context.Background(), ch)

	ch <- os.Interrupt

	assert.Eventually(t, func() bool { return c.interrupts.Load() == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, c.escalated.Load())

	close(ch)
	<-done
}

func TestWatch_SecondSignalEscalates(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := make(chan os.Signal, 2)
	c := &calls{}
	done := c.watch(context.Background(), ch)

	ch <- syscall.SIGTERM
	ch <- syscall.SIGTERM

	<-done
	assert.EqualValues(t, 1, c.interrupts.Load())
	assert.EqualValues(t, 1, c.escalated.Load())
}

func TestWatch_DifferentSignalsDoNotEscalate(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := make(chan os.Signal, 2)
	c := &calls{}
	done := c.watch(context.Background(), ch)

	ch <- syscall.SIGINT
	ch <- syscall.SIGTERM

	close(ch)
	<-done
	assert.EqualValues(t, 1, c.interrupts.Load())
	assert.Zero(t, c.escalated.Load())
}

func TestWatch_ContextDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	c := &calls{}
	done := c.watch(ctx, make(chan os.Signal))

	cancel()
	<-done
	assert.Zero(t, c.interrupts.Load())
}

func TestNewAndStop(t *testing.T) {
	ch := New(context.Background(), syscall.SIGUSR1)
	defer Stop(ch)

	assert.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case sig := <-ch:
		assert.Equal(t, syscall.SIGUSR1, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("signal not delivered")
	}
}
