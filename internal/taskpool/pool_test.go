// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package taskpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllExecutesEveryTask(t *testing.T) {
	p := New(4, 0)
	defer p.Stop()

	var count int64
	tasks := make([]Task, 50)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) {
			atomic.AddInt64(&count, 1)
		}
	}
	require.NoError(t, RunAll(p, tasks))
	assert.EqualValues(t, 50, count)
}

func TestSubmitReturnsOverflowWhenQueueFull(t *testing.T) {
	p := New(1, 1)
	defer p.Stop()

	block := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) { <-block }))

	// Give the worker a moment to dequeue the blocking task so the next
	// Submit lands in the (now empty again) bounded queue.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Submit(func(ctx context.Context) {}))

	err := p.Submit(func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrOverflow)

	close(block)
}

func TestCancelMarksPoolCancelled(t *testing.T) {
	p := New(1, 0)
	defer p.Stop()

	assert.False(t, p.Cancelled())
	p.Cancel()
	assert.True(t, p.Cancelled())
}

func TestSubmitAfterStopReturnsNotActive(t *testing.T) {
	p := New(1, 0)
	p.Stop()

	err := p.Submit(func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestCancelledTaskObservesContextDone(t *testing.T) {
	p := New(1, 0)
	defer p.Stop()

	done := make(chan bool, 1)
	require.NoError(t, p.Submit(func(ctx context.Context) {
		p.Cancel()
		select {
		case <-ctx.Done():
			done <- true
		case <-time.After(time.Second):
			done <- false
		}
	}))

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancellation signal")
	}
}
