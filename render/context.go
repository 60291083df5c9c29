// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"sync"
)

// ErrContextClosed is returned by Submit when the context has been closed.
// Tasks still queued at close time are dropped and their submitters
// unblocked with this error.
var ErrContextClosed = errors.New("render: context is closed")

// task pairs a closure with the channel its submitter blocks on.
type task struct {
	fn   func() error
	done chan error
}

// Context is a blocking remote-procedure hand-off onto the rendering thread.
//
// Submit enqueues a closure and waits for the rendering side to execute it;
// the closure's error is returned to the submitter. Exactly one goroutine is
// expected to consume tasks, via Run or per-frame Drain calls.
//
// Thread safety: Submit may be called from any goroutine.
type Context struct {
	tasks     chan *task
	closed    chan struct{}
	closeOnce sync.Once
	immediate bool
}

// NewContext creates a context with the given task queue capacity.
// Capacities below 1 are raised to 1.
func NewContext(capacity int) *Context {
	if capacity < 1 {
		capacity = 1
	}
	return &Context{
		tasks:  make(chan *task, capacity),
		closed: make(chan struct{}),
	}
}

// NewImmediate creates a context that executes submitted tasks inline on
// the submitting goroutine. This is the default for headless loaders where
// no dedicated rendering thread exists.
func NewImmediate() *Context {
	return &Context{
		closed:    make(chan struct{}),
		immediate: true,
	}
}

// Submit enqueues fn for execution on the rendering context and blocks
// until it has run or the context is closed. Returns fn's error, or
// ErrContextClosed if the context shut down before fn completed.
func (c *Context) Submit(fn func() error) error {
	if c.immediate {
		select {
		case <-c.closed:
			return ErrContextClosed
		default:
		}
		return fn()
	}

	t := &task{fn: fn, done: make(chan error, 1)}

	select {
	case c.tasks <- t:
	case <-c.closed:
		return ErrContextClosed
	}

	select {
	case err := <-t.done:
		return err
	case <-c.closed:
		return ErrContextClosed
	}
}

// Drain executes all currently queued tasks without blocking for new ones.
// Intended to be called once per frame by the host render loop.
// Returns the number of tasks executed.
func (c *Context) Drain() int {
	if c.immediate {
		return 0
	}

	n := 0
	for {
		select {
		case t := <-c.tasks:
			t.done <- t.fn()
			n++
		default:
			return n
		}
	}
}

// Run consumes and executes tasks until the context is closed.
// Useful when the rendering thread is dedicated to the loader.
func (c *Context) Run() {
	if c.immediate {
		<-c.closed
		return
	}

	for {
		select {
		case t := <-c.tasks:
			t.done <- t.fn()
		case <-c.closed:
			return
		}
	}
}

// Pending returns the number of tasks waiting to execute.
func (c *Context) Pending() int {
	if c.immediate {
		return 0
	}
	return len(c.tasks)
}

// Close shuts the context down. Pending and future submitters unblock with
// ErrContextClosed. Safe to call multiple times.
func (c *Context) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
