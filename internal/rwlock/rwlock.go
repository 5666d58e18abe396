// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package rwlock provides a shared/exclusive lock whose acquisition can be
// abandoned through a context.
//
// The lock state is a counter: a positive value is the number of active
// readers, -1 means a writer holds the lock and 0 means idle. Waiters are
// kept in two FIFO queues. When the lock becomes idle the first waiting
// writer is granted the lock, otherwise all waiting readers are. The lock is
// not reentrant.
package rwlock

import (
	"context"
	"sync"
)

type waiter struct {
	ready chan struct{}
	// granted is set under mu when the releaser hands the lock over
	granted bool
}

// RWLock is a reader/writer lock with explicit wait queues
type RWLock struct {
	mu      sync.Mutex
	state   int
	readers []*waiter
	writers []*waiter
}

// New creates an instance of RWLock
func New() *RWLock {
	return &RWLock{}
}

// RLock acquires the lock in shared mode. It waits while a writer holds the
// lock and returns the context error when ctx ends first.
func (l *RWLock) RLock(ctx context.Context) error {
	l.mu.Lock()
	if l.state >= 0 {
		l.state++
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	l.readers = append(l.readers, w)
	l.mu.Unlock()
	return l.wait(ctx, w, false)
}

// Lock acquires the lock in exclusive mode. It waits until no reader or
// writer holds the lock and returns the context error when ctx ends first.
func (l *RWLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	if l.state == 0 && len(l.writers) == 0 {
		l.state = -1
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	l.writers = append(l.writers, w)
	l.mu.Unlock()
	return l.wait(ctx, w, true)
}

// RUnlock releases a shared hold
func (l *RWLock) RUnlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state <= 0 {
		panic("rwlock: RUnlock of unlocked RWLock")
	}
	l.state--
	if l.state == 0 {
		l.handOff()
	}
}

// Unlock releases an exclusive hold
func (l *RWLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != -1 {
		panic("rwlock: Unlock of unlocked RWLock")
	}
	l.state = 0
	l.handOff()
}

// Readers returns the number of active readers. It is meant for diagnostics.
func (l *RWLock) Readers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state > 0 {
		return l.state
	}
	return 0
}

// Locked reports whether a writer holds the lock
func (l *RWLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == -1
}

func (l *RWLock) wait(ctx context.Context, w *waiter, writer bool) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	if w.granted {
		// the lock was handed over while we were giving up
		l.mu.Unlock()
		if writer {
			l.Unlock()
		} else {
			l.RUnlock()
		}
		return ctx.Err()
	}

	if writer {
		l.writers = remove(l.writers, w)
		// readers queued behind this writer may now proceed
		if l.state >= 0 && len(l.writers) == 0 {
			l.grantReaders()
		}
	} else {
		l.readers = remove(l.readers, w)
	}
	l.mu.Unlock()
	return ctx.Err()
}

// handOff must be called with mu held and the lock idle
func (l *RWLock) handOff() {
	if len(l.writers) > 0 {
		w := l.writers[0]
		l.writers[0] = nil
		l.writers = l.writers[1:]
		l.state = -1
		w.granted = true
		close(w.ready)
		return
	}
	l.grantReaders()
}

func (l *RWLock) grantReaders() {
	for _, w := range l.readers {
		l.state++
		w.granted = true
		close(w.ready)
	}
	l.readers = nil
}

func remove(queue []*waiter, w *waiter) []*waiter {
	for i, candidate := range queue {
		if candidate == w {
			return append(queue[:i], queue[i+1:]...)
		}
	}
	return queue
}
