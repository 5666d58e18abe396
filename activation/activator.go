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

// Package activation drives configuration changes into the running system.
//
// Work for every node goes through a single writer worker, work for one
// node through parallel reader workers, so a global activation never
// overlaps with node activations.
package activation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/queue"
	"github.com/tochemey/cmframework/internal/rwlock"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
)

// Handler activates a work. Plugin failures are returned keyed by plugin,
// an error means the handler itself failed.
type Handler interface {
	Name() string
	Activate(ctx context.Context, work *Work) (map[string]string, error)
}

// ChangeRecorder receives the outcome of works carrying a change id
type ChangeRecorder interface {
	ChangeOK(ctx context.Context, id string) error
	ChangeNOK(ctx context.Context, id string, failures map[string]string) error
}

// Activator queues works and runs them through its handlers
type Activator struct {
	lock     *rwlock.RWLock
	global   *queue.Queue[*Work]
	node     *queue.Queue[*Work]
	handlers []Handler
	workers  int
	recorder ChangeRecorder
	logger   log.Logger
	metric   *metric.ActivationMetric

	started *atomic.Bool
	stopped *atomic.Bool
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// New creates an instance of Activator
func New(opts ...Option) *Activator {
	activator := &Activator{
		lock:    rwlock.New(),
		global:  queue.New[*Work](),
		node:    queue.New[*Work](),
		workers: 1,
		logger:  log.DefaultLogger,
		started: atomic.NewBool(false),
		stopped: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt.Apply(activator)
	}
	return activator
}

// AddHandler registers a handler. It must be called before Start.
func (a *Activator) AddHandler(handler Handler) {
	a.handlers = append(a.handlers, handler)
}

// AddWork queues a work: on the global queue when it has no target,
// on the node queue otherwise. Works can be queued before Start.
func (a *Activator) AddWork(ctx context.Context, work *Work) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if work == nil {
		return errors.New("activation: nil work")
	}
	q := a.global
	if work.Target != "" {
		q = a.node
	}
	if a.stopped.Load() || !q.Push(work) {
		return gerrors.ErrActivatorStopped
	}
	a.logger.Debugf("queued work %s", work)
	return nil
}

// Start launches the writer worker and the node workers
func (a *Activator) Start(ctx context.Context) error {
	if a.stopped.Load() {
		return gerrors.ErrActivatorStopped
	}
	if a.started.Swap(true) {
		return gerrors.ErrActivatorStarted
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.group, runCtx = errgroup.WithContext(runCtx)

	writer := newWorker(0, a, false)
	a.group.Go(func() error { return writer.run(runCtx) })
	for i := 1; i <= a.workers; i++ {
		reader := newWorker(i, a, true)
		a.group.Go(func() error { return reader.run(runCtx) })
	}
	a.logger.Infof("activator started with %d node worker(s)", a.workers)
	return nil
}

// Stop closes the queues, fails the works that never ran and waits for
// the in-flight ones. Works added afterwards fail with ErrActivatorStopped.
func (a *Activator) Stop(ctx context.Context) error {
	if a.stopped.Swap(true) {
		return nil
	}
	remaining := append(a.global.CloseRemaining(), a.node.CloseRemaining()...)
	for _, work := range remaining {
		work.abort(gerrors.ErrActivatorStopped)
	}
	if !a.started.Load() {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- a.group.Wait() }()
	defer a.cancel()

	select {
	case err := <-done:
		a.logger.Info("activator stopped")
		return err
	case <-ctx.Done():
		return fmt.Errorf("activation: stopping workers: %w", ctx.Err())
	}
}

// Running reports whether the workers are running
func (a *Activator) Running() bool {
	return a.started.Load() && !a.stopped.Load()
}

// Pending returns the number of queued works
func (a *Activator) Pending() int {
	return a.global.Len() + a.node.Len()
}
