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

package alarm

import (
	"context"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/queue"
	"github.com/tochemey/cmframework/log"
)

// Service queues alarm events and feeds them to a Sink
type Service struct {
	queue   *queue.Queue[Event]
	sink    Sink
	logger  log.Logger
	clock   func() time.Time
	started *atomic.Bool
	stopped *atomic.Bool
	done    chan struct{}
}

// NewService creates an instance of Service. Events are queued until Start.
func NewService(sink Sink, logger log.Logger) *Service {
	if logger == nil {
		logger = log.DefaultLogger
	}
	if sink == nil {
		sink = NewLogSink(logger)
	}
	return &Service{
		queue:   queue.New[Event](),
		sink:    sink,
		logger:  logger,
		clock:   time.Now,
		started: atomic.NewBool(false),
		stopped: atomic.NewBool(false),
		done:    make(chan struct{}),
	}
}

// Start launches the delivery goroutine
func (s *Service) Start(ctx context.Context) error {
	if s.stopped.Load() {
		return gerrors.ErrServiceNotStarted
	}
	if s.started.Swap(true) {
		return nil
	}
	runCtx := context.WithoutCancel(ctx)
	go s.run(runCtx)
	return nil
}

// Stop delivers the queued events and stops the delivery goroutine
func (s *Service) Stop(ctx context.Context) error {
	if s.stopped.Swap(true) {
		return nil
	}
	remaining := s.queue.CloseRemaining()
	if !s.started.Load() {
		for _, event := range remaining {
			s.deliver(ctx, event)
		}
		return nil
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	for _, event := range remaining {
		s.deliver(ctx, event)
	}
	return nil
}

// RaiseForNode raises alarm id against a node
func (s *Service) RaiseForNode(id ID, node string, supplementary map[string]any) {
	s.add(OperationRaise, id, NodeDN(node), supplementary)
}

// RaiseForServiceGroup raises alarm id against a service group
func (s *Service) RaiseForServiceGroup(id ID, group string, supplementary map[string]any) {
	s.add(OperationRaise, id, ServiceGroupDN(group), supplementary)
}

// CancelForNode cancels alarm id against a node
func (s *Service) CancelForNode(id ID, node string, supplementary map[string]any) {
	s.add(OperationCancel, id, NodeDN(node), supplementary)
}

// CancelForServiceGroup cancels alarm id against a service group
func (s *Service) CancelForServiceGroup(id ID, group string, supplementary map[string]any) {
	s.add(OperationCancel, id, ServiceGroupDN(group), supplementary)
}

func (s *Service) add(operation Operation, id ID, dn string, supplementary map[string]any) {
	if supplementary == nil {
		supplementary = map[string]any{}
	}
	event := Event{
		Operation:     operation,
		ID:            id,
		DN:            dn,
		Supplementary: supplementary,
		Time:          s.clock().UTC(),
	}
	s.logger.Debugf("alarm %s requested", event)
	if !s.queue.Push(event) {
		s.logger.Warnf("alarm service stopped, dropping %s", event)
	}
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)
	for {
		event, ok := s.queue.Wait()
		if !ok {
			return
		}
		s.deliver(ctx, event)
	}
}

func (s *Service) deliver(ctx context.Context, event Event) {
	if err := s.sink.Handle(ctx, event); err != nil {
		s.logger.Warnf("alarm %s failed: %v", event.Operation, err)
	}
}
