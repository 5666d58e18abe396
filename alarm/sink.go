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
	"sync"

	"github.com/tochemey/cmframework/log"
)

// LogSink writes alarm events to a logger
type LogSink struct {
	logger log.Logger
}

var _ Sink = (*LogSink)(nil)

// NewLogSink creates an instance of LogSink
func NewLogSink(logger log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Handle implements Sink
func (s *LogSink) Handle(_ context.Context, event Event) error {
	s.logger.Warnf("alarm %s %s on %s: %v", event.Operation, event.ID, event.DN, event.Supplementary)
	return nil
}

type activeKey struct {
	id ID
	dn string
}

// MemorySink keeps the received events and the currently raised alarms
type MemorySink struct {
	mu     sync.Mutex
	events []Event
	active map[activeKey]Event
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates an instance of MemorySink
func NewMemorySink() *MemorySink {
	return &MemorySink{active: make(map[activeKey]Event)}
}

// Handle implements Sink
func (s *MemorySink) Handle(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	key := activeKey{id: event.ID, dn: event.DN}
	if event.Operation == OperationRaise {
		s.active[key] = event
	} else {
		delete(s.active, key)
	}
	return nil
}

// Events returns the received events in order
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Active returns the raised alarm for id and dn
func (s *MemorySink) Active(id ID, dn string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.active[activeKey{id: id, dn: dn}]
	return event, ok
}
