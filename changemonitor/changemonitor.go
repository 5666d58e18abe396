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

// Package changemonitor records the activation outcome of every committed
// change so clients can poll it by id.
package changemonitor

import (
	"context"

	"github.com/google/uuid"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/rwlock"
	"github.com/tochemey/cmframework/log"
)

// State is the activation state of a change
type State int

const (
	// Ongoing means activation has not finished
	Ongoing State = iota
	// OK means every plugin activated the change
	OK
	// NOK means at least one plugin failed to activate the change
	NOK
)

// String returns the wire name of the state
func (s State) String() string {
	switch s {
	case OK:
		return "OK"
	case NOK:
		return "NOK"
	default:
		return "ONGOING"
	}
}

// Record is the state of one change
type Record struct {
	ID            string
	State         State
	FailedPlugins map[string]string
}

// Terminal reports whether activation of the change has finished
func (r Record) Terminal() bool {
	return r.State != Ongoing
}

func (r Record) clone() Record {
	failed := make(map[string]string, len(r.FailedPlugins))
	for plugin, detail := range r.FailedPlugins {
		failed[plugin] = detail
	}
	r.FailedPlugins = failed
	return r
}

// Monitor keeps change records in memory. Records are never removed.
type Monitor struct {
	lock    *rwlock.RWLock
	changes map[string]*Record
	logger  log.Logger
}

// New creates an instance of Monitor
func New(logger log.Logger) *Monitor {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Monitor{
		lock:    rwlock.New(),
		changes: make(map[string]*Record),
		logger:  logger,
	}
}

// StartChange registers a new ongoing change and returns its id
func (m *Monitor) StartChange(ctx context.Context) (string, error) {
	if err := m.lock.Lock(ctx); err != nil {
		return "", err
	}
	defer m.lock.Unlock()
	id := uuid.NewString()
	m.changes[id] = &Record{ID: id, State: Ongoing, FailedPlugins: map[string]string{}}
	return id, nil
}

// ChangeOK marks a change as successfully activated
func (m *Monitor) ChangeOK(ctx context.Context, id string) error {
	return m.finish(ctx, id, OK, nil)
}

// ChangeNOK marks a change as failed with the plugin failure details
func (m *Monitor) ChangeNOK(ctx context.Context, id string, failures map[string]string) error {
	return m.finish(ctx, id, NOK, failures)
}

// Get returns a copy of a change record or errors.ErrChangeNotFound
func (m *Monitor) Get(ctx context.Context, id string) (Record, error) {
	if err := m.lock.RLock(ctx); err != nil {
		return Record{}, err
	}
	defer m.lock.RUnlock()
	record, ok := m.changes[id]
	if !ok {
		return Record{}, gerrors.ErrChangeNotFound
	}
	return record.clone(), nil
}

// GetAll returns a copy of every change record keyed by id
func (m *Monitor) GetAll(ctx context.Context) (map[string]Record, error) {
	if err := m.lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer m.lock.RUnlock()
	records := make(map[string]Record, len(m.changes))
	for id, record := range m.changes {
		records[id] = record.clone()
	}
	return records, nil
}

func (m *Monitor) finish(ctx context.Context, id string, state State, failures map[string]string) error {
	if err := m.lock.Lock(ctx); err != nil {
		return err
	}
	defer m.lock.Unlock()
	record, ok := m.changes[id]
	if !ok {
		m.logger.Warnf("invalid change uuid %s", id)
		return nil
	}
	if record.Terminal() {
		m.logger.Warnf("change %s already finished as %s", id, record.State)
		return nil
	}
	record.State = state
	for plugin, detail := range failures {
		record.FailedPlugins[plugin] = detail
	}
	return nil
}
