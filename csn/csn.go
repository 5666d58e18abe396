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

// Package csn tracks change sequence numbers: a global counter bumped once
// per committed mutation and the last value each node has activated.
package csn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tochemey/cmframework/backend"
	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
)

// PropertyName is the property the revision is persisted under
const PropertyName = "cloud.cmframework"

// unseenNodeCSN is reported for nodes that never synced
const unseenNodeCSN int64 = 1

// Revision is a point in time copy of the sequence numbers
type Revision struct {
	Global int64            `json:"global"`
	Nodes  map[string]int64 `json:"nodes"`
}

type record struct {
	CSN Revision `json:"csn"`
}

// Tracker holds the change sequence numbers and persists them in the
// property store.
//
// Increment and SyncNode are expected to run under the processor writer lock.
type Tracker struct {
	mu       sync.RWMutex
	store    backend.Store
	logger   log.Logger
	revision Revision
}

// New creates an instance of Tracker and loads the persisted revision.
// A missing or undecodable record starts from zero.
func New(ctx context.Context, store backend.Store, opts ...Option) (*Tracker, error) {
	tracker := &Tracker{
		store:    store,
		logger:   log.DefaultLogger,
		revision: Revision{Nodes: map[string]int64{}},
	}
	for _, opt := range opts {
		opt.Apply(tracker)
	}
	if err := tracker.Reload(ctx); err != nil {
		return nil, err
	}
	tracker.logger.Infof("current csn is %d", tracker.Get())
	return tracker, nil
}

// Get returns the global sequence number
func (t *Tracker) Get() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revision.Global
}

// NodeCSN returns the sequence number the node last activated
func (t *Tracker) NodeCSN(node string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if value, ok := t.revision.Nodes[node]; ok {
		return value
	}
	return unseenNodeCSN
}

// Snapshot returns a copy of the current revision
func (t *Tracker) Snapshot() Revision {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revision.clone()
}

// Increment bumps the global sequence number and persists it
func (t *Tracker) Increment(ctx context.Context) error {
	return t.update(ctx, func(next *Revision) {
		next.Global++
		t.logger.Infof("updating csn to %d", next.Global)
	})
}

// Rebase bumps the global sequence number past floor, used after a restore
// brought back an older revision so the sequence never goes backwards
func (t *Tracker) Rebase(ctx context.Context, floor int64) error {
	return t.update(ctx, func(next *Revision) {
		if next.Global < floor {
			next.Global = floor
		}
		next.Global++
		t.logger.Infof("rebasing csn to %d", next.Global)
	})
}

// SyncNode records that node has activated the current global sequence number
func (t *Tracker) SyncNode(ctx context.Context, node string) error {
	if node == "" {
		return gerrors.ErrNodeNameRequired
	}
	return t.update(ctx, func(next *Revision) {
		next.Nodes[node] = next.Global
		t.logger.Infof("updating csn for node %s to %d", node, next.Global)
	})
}

// Reload reads the persisted revision again, used after a snapshot restore
func (t *Tracker) Reload(ctx context.Context) error {
	raw, err := t.store.GetProperty(ctx, PropertyName)
	if err != nil {
		if !errors.Is(err, gerrors.ErrPropertyNotFound) {
			return fmt.Errorf("csn: reading %s: %w", PropertyName, err)
		}
		t.logger.Infof("%s not defined, starting from 0", PropertyName)
		t.set(Revision{Nodes: map[string]int64{}})
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.logger.Warn(gerrors.NewConsistencyError(PropertyName, err))
		t.set(Revision{Nodes: map[string]int64{}})
		return nil
	}
	if rec.CSN.Nodes == nil {
		rec.CSN.Nodes = map[string]int64{}
	}
	t.set(rec.CSN)
	return nil
}

// update persists a modified copy and only then swaps it in
func (t *Tracker) update(ctx context.Context, mutate func(next *Revision)) error {
	next := t.Snapshot()
	mutate(&next)
	raw, err := json.Marshal(record{CSN: next})
	if err != nil {
		return err
	}
	if err := t.store.SetProperty(ctx, PropertyName, string(raw)); err != nil {
		return fmt.Errorf("csn: persisting %s: %w", PropertyName, err)
	}
	t.set(next)
	return nil
}

func (t *Tracker) set(revision Revision) {
	t.mu.Lock()
	t.revision = revision
	t.mu.Unlock()
}

func (r Revision) clone() Revision {
	nodes := make(map[string]int64, len(r.Nodes))
	for node, value := range r.Nodes {
		nodes[node] = value
	}
	return Revision{Global: r.Global, Nodes: nodes}
}
