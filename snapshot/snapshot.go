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

// Package snapshot captures, lists and restores named point-in-time copies
// of the whole property set.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tochemey/cmframework/backend"
	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/match"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/state"
)

// Domain is the state domain snapshots are stored in
const Domain = "cm.snapshots"

// Metadata describes a snapshot
type Metadata struct {
	Name         string         `json:"name"`
	CreationDate string         `json:"creation_date"`
	Custom       map[string]any `json:"custom"`
}

// Snapshot is an immutable copy of the property set
type Snapshot struct {
	Metadata   Metadata
	Properties map[string]string
}

type record struct {
	Properties map[string]string `json:"snapshot_properties"`
	Metadata   *Metadata         `json:"snapshot_metadata"`
}

// Manager stores snapshots in a state.Store and keeps the last created or
// loaded one in memory for reads and restore.
//
// Callers serialize mutating use, the processor does it with its writer lock.
type Manager struct {
	store  state.Store
	logger log.Logger
	clock  func() time.Time

	mu     sync.RWMutex
	loaded *Snapshot
}

// New creates an instance of Manager
func New(store state.Store, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Manager{store: store, logger: logger, clock: time.Now}
}

// Create captures every property of source under name
func (m *Manager) Create(ctx context.Context, name string, source backend.Reader, custom map[string]any) (Metadata, error) {
	m.logger.Debugf("create snapshot called, snapshot name is %s", name)
	if name == "" {
		return Metadata{}, gerrors.ErrSnapshotNameRequired
	}
	exists, err := m.exists(ctx, name)
	if err != nil {
		return Metadata{}, err
	}
	if exists {
		return Metadata{}, fmt.Errorf("%w: %s", gerrors.ErrSnapshotExists, name)
	}

	props, err := source.GetProperties(ctx, ".*")
	if err != nil {
		return Metadata{}, fmt.Errorf("snapshot %s: reading properties: %w", name, err)
	}
	snap := &Snapshot{
		Metadata: Metadata{
			Name:         name,
			CreationDate: m.clock().Format(time.RFC3339Nano),
			Custom:       custom,
		},
		Properties: props,
	}
	raw, err := json.Marshal(record{Properties: snap.Properties, Metadata: &snap.Metadata})
	if err != nil {
		return Metadata{}, err
	}
	if err := m.store.Set(ctx, Domain, name, string(raw)); err != nil {
		return Metadata{}, fmt.Errorf("snapshot %s: storing: %w", name, err)
	}
	m.setLoaded(snap)
	return snap.Metadata, nil
}

// Load makes the named snapshot the one read and restored
func (m *Manager) Load(ctx context.Context, name string) error {
	m.logger.Debugf("load snapshot called, snapshot name is %s", name)
	snap, err := m.read(ctx, name)
	if err != nil {
		return err
	}
	m.setLoaded(snap)
	return nil
}

// Loaded returns a copy of the loaded snapshot
func (m *Manager) Loaded() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loaded == nil {
		return Snapshot{}, false
	}
	props := make(map[string]string, len(m.loaded.Properties))
	for k, v := range m.loaded.Properties {
		props[k] = v
	}
	return Snapshot{Metadata: m.loaded.Metadata, Properties: props}, true
}

// GetProperty reads a property of the loaded snapshot
func (m *Manager) GetProperty(name string) (string, error) {
	snap, ok := m.Loaded()
	if !ok {
		return "", gerrors.ErrSnapshotNotLoaded
	}
	value, ok := snap.Properties[name]
	if !ok {
		return "", gerrors.ErrPropertyNotFound
	}
	return value, nil
}

// GetProperties reads the properties of the loaded snapshot matching filter
func (m *Manager) GetProperties(filter string) (map[string]string, error) {
	snap, ok := m.Loaded()
	if !ok {
		return nil, gerrors.ErrSnapshotNotLoaded
	}
	re, err := match.Compile(filter)
	if err != nil {
		return nil, err
	}
	return match.Properties(snap.Properties, re), nil
}

// Property reads a property of the named stored snapshot without changing
// the loaded one, so concurrent readers of different snapshots never mix.
func (m *Manager) Property(ctx context.Context, snapshot, name string) (string, error) {
	snap, err := m.read(ctx, snapshot)
	if err != nil {
		return "", err
	}
	value, ok := snap.Properties[name]
	if !ok {
		return "", gerrors.ErrPropertyNotFound
	}
	return value, nil
}

// Properties reads the properties of the named stored snapshot matching
// filter without changing the loaded one
func (m *Manager) Properties(ctx context.Context, snapshot, filter string) (map[string]string, error) {
	re, err := match.Compile(filter)
	if err != nil {
		return nil, err
	}
	snap, err := m.read(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	return match.Properties(snap.Properties, re), nil
}

// Restore replaces every live property of target with the loaded snapshot.
// It deletes then sets, readers can observe an empty store in between.
func (m *Manager) Restore(ctx context.Context, target backend.Store) error {
	snap, ok := m.Loaded()
	if !ok {
		return gerrors.ErrSnapshotNotLoaded
	}
	m.logger.Infof("restoring snapshot %s", snap.Metadata.Name)

	current, err := target.GetProperties(ctx, ".*")
	if err != nil {
		return fmt.Errorf("snapshot %s: reading live properties: %w", snap.Metadata.Name, err)
	}
	if len(current) > 0 {
		if err := target.DeleteProperties(ctx, match.SortedKeys(current)); err != nil {
			return fmt.Errorf("snapshot %s: clearing live properties: %w", snap.Metadata.Name, err)
		}
	}
	if len(snap.Properties) > 0 {
		if err := target.SetProperties(ctx, snap.Properties); err != nil {
			return fmt.Errorf("snapshot %s: writing properties: %w", snap.Metadata.Name, err)
		}
	}
	return nil
}

// List returns the metadata of every stored snapshot ordered by name.
// Snapshots with undecodable metadata are skipped.
func (m *Manager) List(ctx context.Context) ([]Metadata, error) {
	raws, err := m.store.GetDomain(ctx, Domain)
	if err != nil {
		return nil, err
	}
	snapshots := make([]Metadata, 0, len(raws))
	for name, raw := range raws {
		snap, err := decode(name, raw)
		if err != nil {
			m.logger.Warnf("could not load snapshot metadata for %s: %v", name, err)
			continue
		}
		snapshots = append(snapshots, snap.Metadata)
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Name < snapshots[j].Name })
	return snapshots, nil
}

// Delete removes a stored snapshot
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.logger.Debugf("delete snapshot called, snapshot name is %s", name)
	err := m.store.Delete(ctx, Domain, name)
	if errors.Is(err, gerrors.ErrStateNotFound) {
		return fmt.Errorf("%w: %s", gerrors.ErrSnapshotNotFound, name)
	}
	return err
}

func (m *Manager) exists(ctx context.Context, name string) (bool, error) {
	_, err := m.store.Get(ctx, Domain, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gerrors.ErrStateNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) read(ctx context.Context, name string) (*Snapshot, error) {
	raw, err := m.store.Get(ctx, Domain, name)
	if err != nil {
		if errors.Is(err, gerrors.ErrStateNotFound) {
			return nil, fmt.Errorf("%w: %s", gerrors.ErrSnapshotNotFound, name)
		}
		return nil, err
	}
	return decode(name, raw)
}

func (m *Manager) setLoaded(snap *Snapshot) {
	m.mu.Lock()
	m.loaded = snap
	m.mu.Unlock()
}

func decode(name, raw string) (*Snapshot, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, gerrors.NewConsistencyError("snapshot "+name, err)
	}
	if rec.Metadata == nil {
		return nil, gerrors.NewConsistencyError("snapshot metadata for "+name, nil)
	}
	if rec.Properties == nil {
		rec.Properties = map[string]string{}
	}
	return &Snapshot{Metadata: *rec.Metadata, Properties: rec.Properties}, nil
}
