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

package update

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	goset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/cmframework/changemonitor"
	"github.com/tochemey/cmframework/depsort"
	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/ticker"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/processor"
	"github.com/tochemey/cmframework/snapshot"
)

const (
	// DependencyFileExtension is appended to a handler name to find its dependency file
	DependencyFileExtension = ".deps"
	// SnapshotPrefix prefixes the snapshot taken before every update
	SnapshotPrefix = "cmupdate-"

	defaultPollInterval = 5 * time.Second
)

// Handler mutates the whole configuration tree in bulk
type Handler interface {
	Name() string
	// Update modifies cfg in place
	Update(ctx context.Context, cfg map[string]any) error
	// ValidationFailed is called on every handler when the update was not committed
	ValidationFailed(ctx context.Context, err error)
}

// Client is the processor API used by the pipeline
type Client interface {
	GetProperties(ctx context.Context, filter, snapshotName string) (map[string]string, error)
	SetProperties(ctx context.Context, props map[string]string, overwrite bool) (string, error)
	CreateSnapshot(ctx context.Context, name string, custom map[string]any) (snapshot.Metadata, error)
	ChangeState(ctx context.Context, id string) (changemonitor.Record, error)
}

var _ Client = (*processor.Processor)(nil)

// Pipeline runs the update handlers in dependency order and commits their result
type Pipeline struct {
	client       Client
	handlers     map[string]Handler
	order        []string
	pollInterval time.Duration
	logger       log.Logger
	clock        func() time.Time
}

// New creates a Pipeline. The dependencies of every handler are read from
// <depsDir>/<name>.deps and must only name known handlers.
func New(client Client, depsDir string, handlers []Handler, opts ...Option) (*Pipeline, error) {
	pipeline := &Pipeline{
		client:       client,
		handlers:     make(map[string]Handler, len(handlers)),
		pollInterval: defaultPollInterval,
		logger:       log.DefaultLogger,
		clock:        time.Now,
	}

	for _, opt := range opts {
		opt.Apply(pipeline)
	}

	names := goset.NewThreadUnsafeSet[string]()
	for _, handler := range handlers {
		names.Add(handler.Name())
		pipeline.handlers[handler.Name()] = handler
	}

	before := make(map[string][]string, len(handlers))
	after := make(map[string][]string, len(handlers))
	for _, name := range names.ToSlice() {
		deps, err := depsort.ParseDependencyFile(filepath.Join(depsDir, name+DependencyFileExtension))
		if err != nil {
			return nil, err
		}
		for _, dep := range append(append([]string{}, deps.Before...), deps.After...) {
			if !names.Contains(dep) {
				return nil, fmt.Errorf("handler %s depends on %s: %w", name, dep, gerrors.ErrUnknownDependency)
			}
		}
		before[name] = deps.Before
		after[name] = deps.After
	}

	order, err := depsort.New(before, after).Sort()
	if err != nil {
		return nil, err
	}

	pipeline.logger.Infof("update handlers order: %v", order)
	pipeline.order = order
	return pipeline, nil
}

// Order returns the handler names in execution order
func (p *Pipeline) Order() []string {
	return append([]string(nil), p.order...)
}

// Update snapshots the configuration, runs every handler on it and commits
// the result, replacing every property. It returns the change id.
func (p *Pipeline) Update(ctx context.Context) (string, error) {
	changeID, err := p.update(ctx)
	if err != nil {
		for _, name := range p.order {
			p.logger.Debugf("calling validation failed for %s", name)
			p.handlers[name].ValidationFailed(ctx, err)
		}
		return processor.NoChange, err
	}
	return changeID, nil
}

func (p *Pipeline) update(ctx context.Context) (string, error) {
	snapshotName := fmt.Sprintf("%s%d", SnapshotPrefix, p.clock().UnixMilli())
	p.logger.Infof("taking snapshot %s of the original configuration", snapshotName)
	if _, err := p.client.CreateSnapshot(ctx, snapshotName, nil); err != nil {
		return processor.NoChange, err
	}

	props, err := p.client.GetProperties(ctx, ".*", "")
	if err != nil {
		return processor.NoChange, err
	}

	cfg := Unflatten(props)
	for _, name := range p.order {
		p.logger.Debugf("calling update for %s", name)
		if err := p.handlers[name].Update(ctx, cfg); err != nil {
			p.logger.Warnf("update handler %s failed: %v", name, err)
			return processor.NoChange, fmt.Errorf("update handler %s: %w", name, err)
		}
	}

	flat, err := Flatten(cfg)
	if err != nil {
		return processor.NoChange, err
	}
	return p.client.SetProperties(ctx, flat, true)
}

// WaitActivation blocks until the change is no longer ongoing. A failed
// change is reported as an *errors.ActivationFailure.
func (p *Pipeline) WaitActivation(ctx context.Context, changeID string) error {
	if changeID == processor.NoChange {
		return nil
	}

	tick := ticker.New(p.pollInterval)
	tick.Start()
	defer tick.Stop()

	for {
		record, err := p.client.ChangeState(ctx, changeID)
		if err != nil {
			return err
		}

		p.logger.Debugf("state of change %s is %s", changeID, record.State)
		switch record.State {
		case changemonitor.OK:
			return nil
		case changemonitor.NOK:
			return gerrors.NewActivationFailure(record.FailedPlugins)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.Ticks:
		}
	}
}

// Unflatten decodes every property value as JSON, keeping the raw string
// when it is not valid JSON. Numbers are kept as json.Number so Flatten
// writes them back exactly as they were stored.
func Unflatten(props map[string]string) map[string]any {
	cfg := make(map[string]any, len(props))
	for name, value := range props {
		decoded, err := decodeValue(value)
		if err != nil {
			cfg[name] = value
			continue
		}
		cfg[name] = decoded
	}
	return cfg
}

func decodeValue(value string) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(value)))
	decoder.UseNumber()

	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, err
	}
	// trailing data means the value is not a single JSON document
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return decoded, nil
}

// Flatten encodes every configuration value as JSON
func Flatten(cfg map[string]any) (map[string]string, error) {
	props := make(map[string]string, len(cfg))
	for name, value := range cfg {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		props[name] = string(encoded)
	}
	return props, nil
}
