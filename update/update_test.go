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
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/cmframework/changemonitor"
	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/processor"
	"github.com/tochemey/cmframework/snapshot"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	mu        sync.Mutex
	props     map[string]string
	snapshots []string
	setErr    error
	committed map[string]string
	overwrite bool
	states    []changemonitor.State
	polls     int
}

func (c *fakeClient) GetProperties(context.Context, string, string) (map[string]string, error) {
	return c.props, nil
}

func (c *fakeClient) SetProperties(_ context.Context, props map[string]string, overwrite bool) (string, error) {
	if c.setErr != nil {
		return processor.NoChange, c.setErr
	}
	c.committed = props
	c.overwrite = overwrite
	return "change-1", nil
}

func (c *fakeClient) CreateSnapshot(_ context.Context, name string, _ map[string]any) (snapshot.Metadata, error) {
	c.snapshots = append(c.snapshots, name)
	return snapshot.Metadata{Name: name}, nil
}

func (c *fakeClient) ChangeState(_ context.Context, id string) (changemonitor.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.states[len(c.states)-1]
	if c.polls < len(c.states) {
		state = c.states[c.polls]
	}
	c.polls++
	record := changemonitor.Record{ID: id, State: state}
	if state == changemonitor.NOK {
		record.FailedPlugins = map[string]string{"ntp": "timeout"}
	}
	return record, nil
}

type recordingHandler struct {
	name   string
	trace  *[]string
	update func(cfg map[string]any) error
	failed error
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Update(_ context.Context, cfg map[string]any) error {
	*h.trace = append(*h.trace, h.name)
	if h.update != nil {
		return h.update(cfg)
	}
	return nil
}

func (h *recordingHandler) ValidationFailed(_ context.Context, err error) {
	h.failed = err
}

func writeDeps(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+DependencyFileExtension), []byte(content), 0o600))
}

func TestNew(t *testing.T) {
	t.Run("orders the handlers by their dependencies", func(t *testing.T) {
		dir := t.TempDir()
		var trace []string
		writeDeps(t, dir, "hosts", "After: network\n")
		writeDeps(t, dir, "network", "Before: ntp, hosts\n")

		handlers := []Handler{
			&recordingHandler{name: "ntp", trace: &trace},
			&recordingHandler{name: "hosts", trace: &trace},
			&recordingHandler{name: "network", trace: &trace},
		}
		pipeline, err := New(&fakeClient{}, dir, handlers, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		order := pipeline.Order()
		require.Len(t, order, 3)
		assert.Equal(t, "network", order[0])
		assert.ElementsMatch(t, []string{"ntp", "hosts"}, order[1:])
	})
	t.Run("unknown dependency", func(t *testing.T) {
		dir := t.TempDir()
		var trace []string
		writeDeps(t, dir, "hosts", "After: missing\n")
		_, err := New(&fakeClient{}, dir, []Handler{&recordingHandler{name: "hosts", trace: &trace}}, WithLogger(log.DiscardLogger))
		assert.ErrorIs(t, err, gerrors.ErrUnknownDependency)
	})
	t.Run("cycle", func(t *testing.T) {
		dir := t.TempDir()
		var trace []string
		writeDeps(t, dir, "a", "After: b\n")
		writeDeps(t, dir, "b", "After: a\n")
		_, err := New(&fakeClient{}, dir, []Handler{
			&recordingHandler{name: "a", trace: &trace},
			&recordingHandler{name: "b", trace: &trace},
		}, WithLogger(log.DiscardLogger))
		var cycleErr *gerrors.CycleError
		assert.True(t, errors.As(err, &cycleErr))
		assert.Empty(t, trace)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("commits the updated tree", func(t *testing.T) {
		dir := t.TempDir()
		writeDeps(t, dir, "second", "After: first\n")
		var trace []string
		client := &fakeClient{props: map[string]string{
			"cloud.ntp": `{"servers":["a"]}`,
			"cloud.raw": "not json",
			"cloud.id":  "9007199254740993",
		}}
		first := &recordingHandler{name: "first", trace: &trace, update: func(cfg map[string]any) error {
			ntp := cfg["cloud.ntp"].(map[string]any)
			ntp["servers"] = append(ntp["servers"].([]any), "b")
			return nil
		}}
		second := &recordingHandler{name: "second", trace: &trace, update: func(cfg map[string]any) error {
			cfg["cloud.dns"] = map[string]any{"search": "example.org"}
			return nil
		}}

		pipeline, err := New(client, dir, []Handler{second, first}, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		pipeline.clock = func() time.Time { return time.UnixMilli(1700000000000) }

		id, err := pipeline.Update(ctx)
		require.NoError(t, err)
		assert.Equal(t, "change-1", id)

		assert.Equal(t, []string{"first", "second"}, trace)
		assert.Equal(t, []string{"cmupdate-1700000000000"}, client.snapshots)
		assert.True(t, client.overwrite)
		assert.Equal(t, map[string]string{
			"cloud.ntp": `{"servers":["a","b"]}`,
			"cloud.raw": `"not json"`,
			"cloud.id":  "9007199254740993",
			"cloud.dns": `{"search":"example.org"}`,
		}, client.committed)
		assert.NoError(t, first.failed)
	})
	t.Run("a failing handler aborts the update", func(t *testing.T) {
		dir := t.TempDir()
		writeDeps(t, dir, "second", "After: first\n")
		var trace []string
		client := &fakeClient{props: map[string]string{}}
		first := &recordingHandler{name: "first", trace: &trace, update: func(map[string]any) error {
			return errors.New("broken")
		}}
		second := &recordingHandler{name: "second", trace: &trace}

		pipeline, err := New(client, dir, []Handler{first, second}, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		id, err := pipeline.Update(ctx)
		require.Error(t, err)
		assert.Equal(t, processor.NoChange, id)
		assert.Equal(t, []string{"first"}, trace)
		assert.Nil(t, client.committed)
		assert.Error(t, first.failed)
		assert.Error(t, second.failed)
	})
	t.Run("a rejected commit notifies every handler", func(t *testing.T) {
		var trace []string
		rejected := gerrors.NewValidationError("ntp", errors.New("bad server"))
		client := &fakeClient{props: map[string]string{}, setErr: rejected}
		handler := &recordingHandler{name: "only", trace: &trace}

		pipeline, err := New(client, t.TempDir(), []Handler{handler}, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		_, err = pipeline.Update(ctx)
		assert.ErrorIs(t, err, rejected)
		assert.ErrorIs(t, handler.failed, rejected)
	})
}

func TestWaitActivation(t *testing.T) {
	ctx := context.Background()

	newPipeline := func(t *testing.T, client *fakeClient) *Pipeline {
		pipeline, err := New(client, t.TempDir(), nil, WithLogger(log.DiscardLogger), WithPollInterval(10*time.Millisecond))
		require.NoError(t, err)
		return pipeline
	}

	t.Run("successful change", func(t *testing.T) {
		client := &fakeClient{states: []changemonitor.State{changemonitor.Ongoing, changemonitor.Ongoing, changemonitor.OK}}
		require.NoError(t, newPipeline(t, client).WaitActivation(ctx, "change-1"))
		assert.Equal(t, 3, client.polls)
	})
	t.Run("failed change", func(t *testing.T) {
		client := &fakeClient{states: []changemonitor.State{changemonitor.NOK}}
		err := newPipeline(t, client).WaitActivation(ctx, "change-1")
		var failure *gerrors.ActivationFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, map[string]string{"ntp": "timeout"}, failure.Failures())
	})
	t.Run("no change", func(t *testing.T) {
		client := &fakeClient{}
		require.NoError(t, newPipeline(t, client).WaitActivation(ctx, processor.NoChange))
		assert.Zero(t, client.polls)
	})
	t.Run("context cancelled", func(t *testing.T) {
		client := &fakeClient{states: []changemonitor.State{changemonitor.Ongoing}}
		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, newPipeline(t, client).WaitActivation(ctx, "change-1"), context.DeadlineExceeded)
	})
}

func TestUnflatten(t *testing.T) {
	t.Run("With mixed values", func(t *testing.T) {
		cfg := Unflatten(map[string]string{"a": "1", "b": `"text"`, "c": "raw", "d": "1 2"})
		assert.Equal(t, map[string]any{"a": json.Number("1"), "b": "text", "c": "raw", "d": "1 2"}, cfg)
	})
	t.Run("With numbers kept exact across a round trip", func(t *testing.T) {
		props := map[string]string{
			"cloud.big":    "12345678901234567890",
			"cloud.float":  "1.0",
			"cloud.id":     "9007199254740993",
			"cloud.nested": `{"port":8080,"ratio":0.50}`,
		}
		flattened, err := Flatten(Unflatten(props))
		require.NoError(t, err)
		assert.Equal(t, "12345678901234567890", flattened["cloud.big"])
		assert.Equal(t, "1.0", flattened["cloud.float"])
		assert.Equal(t, "9007199254740993", flattened["cloud.id"])
		assert.JSONEq(t, `{"port":8080,"ratio":0.50}`, flattened["cloud.nested"])
		assert.Contains(t, flattened["cloud.nested"], "0.50")
	})
}
