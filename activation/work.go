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

package activation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tochemey/cmframework/internal/future"
)

// Operation is the kind of activation a Work asks for
type Operation int

const (
	// OperationNone is the zero operation, it activates nothing
	OperationNone Operation = iota
	// OperationSet activates added or updated properties
	OperationSet
	// OperationDelete activates removed properties
	OperationDelete
	// OperationFull activates the whole configuration
	OperationFull
	// OperationNode activates the whole configuration on one node
	OperationNode
)

var operationNames = [...]string{"NONE", "SET", "DELETE", "FULL", "NODE"}

// String returns the operation name
func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return operationNames[o]
}

// Failures maps a handler name to the plugins that failed in it and why
type Failures map[string]map[string]string

// Flatten merges the plugin failures of every handler
func (f Failures) Flatten() map[string]string {
	flat := make(map[string]string)
	for _, plugins := range f {
		for plugin, detail := range plugins {
			flat[plugin] = detail
		}
	}
	return flat
}

// Plugins returns the failed plugin names in ascending order
func (f Failures) Plugins() []string {
	flat := f.Flatten()
	plugins := make([]string, 0, len(flat))
	for plugin := range flat {
		plugins = append(plugins, plugin)
	}
	sort.Strings(plugins)
	return plugins
}

// IsEmpty reports whether nothing failed
func (f Failures) IsEmpty() bool {
	return len(f) == 0
}

type outcome struct {
	failures Failures
	err      error
}

// Work is one unit of activation. Its result can be awaited once a worker
// has handled it.
type Work struct {
	Operation         Operation
	CSN               int64
	Properties        map[string]string
	Names             []string
	Target            string
	StartupActivation bool
	ChangeID          string

	once   sync.Once
	result *future.Future[outcome]
}

// NewSetWork creates the work activating added or updated properties
func NewSetWork(csn int64, props map[string]string) *Work {
	return &Work{Operation: OperationSet, CSN: csn, Properties: props}
}

// NewDeleteWork creates the work activating removed properties
func NewDeleteWork(csn int64, names []string) *Work {
	return &Work{Operation: OperationDelete, CSN: csn, Names: names}
}

// NewFullWork creates a full activation of target, every node when empty
func NewFullWork(csn int64, target string, startup bool) *Work {
	return &Work{Operation: OperationFull, CSN: csn, Target: target, StartupActivation: startup}
}

// NewNodeWork creates the activation of a node catching up
func NewNodeWork(csn int64, node string) *Work {
	return &Work{Operation: OperationNode, CSN: csn, Target: node}
}

// AddResult completes the work. Only the first call has an effect.
func (w *Work) AddResult(failures Failures) bool {
	return w.future().Complete(outcome{failures: failures})
}

// Result blocks until the work is completed or ctx ends
func (w *Work) Result(ctx context.Context) (Failures, error) {
	out, err := w.future().Await(ctx)
	if err != nil {
		return nil, err
	}
	return out.failures, out.err
}

// Done returns a channel closed once the work is completed
func (w *Work) Done() <-chan struct{} {
	return w.future().Done()
}

// abort completes the work with an error instead of a result
func (w *Work) abort(err error) bool {
	return w.future().Complete(outcome{err: err})
}

func (w *Work) future() *future.Future[outcome] {
	w.once.Do(func() {
		w.result = future.New[outcome]()
	})
	return w.result
}

// String implements fmt.Stringer
func (w *Work) String() string {
	return fmt.Sprintf("(%s csn=%d target=%q startup=%t change=%q)",
		w.Operation, w.CSN, w.Target, w.StartupActivation, w.ChangeID)
}

type wireWork struct {
	Operation         Operation       `json:"operation"`
	CSN               int64           `json:"csn"`
	Properties        json.RawMessage `json:"properties"`
	Target            string          `json:"target"`
	StartupActivation bool            `json:"startup_activation"`
	UUID              string          `json:"uuid"`
}

// MarshalJSON implements json.Marshaler. Properties are sent as an object
// and removed names as a list.
func (w *Work) MarshalJSON() ([]byte, error) {
	var (
		props []byte
		err   error
	)
	if w.Operation == OperationDelete {
		names := w.Names
		if names == nil {
			names = []string{}
		}
		props, err = json.Marshal(names)
	} else {
		values := w.Properties
		if values == nil {
			values = map[string]string{}
		}
		props, err = json.Marshal(values)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireWork{
		Operation:         w.Operation,
		CSN:               w.CSN,
		Properties:        props,
		Target:            w.Target,
		StartupActivation: w.StartupActivation,
		UUID:              w.ChangeID,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (w *Work) UnmarshalJSON(data []byte) error {
	var wire wireWork
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	w.Operation = wire.Operation
	w.CSN = wire.CSN
	w.Target = wire.Target
	w.StartupActivation = wire.StartupActivation
	w.ChangeID = wire.UUID
	w.Properties, w.Names = nil, nil

	raw := bytes.TrimSpace(wire.Properties)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &w.Names); err != nil {
			return fmt.Errorf("decoding removed names: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &w.Properties); err != nil {
			return fmt.Errorf("decoding properties: %w", err)
		}
	}
	return nil
}
