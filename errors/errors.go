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

package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrPropertyNotFound is returned when a property does not exist in the store.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrStateNotFound is returned when a state entry does not exist in a domain.
	ErrStateNotFound = errors.New("state entry not found")

	// ErrStoreClosed is returned when a store is used after Close.
	ErrStoreClosed = errors.New("store is closed")

	// ErrChangeNotFound is returned when a change id is unknown to the change monitor.
	ErrChangeNotFound = errors.New("change not found")

	// ErrSnapshotExists is returned when creating a snapshot whose name is taken.
	ErrSnapshotExists = errors.New("snapshot already exists")

	// ErrSnapshotNotFound is returned when a snapshot does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotNotLoaded is returned when reading or restoring a snapshot before loading it.
	ErrSnapshotNotLoaded = errors.New("snapshot is not loaded")

	// ErrSnapshotNameRequired is returned when a snapshot operation is given an empty name.
	ErrSnapshotNameRequired = errors.New("snapshot name is required")

	// ErrActivatorStarted is returned when starting an activator twice.
	ErrActivatorStarted = errors.New("activator has already started")

	// ErrActivatorStopped is returned when work is added to a stopped activator.
	ErrActivatorStopped = errors.New("activator is not running")

	// ErrUnknownDependency is returned when a dependency file names an unknown handler.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrFactoryNotFound is returned when a plugin manifest names an unregistered factory.
	ErrFactoryNotFound = errors.New("plugin factory not found")

	// ErrNodeNameRequired is returned when a node scoped operation is given an empty node name.
	ErrNodeNameRequired = errors.New("node name is required")

	// ErrNotConnected is returned when a bus component is used before Connect.
	ErrNotConnected = errors.New("bus is not connected")

	// ErrServiceNotStarted is returned when a service is used before Start.
	ErrServiceNotStarted = errors.New("service has not started")
)

// ValidationError is returned when a validation plugin rejects a change.
// Nothing has been persisted when it is returned.
type ValidationError struct {
	plugin string
	err    error
}

// enforce compilation error
var _ error = (*ValidationError)(nil)

// NewValidationError creates an instance of ValidationError
func NewValidationError(plugin string, err error) *ValidationError {
	return &ValidationError{plugin: plugin, err: err}
}

// Plugin returns the name of the plugin that rejected the change
func (e *ValidationError) Plugin() string {
	return e.plugin
}

// Error implements the standard error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed in %s: %v", e.plugin, e.err)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// ActivationFailure reports the plugins that failed to activate a
// persisted change. The commit itself is never undone.
type ActivationFailure struct {
	failures map[string]string
}

var _ error = (*ActivationFailure)(nil)

// NewActivationFailure creates an instance of ActivationFailure from a
// plugin name to failure detail map
func NewActivationFailure(failures map[string]string) *ActivationFailure {
	copied := make(map[string]string, len(failures))
	for plugin, detail := range failures {
		copied[plugin] = detail
	}
	return &ActivationFailure{failures: copied}
}

// Failures returns a copy of the plugin failure details
func (e *ActivationFailure) Failures() map[string]string {
	copied := make(map[string]string, len(e.failures))
	for plugin, detail := range e.failures {
		copied[plugin] = detail
	}
	return copied
}

// Error implements the standard error interface
func (e *ActivationFailure) Error() string {
	plugins := make([]string, 0, len(e.failures))
	for plugin := range e.failures {
		plugins = append(plugins, plugin)
	}
	sort.Strings(plugins)
	return fmt.Sprintf("activation failed for %s", strings.Join(plugins, ", "))
}

// ConsistencyError reports missing or undecodable bookkeeping data such as
// the change sequence record or snapshot metadata.
type ConsistencyError struct {
	what string
	err  error
}

var _ error = (*ConsistencyError)(nil)

// NewConsistencyError creates an instance of ConsistencyError
func NewConsistencyError(what string, err error) *ConsistencyError {
	return &ConsistencyError{what: what, err: err}
}

// Error implements the standard error interface
func (e *ConsistencyError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("inconsistent %s", e.what)
	}
	return fmt.Sprintf("inconsistent %s: %v", e.what, e.err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.err
}

// CycleError is returned when dependency ordering finds a cycle
type CycleError struct {
	node string
}

var _ error = (*CycleError)(nil)

// NewCycleError creates an instance of CycleError
func NewCycleError(node string) *CycleError {
	return &CycleError{node: node}
}

// Node returns the node where the cycle was detected
func (e *CycleError) Node() string {
	return e.node
}

// Error implements the standard error interface
func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected in dependencies (%s)", e.node)
}

// TransportError is returned when the remote activation bus is unavailable
type TransportError struct {
	err error
}

var _ error = (*TransportError)(nil)

// NewTransportError creates an instance of TransportError
func NewTransportError(err error) *TransportError {
	return &TransportError{err: err}
}

// Error implements the standard error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.err)
}

func (e *TransportError) Unwrap() error {
	return e.err
}

// PanicError wraps a value recovered from a panicking plugin or handler
type PanicError struct {
	err error
}

var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(recovered any) *PanicError {
	if err, ok := recovered.(error); ok {
		return &PanicError{err: err}
	}
	return &PanicError{err: fmt.Errorf("%v", recovered)}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}
