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

// Package plugintest provides configurable plugins for tests.
package plugintest

import (
	"context"
	"errors"
	"sync"

	"github.com/tochemey/cmframework/plugin"
)

// Call records one capability invocation
type Call struct {
	Op     string
	Props  map[string]string
	Names  []string
	Target string
}

// Option configures a Fake
type Option func(f *Fake)

// WithValidateSet sets the ValidateSet behaviour
func WithValidateSet(fn func(map[string]string) error) Option {
	return func(f *Fake) { f.validateSet = fn }
}

// WithValidateDelete sets the ValidateDelete behaviour
func WithValidateDelete(fn func([]string) error) Option {
	return func(f *Fake) { f.validateDelete = fn }
}

// WithActivateSet sets the ActivateSet behaviour
func WithActivateSet(fn func(map[string]string) error) Option {
	return func(f *Fake) { f.activateSet = fn }
}

// WithActivateDelete sets the ActivateDelete behaviour
func WithActivateDelete(fn func([]string) error) Option {
	return func(f *Fake) { f.activateDelete = fn }
}

// WithActivateFull sets the ActivateFull behaviour
func WithActivateFull(fn func(target string) error) Option {
	return func(f *Fake) { f.activateFull = fn }
}

// WithScope sets the plugin scope
func WithScope(scope plugin.Scope) Option {
	return func(f *Fake) { f.scope = scope }
}

// WithSubscriptionError makes Subscription fail
func WithSubscriptionError(err error) Option {
	return func(f *Fake) { f.subscriptionErr = err }
}

// WithSubscriptionPanic makes Subscription panic with value
func WithSubscriptionPanic(value any) Option {
	return func(f *Fake) { f.subscriptionPanic = value }
}

// Fake implements every plugin capability and records its calls
type Fake struct {
	mu                sync.Mutex
	name              string
	subscription      string
	subscriptionErr   error
	subscriptionPanic any
	scope             plugin.Scope
	calls             []Call
	client            plugin.Client
	node              string
	rebooter          plugin.RebootRequester

	validateSet    func(map[string]string) error
	validateDelete func([]string) error
	activateSet    func(map[string]string) error
	activateDelete func([]string) error
	activateFull   func(string) error
}

var (
	_ plugin.SetValidator    = (*Fake)(nil)
	_ plugin.DeleteValidator = (*Fake)(nil)
	_ plugin.SetActivator    = (*Fake)(nil)
	_ plugin.DeleteActivator = (*Fake)(nil)
	_ plugin.FullActivator   = (*Fake)(nil)
	_ plugin.ClientAware     = (*Fake)(nil)
	_ plugin.NodeAware       = (*Fake)(nil)
	_ plugin.RebootAware     = (*Fake)(nil)
	_ plugin.Scoped          = (*Fake)(nil)
)

// New creates an instance of Fake
func New(name, subscription string, opts ...Option) *Fake {
	f := &Fake{name: name, subscription: subscription}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fail returns a function failing with message, usable with every option
func Fail[T any](message string) func(T) error {
	return func(T) error { return errors.New(message) }
}

func (f *Fake) Name() string { return f.name }

func (f *Fake) Subscription() (string, error) {
	if f.subscriptionPanic != nil {
		panic(f.subscriptionPanic)
	}
	return f.subscription, f.subscriptionErr
}

func (f *Fake) Scope() plugin.Scope { return f.scope }

func (f *Fake) SetClient(client plugin.Client) {
	f.mu.Lock()
	f.client = client
	f.mu.Unlock()
}

func (f *Fake) SetNode(name string) {
	f.mu.Lock()
	f.node = name
	f.mu.Unlock()
}

func (f *Fake) SetRebootRequester(requester plugin.RebootRequester) {
	f.mu.Lock()
	f.rebooter = requester
	f.mu.Unlock()
}

// RequestReboot asks the injected RebootRequester to reboot node
func (f *Fake) RequestReboot(ctx context.Context, node string) error {
	f.mu.Lock()
	rebooter := f.rebooter
	f.mu.Unlock()
	if rebooter == nil {
		return errors.New("no reboot requester set")
	}
	return rebooter.RebootRequest(ctx, node)
}

func (f *Fake) ValidateSet(_ context.Context, props map[string]string) error {
	f.record(Call{Op: "validate_set", Props: props})
	return call(f.validateSet, props)
}

func (f *Fake) ValidateDelete(_ context.Context, names []string) error {
	f.record(Call{Op: "validate_delete", Names: names})
	return call(f.validateDelete, names)
}

func (f *Fake) ActivateSet(_ context.Context, props map[string]string) error {
	f.record(Call{Op: "activate_set", Props: props})
	return call(f.activateSet, props)
}

func (f *Fake) ActivateDelete(_ context.Context, names []string) error {
	f.record(Call{Op: "activate_delete", Names: names})
	return call(f.activateDelete, names)
}

func (f *Fake) ActivateFull(_ context.Context, target string) error {
	f.record(Call{Op: "activate_full", Target: target})
	return call(f.activateFull, target)
}

// Calls returns the recorded calls in order
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ops returns the operation names of the recorded calls
func (f *Fake) Ops() []string {
	calls := f.Calls()
	ops := make([]string, 0, len(calls))
	for _, c := range calls {
		ops = append(ops, c.Op)
	}
	return ops
}

// Reset forgets the recorded calls
func (f *Fake) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

// Client returns the client handed over by the loader
func (f *Fake) Client() plugin.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client
}

// Node returns the node name handed over by the loader
func (f *Fake) Node() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.node
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func call[T any](fn func(T) error, arg T) error {
	if fn == nil {
		return nil
	}
	return fn(arg)
}

// Bare only implements plugin.Plugin
type Bare struct {
	name         string
	subscription string
}

// NewBare creates a plugin without any capability
func NewBare(name, subscription string) *Bare {
	return &Bare{name: name, subscription: subscription}
}

func (b *Bare) Name() string { return b.name }

func (b *Bare) Subscription() (string, error) { return b.subscription, nil }
