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

// Package plugin defines the validation and activation plugin contract and
// loads plugins from manifest directories.
//
// A plugin only has to name itself and declare the properties it subscribes
// to. Everything else is opt-in through capability interfaces: a plugin that
// does not implement SetValidator is simply never asked to validate a set.
package plugin

import (
	"context"

	"github.com/tochemey/cmframework/backend"
)

// Client is the read-only view of the persisted configuration given to plugins
type Client = backend.Reader

// Plugin is implemented by every plugin
type Plugin interface {
	// Name returns the unique plugin name
	Name() string
	// Subscription returns the regular expression matching the properties
	// the plugin is interested in. It is matched at the start of names.
	Subscription() (string, error)
}

// SetValidator validates added or updated properties
type SetValidator interface {
	ValidateSet(ctx context.Context, props map[string]string) error
}

// DeleteValidator validates property removals
type DeleteValidator interface {
	ValidateDelete(ctx context.Context, names []string) error
}

// SetActivator applies added or updated properties
type SetActivator interface {
	ActivateSet(ctx context.Context, props map[string]string) error
}

// DeleteActivator applies property removals
type DeleteActivator interface {
	ActivateDelete(ctx context.Context, names []string) error
}

// FullActivator applies the whole configuration. target is empty when
// activating every node.
type FullActivator interface {
	ActivateFull(ctx context.Context, target string) error
}

// ClientAware plugins receive a Client once loaded
type ClientAware interface {
	SetClient(client Client)
}

// NodeAware plugins learn the name of the node they run on
type NodeAware interface {
	SetNode(name string)
}

// RebootRequester records that a node must be rebooted for the running
// activation to take effect
type RebootRequester interface {
	RebootRequest(ctx context.Context, node string) error
}

// RebootRequesterFunc implements RebootRequester
type RebootRequesterFunc func(ctx context.Context, node string) error

// RebootRequest implements RebootRequester
func (f RebootRequesterFunc) RebootRequest(ctx context.Context, node string) error {
	return f(ctx, node)
}

// RebootAware plugins receive the RebootRequester once loaded
type RebootAware interface {
	SetRebootRequester(requester RebootRequester)
}

// Scope tells where an activator runs
type Scope int

const (
	// ScopeGlobal activators run once on the controller
	ScopeGlobal Scope = iota
	// ScopeLocal activators run on every node agent
	ScopeLocal
)

// String returns the scope name
func (s Scope) String() string {
	if s == ScopeLocal {
		return "local"
	}
	return "global"
}

// Scoped plugins declare their Scope. Plugins without it are global.
type Scoped interface {
	Scope() Scope
}

// ScopeOf returns the scope of p
func ScopeOf(p Plugin) Scope {
	if scoped, ok := p.(Scoped); ok {
		return scoped.Scope()
	}
	return ScopeGlobal
}
