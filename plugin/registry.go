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

package plugin

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tochemey/cmframework/internal/xsync"
)

// Manifest describes one plugin to load
type Manifest struct {
	// Name defaults to the manifest file base name
	Name string `yaml:"name"`
	// Factory is the registered factory building the plugin
	Factory string `yaml:"factory"`
	// Subscription overrides the plugin's own subscription when set
	Subscription string `yaml:"subscription"`
	// Disabled manifests are skipped
	Disabled bool `yaml:"disabled"`
	// Settings are free form and handed over to the factory
	Settings map[string]any `yaml:"settings"`
}

// DecodeSettings decodes the manifest settings into out
func (m Manifest) DecodeSettings(out any) error {
	if len(m.Settings) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(m.Settings)
	if err != nil {
		return fmt.Errorf("plugin %s: encoding settings: %w", m.Name, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("plugin %s: decoding settings: %w", m.Name, err)
	}
	return nil
}

// Factory builds a plugin from its manifest
type Factory func(manifest Manifest) (Plugin, error)

// Registry maps factory names to factories
type Registry struct {
	factories *xsync.Map[string, Factory]
}

// NewRegistry creates an instance of Registry
func NewRegistry() *Registry {
	return &Registry{factories: xsync.NewMap[string, Factory]()}
}

// Register adds or replaces a factory
func (r *Registry) Register(name string, factory Factory) {
	r.factories.Set(name, factory)
}

// Factory returns the factory registered under name
func (r *Registry) Factory(name string) (Factory, bool) {
	return r.factories.Get(name)
}

// Names returns the registered factory names in ascending order
func (r *Registry) Names() []string {
	return xsync.SortedKeys(r.factories)
}
