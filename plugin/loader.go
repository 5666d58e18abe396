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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/match"
	"github.com/tochemey/cmframework/log"
)

// LoadingFilter decides whether a constructed plugin is kept
type LoadingFilter interface {
	IsSupported(p Plugin) bool
}

// LoadingFilterFunc implements LoadingFilter
type LoadingFilterFunc func(p Plugin) bool

// IsSupported implements LoadingFilter
func (f LoadingFilterFunc) IsSupported(p Plugin) bool {
	return f(p)
}

// ScopeFilter keeps the plugins declaring scope
func ScopeFilter(scope Scope) LoadingFilter {
	return LoadingFilterFunc(func(p Plugin) bool {
		return ScopeOf(p) == scope
	})
}

// LoaderOption is the interface that applies a Loader option.
type LoaderOption interface {
	// Apply sets the Option value of a Loader.
	Apply(loader *Loader)
}

var _ LoaderOption = LoaderOptionFunc(nil)

// LoaderOptionFunc implements the LoaderOption interface.
type LoaderOptionFunc func(loader *Loader)

// Apply applies the Loader option
func (f LoaderOptionFunc) Apply(loader *Loader) {
	f(loader)
}

// WithDirectory sets the manifest directory to scan
func WithDirectory(dir string) LoaderOption {
	return LoaderOptionFunc(func(loader *Loader) {
		loader.dir = dir
	})
}

// WithPlugins loads already constructed plugins ahead of the directory
func WithPlugins(plugins ...Plugin) LoaderOption {
	return LoaderOptionFunc(func(loader *Loader) {
		loader.plugins = append(loader.plugins, plugins...)
	})
}

// WithFilter sets the LoadingFilter
func WithFilter(filter LoadingFilter) LoaderOption {
	return LoaderOptionFunc(func(loader *Loader) {
		loader.filter = filter
	})
}

// WithClient sets the Client handed to ClientAware plugins
func WithClient(client Client) LoaderOption {
	return LoaderOptionFunc(func(loader *Loader) {
		loader.client = client
	})
}

// WithNode sets the node name handed to NodeAware plugins
func WithNode(name string) LoaderOption {
	return LoaderOptionFunc(func(loader *Loader) {
		loader.node = name
	})
}

// WithRebootRequester sets the RebootRequester handed to RebootAware plugins
func WithRebootRequester(requester RebootRequester) LoaderOption {
	return LoaderOptionFunc(func(loader *Loader) {
		loader.rebooter = requester
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) LoaderOption {
	return LoaderOptionFunc(func(loader *Loader) {
		loader.logger = logger
	})
}

// Loader builds a Manager from explicit plugins and a manifest directory.
// Faulty plugins are logged and dropped, they never fail the load.
type Loader struct {
	registry *Registry
	dir      string
	plugins  []Plugin
	filter   LoadingFilter
	client   Client
	node     string
	rebooter RebootRequester
	logger   log.Logger
}

// NewLoader creates an instance of Loader
func NewLoader(registry *Registry, opts ...LoaderOption) *Loader {
	loader := &Loader{
		registry: registry,
		logger:   log.DefaultLogger,
	}
	for _, opt := range opts {
		opt.Apply(loader)
	}
	if loader.registry == nil {
		loader.registry = NewRegistry()
	}
	return loader
}

// Load constructs every plugin and compiles its subscription.
// Only an unreadable directory fails the load; a missing one is empty.
func (l *Loader) Load(ctx context.Context) (*Manager, error) {
	manager := NewManager()
	for _, p := range l.plugins {
		l.register(manager, p, "")
	}

	manifests, err := l.manifests()
	if err != nil {
		return nil, err
	}
	for _, manifest := range manifests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := l.construct(manifest)
		if err != nil {
			l.logger.Errorf("failed to load plugin %s: %v", manifest.Name, err)
			continue
		}
		if p == nil {
			continue
		}
		l.register(manager, p, manifest.Subscription)
	}

	l.logger.Infof("plugin(s) loaded from %q: %v", l.dir, manager.Names())
	return manager, nil
}

func (l *Loader) manifests() ([]Manifest, error) {
	if l.dir == "" {
		return nil, nil
	}
	files, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warnf("plugin directory %s does not exist", l.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: reading %s: %w", l.dir, err)
	}

	var names []string
	for _, file := range files {
		ext := filepath.Ext(file.Name())
		if file.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, file.Name())
	}
	sort.Strings(names)

	manifests := make([]Manifest, 0, len(names))
	for _, name := range names {
		manifest, err := readManifest(filepath.Join(l.dir, name))
		if err != nil {
			l.logger.Errorf("failed to read plugin manifest %s: %v", name, err)
			continue
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}

func readManifest(path string) (Manifest, error) {
	var manifest Manifest
	raw, err := os.ReadFile(path)
	if err != nil {
		return manifest, err
	}
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return manifest, err
	}
	if manifest.Name == "" {
		base := filepath.Base(path)
		manifest.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if manifest.Factory == "" {
		manifest.Factory = manifest.Name
	}
	return manifest, nil
}

// construct returns a nil plugin for disabled manifests
func (l *Loader) construct(manifest Manifest) (p Plugin, err error) {
	if manifest.Disabled {
		l.logger.Infof("skipping disabled plugin %s", manifest.Name)
		return nil, nil
	}
	factory, ok := l.registry.Factory(manifest.Factory)
	if !ok {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrFactoryNotFound, manifest.Factory)
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, gerrors.NewPanicError(r)
		}
	}()
	return factory(manifest)
}

// register drops the plugin when any of its calls panics
func (l *Loader) register(manager *Manager, p Plugin, override string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorf("dropping plugin %T: %v", p, gerrors.NewPanicError(r))
		}
	}()

	name := p.Name()
	if l.filter != nil && !l.filter.IsSupported(p) {
		l.logger.Infof("skipping plugin %s as it does not match configured filter", name)
		return
	}

	subscription := override
	if subscription == "" {
		var err error
		if subscription, err = p.Subscription(); err != nil {
			l.logger.Errorf("getting subscription failed for %s: %v", name, err)
			return
		}
	}
	filter, err := match.Compile(subscription)
	if err != nil {
		l.logger.Errorf("invalid subscription for %s: %v", name, err)
		return
	}

	if aware, ok := p.(ClientAware); ok && l.client != nil {
		aware.SetClient(l.client)
	}
	if aware, ok := p.(NodeAware); ok && l.node != "" {
		aware.SetNode(l.node)
	}
	if aware, ok := p.(RebootAware); ok && l.rebooter != nil {
		aware.SetRebootRequester(l.rebooter)
	}

	if !manager.add(Entry{Plugin: p, Subscription: subscription, Filter: filter}) {
		l.logger.Errorf("duplicate plugin name %s, keeping the first one", name)
		return
	}
	l.logger.Debugf("plugin %s subscribes to %q", name, subscription)
}
