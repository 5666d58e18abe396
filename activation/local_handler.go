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
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
	"github.com/tochemey/cmframework/plugin"
)

// DefaultLocalHandlerName names the in-process handler in failure reports
const DefaultLocalHandlerName = "local"

// FullFailedSource returns the plugins that failed the last full activation
type FullFailedSource interface {
	FullFailed(ctx context.Context) ([]string, error)
}

// LocalHandler runs the activation plugins in-process
type LocalHandler struct {
	name    string
	plugins *plugin.Manager
	state   FullFailedSource
	logger  log.Logger
	metric  *metric.ActivationMetric
}

var _ Handler = (*LocalHandler)(nil)

// NewLocalHandler creates an instance of LocalHandler
func NewLocalHandler(plugins *plugin.Manager, opts ...LocalHandlerOption) *LocalHandler {
	handler := &LocalHandler{
		name:    DefaultLocalHandlerName,
		plugins: plugins,
		logger:  log.DefaultLogger,
	}
	for _, opt := range opts {
		opt.Apply(handler)
	}
	if handler.plugins == nil {
		handler.plugins = plugin.NewManager()
	}
	return handler
}

// Name implements Handler
func (h *LocalHandler) Name() string {
	return h.name
}

// Activate implements Handler. Every interested plugin is called even when
// a previous one failed.
func (h *LocalHandler) Activate(ctx context.Context, work *Work) (map[string]string, error) {
	h.logger.Infof("%s called with %s", work.Operation, work)
	switch work.Operation {
	case OperationSet:
		return h.activateSet(ctx, work.Properties), nil
	case OperationDelete:
		return h.activateDelete(ctx, work.Names), nil
	case OperationFull:
		return h.activateFull(ctx, work.Target, work.StartupActivation)
	case OperationNode:
		return h.activateFull(ctx, work.Target, false)
	default:
		h.logger.Errorf("unsupported activation operation %s", work.Operation)
		return nil, nil
	}
}

func (h *LocalHandler) activateSet(ctx context.Context, props map[string]string) map[string]string {
	failures := map[string]string{}
	for _, entry := range h.plugins.Entries() {
		activator, ok := entry.Plugin.(plugin.SetActivator)
		if !ok {
			continue
		}
		input := plugin.BuildInput(props, entry.Filter)
		if len(input) == 0 {
			h.logger.Debugf("skipping plugin %s as no input data is to be processed by it", entry.Name())
			continue
		}
		h.call(ctx, entry.Name(), "activate_set", failures, func() error {
			return activator.ActivateSet(ctx, input)
		})
	}
	return failures
}

func (h *LocalHandler) activateDelete(ctx context.Context, names []string) map[string]string {
	failures := map[string]string{}
	for _, entry := range h.plugins.Entries() {
		activator, ok := entry.Plugin.(plugin.DeleteActivator)
		if !ok {
			continue
		}
		input := plugin.BuildInput(names, entry.Filter)
		if len(input) == 0 {
			h.logger.Debugf("skipping plugin %s as no input data is to be processed by it", entry.Name())
			continue
		}
		h.call(ctx, entry.Name(), "activate_delete", failures, func() error {
			return activator.ActivateDelete(ctx, input)
		})
	}
	return failures
}

func (h *LocalHandler) activateFull(ctx context.Context, target string, startup bool) (map[string]string, error) {
	var previouslyFailed map[string]struct{}
	if startup {
		previouslyFailed = map[string]struct{}{}
		if h.state != nil {
			names, err := h.state.FullFailed(ctx)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				previouslyFailed[name] = struct{}{}
			}
		}
	}

	failures := map[string]string{}
	for _, entry := range h.plugins.Entries() {
		activator, ok := entry.Plugin.(plugin.FullActivator)
		if !ok {
			continue
		}
		if startup {
			if _, failed := previouslyFailed[entry.Name()]; !failed {
				h.logger.Infof("skipping plugin %s during startup as it has not failed in last activation", entry.Name())
				continue
			}
		}
		h.call(ctx, entry.Name(), "activate_full", failures, func() error {
			return activator.ActivateFull(ctx, target)
		})
	}
	return failures, nil
}

// call times one plugin invocation and records its failure or panic
func (h *LocalHandler) call(ctx context.Context, name, operation string, failures map[string]string, fn func() error) {
	h.logger.Infof("running plugin %s.%s", name, operation)
	start := time.Now()
	err := guard(fn)
	elapsed := time.Since(start)
	h.logger.Infof("plugin %s.%s took %s", name, operation, elapsed)

	attrs := otelmetric.WithAttributes(attribute.String("plugin", name), attribute.String("operation", operation))
	if h.metric != nil {
		h.metric.PluginDuration().Record(ctx, elapsed.Milliseconds(), attrs)
	}
	if err != nil {
		h.logger.Errorf("plugin %s.%s failed: %v", name, operation, err)
		failures[name] = err.Error()
		if h.metric != nil {
			h.metric.PluginFailures().Add(ctx, 1, attrs)
		}
	}
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gerrors.NewPanicError(r)
		}
	}()
	return fn()
}
