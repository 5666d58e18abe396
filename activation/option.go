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
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
)

// Option is the interface that applies an Activator option.
type Option interface {
	// Apply sets the Option value of an Activator.
	Apply(activator *Activator)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(activator *Activator)

// Apply applies the Activator option
func (f OptionFunc) Apply(activator *Activator) {
	f(activator)
}

// WithWorkers sets the number of node workers running in parallel
func WithWorkers(count int) Option {
	return OptionFunc(func(activator *Activator) {
		if count > 0 {
			activator.workers = count
		}
	})
}

// WithHandlers registers handlers, called in order for every work
func WithHandlers(handlers ...Handler) Option {
	return OptionFunc(func(activator *Activator) {
		activator.handlers = append(activator.handlers, handlers...)
	})
}

// WithChangeRecorder sets where change outcomes are recorded
func WithChangeRecorder(recorder ChangeRecorder) Option {
	return OptionFunc(func(activator *Activator) {
		activator.recorder = recorder
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(activator *Activator) {
		activator.logger = logger
	})
}

// WithMetric sets the activation instruments
func WithMetric(activationMetric *metric.ActivationMetric) Option {
	return OptionFunc(func(activator *Activator) {
		activator.metric = activationMetric
	})
}

// LocalHandlerOption is the interface that applies a LocalHandler option.
type LocalHandlerOption interface {
	// Apply sets the Option value of a LocalHandler.
	Apply(handler *LocalHandler)
}

var _ LocalHandlerOption = LocalHandlerOptionFunc(nil)

// LocalHandlerOptionFunc implements the LocalHandlerOption interface.
type LocalHandlerOptionFunc func(handler *LocalHandler)

// Apply applies the LocalHandler option
func (f LocalHandlerOptionFunc) Apply(handler *LocalHandler) {
	f(handler)
}

// WithHandlerName overrides the handler name used in failure reports
func WithHandlerName(name string) LocalHandlerOption {
	return LocalHandlerOptionFunc(func(handler *LocalHandler) {
		handler.name = name
	})
}

// WithFullFailedSource sets where startup activation finds the plugins
// that failed the last full activation
func WithFullFailedSource(source FullFailedSource) LocalHandlerOption {
	return LocalHandlerOptionFunc(func(handler *LocalHandler) {
		handler.state = source
	})
}

// WithHandlerLogger sets the handler logger
func WithHandlerLogger(logger log.Logger) LocalHandlerOption {
	return LocalHandlerOptionFunc(func(handler *LocalHandler) {
		handler.logger = logger
	})
}

// WithHandlerMetric sets the instruments timing plugin calls
func WithHandlerMetric(activationMetric *metric.ActivationMetric) LocalHandlerOption {
	return LocalHandlerOptionFunc(func(handler *LocalHandler) {
		handler.metric = activationMetric
	})
}
