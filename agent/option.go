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

package agent

import (
	"github.com/tochemey/cmframework/alarm"
	"github.com/tochemey/cmframework/bus"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of an agent.
	Apply(agent *Agent)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(agent *Agent)

// Apply applies the agent option
func (f OptionFunc) Apply(agent *Agent) {
	f(agent)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(agent *Agent) {
		agent.logger = logger
	})
}

// WithNodeActivator sets the controller asked for the node activation in Run
func WithNodeActivator(activator bus.NodeActivator) Option {
	return OptionFunc(func(agent *Agent) {
		agent.nodeActivator = activator
	})
}

// WithRebooter overrides the default CommandRebooter
func WithRebooter(rebooter Rebooter) Option {
	return OptionFunc(func(agent *Agent) {
		agent.rebooter = rebooter
	})
}

// WithAlarms sets the alarm service used to cancel the node reboot alarm
func WithAlarms(alarms *alarm.Service) Option {
	return OptionFunc(func(agent *Agent) {
		agent.alarms = alarms
	})
}

// WithMetric sets the activation instruments
func WithMetric(activationMetric *metric.ActivationMetric) Option {
	return OptionFunc(func(agent *Agent) {
		agent.metric = activationMetric
	})
}

// WithWorkers sets the number of node workers of the local activator
func WithWorkers(count int) Option {
	return OptionFunc(func(agent *Agent) {
		if count > 0 {
			agent.workers = count
		}
	})
}
