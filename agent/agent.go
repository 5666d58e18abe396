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
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tochemey/cmframework/activation"
	"github.com/tochemey/cmframework/alarm"
	"github.com/tochemey/cmframework/bus"
	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
	"github.com/tochemey/cmframework/plugin"
)

// Agent runs the node scoped activation plugins of a node. Works received
// from the controller are queued on a local activator.
type Agent struct {
	node          string
	plugins       *plugin.Manager
	activator     *activation.Activator
	nodeActivator bus.NodeActivator
	rebooter      Rebooter
	alarms        *alarm.Service
	metric        *metric.ActivationMetric
	workers       int
	logger        log.Logger
}

var _ bus.WorkConsumer = (*Agent)(nil)

// New creates an Agent for node
func New(node string, plugins *plugin.Manager, opts ...Option) (*Agent, error) {
	if node == "" {
		return nil, gerrors.ErrNodeNameRequired
	}

	agent := &Agent{
		node:     node,
		plugins:  plugins,
		rebooter: NewCommandRebooter(),
		workers:  1,
		logger:   log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(agent)
	}

	agent.logger = agent.logger.With("node", node)
	handlerOpts := []activation.LocalHandlerOption{activation.WithHandlerLogger(agent.logger)}
	activatorOpts := []activation.Option{activation.WithWorkers(agent.workers), activation.WithLogger(agent.logger)}
	if agent.metric != nil {
		handlerOpts = append(handlerOpts, activation.WithHandlerMetric(agent.metric))
		activatorOpts = append(activatorOpts, activation.WithMetric(agent.metric))
	}

	handler := activation.NewLocalHandler(plugins, handlerOpts...)
	agent.activator = activation.New(append(activatorOpts, activation.WithHandlers(handler))...)
	return agent, nil
}

// Node returns the node name
func (a *Agent) Node() string {
	return a.node
}

// Start starts the local activator
func (a *Agent) Start(ctx context.Context) error {
	return a.activator.Start(ctx)
}

// Stop stops the local activator. Pending works are dropped.
func (a *Agent) Stop(ctx context.Context) error {
	return a.activator.Stop(ctx)
}

// Consume queues a work received from the controller
func (a *Agent) Consume(ctx context.Context, work *activation.Work) error {
	if work.Target != "" && work.Target != a.node {
		a.logger.Debugf("ignoring %s addressed to %s", work, work.Target)
		return nil
	}
	return a.activator.AddWork(ctx, work)
}

// Run asks the controller to bring this node up to date and reboots the
// node when a plugin requested it. It returns whether a reboot was triggered.
func (a *Agent) Run(ctx context.Context) (bool, error) {
	if a.alarms != nil {
		a.alarms.CancelForNode(alarm.NodeRebootRequest, a.node, nil)
	}

	if a.nodeActivator == nil {
		return false, nil
	}

	reboot, err := a.nodeActivator.ActivateNode(ctx, a.node)
	if err != nil {
		err = fmt.Errorf("node activation failed: %w", err)
		a.logger.Error(err)
	}

	if !reboot {
		if err == nil {
			a.logger.Info("node is up to date")
		}
		return false, err
	}

	a.logger.Warn("going to reboot this node")
	if rebootErr := a.rebooter.Reboot(ctx); rebootErr != nil {
		a.logger.Errorf("reboot failed: %v", rebootErr)
		return true, multierr.Append(err, rebootErr)
	}
	return true, err
}
