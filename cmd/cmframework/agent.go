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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"

	"github.com/tochemey/cmframework/agent"
	"github.com/tochemey/cmframework/alarm"
	"github.com/tochemey/cmframework/bus"
	"github.com/tochemey/cmframework/plugin"
)

func runAgent(ctx context.Context, configPath string, registry *plugin.Registry) (err error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.NATS.URL == "" {
		return errors.New("the agent requires nats.url")
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Flush() }()
	logger.Infof("starting cmframework agent %s", version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func(ctx context.Context) error
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i](shutdownCtx))
		}
	}()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { return store.Close() })

	instruments, err := newMetrics(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, instruments.shutdown)

	conn, err := connectBus(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { return conn.Close() })

	alarms := alarm.NewService(bus.NewAlarmSink(conn), logger)
	if err := alarms.Start(ctx); err != nil {
		return err
	}
	closers = append(closers, alarms.Stop)

	plugins, err := plugin.NewLoader(registry,
		plugin.WithDirectory(cfg.Plugins.LocalActivators),
		plugin.WithFilter(plugin.ScopeFilter(plugin.ScopeLocal)),
		plugin.WithClient(store),
		plugin.WithNode(cfg.Node),
		plugin.WithRebootRequester(bus.NewRebootRequestClient(conn)),
		plugin.WithLogger(logger)).Load(ctx)
	if err != nil {
		return err
	}

	nodeAgent, err := agent.New(cfg.Node, plugins,
		agent.WithLogger(logger),
		agent.WithWorkers(cfg.Workers),
		agent.WithMetric(instruments.activation),
		agent.WithAlarms(alarms),
		agent.WithNodeActivator(bus.NewNodeActivationClient(conn)),
		agent.WithRebooter(agent.NewCommandRebooter(cfg.RebootCommand...)))
	if err != nil {
		return err
	}
	if err := nodeAgent.Start(ctx); err != nil {
		return err
	}
	closers = append(closers, nodeAgent.Stop)

	consumer := bus.NewConsumer(conn, cfg.Node, nodeAgent)
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { return consumer.Stop() })

	// the node keeps consuming works even when its activation failed
	reboot, err := nodeAgent.Run(ctx)
	if reboot {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down cmframework agent")
	return nil
}
