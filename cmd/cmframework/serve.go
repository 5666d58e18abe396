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
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/cmframework/activation"
	"github.com/tochemey/cmframework/alarm"
	"github.com/tochemey/cmframework/bus"
	"github.com/tochemey/cmframework/changemonitor"
	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/flagfile"
	"github.com/tochemey/cmframework/plugin"
	"github.com/tochemey/cmframework/processor"
	"github.com/tochemey/cmframework/state"
	"github.com/tochemey/cmframework/validator"
)

const shutdownTimeout = 30 * time.Second

func runServe(ctx context.Context, configPath string, registry *plugin.Registry) (err error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Flush() }()
	logger.Infof("starting cmframework controller %s", version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// resources are released in reverse order of creation
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

	states, err := openState(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { return states.Close() })

	instruments, err := newMetrics(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, instruments.shutdown)

	conn, err := connectBus(cfg, logger)
	if err != nil {
		return err
	}
	if conn != nil {
		closers = append(closers, func(context.Context) error { return conn.Close() })
	}

	var sink alarm.Sink = alarm.NewLogSink(logger)
	if conn != nil {
		sink = bus.NewAlarmSink(conn)
	}
	alarms := alarm.NewService(sink, logger)
	if err := alarms.Start(ctx); err != nil {
		return err
	}
	closers = append(closers, alarms.Stop)

	validators, err := plugin.NewLoader(registry,
		plugin.WithDirectory(cfg.Plugins.Validators),
		plugin.WithClient(store),
		plugin.WithLogger(logger)).Load(ctx)
	if err != nil {
		return err
	}

	// activators only run once the processor below is assigned
	var proc *processor.Processor
	rebootRequests := plugin.RebootRequesterFunc(func(ctx context.Context, node string) error {
		return proc.RebootRequest(ctx, node)
	})

	activators, err := plugin.NewLoader(registry,
		plugin.WithDirectory(cfg.Plugins.Activators),
		plugin.WithFilter(plugin.ScopeFilter(plugin.ScopeGlobal)),
		plugin.WithClient(store),
		plugin.WithNode(cfg.Node),
		plugin.WithRebootRequester(rebootRequests),
		plugin.WithLogger(logger)).Load(ctx)
	if err != nil {
		return err
	}

	monitor := changemonitor.New(logger)
	handlers := []activation.Handler{
		activation.NewLocalHandler(activators,
			activation.WithFullFailedSource(state.NewActivationState(states, logger)),
			activation.WithHandlerLogger(logger),
			activation.WithHandlerMetric(instruments.activation)),
	}
	if conn != nil {
		handlers = append(handlers, bus.NewPublisher(conn))
	}

	activator := activation.New(
		activation.WithWorkers(cfg.Workers),
		activation.WithHandlers(handlers...),
		activation.WithChangeRecorder(monitor),
		activation.WithLogger(logger),
		activation.WithMetric(instruments.activation))
	if err := activator.Start(ctx); err != nil {
		return err
	}
	closers = append(closers, activator.Stop)

	proc, err = processor.New(ctx, store, validator.New(validators, logger), activator, states,
		processor.WithLogger(logger),
		processor.WithChangeMonitor(monitor),
		processor.WithFlagDir(flagfile.New(cfg.FlagDir)),
		processor.WithAlarms(alarms),
		processor.WithMetric(instruments.processor))
	if err != nil {
		return err
	}

	if conn != nil {
		responder := bus.NewNodeActivationResponder(conn, proc)
		if err := responder.Start(ctx); err != nil {
			return err
		}
		closers = append(closers, responder.Stop)

		rebooter := bus.NewRebootRequestResponder(conn, proc)
		if err := rebooter.Start(ctx); err != nil {
			return err
		}
		closers = append(closers, rebooter.Stop)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("running startup activation")
		if _, err := proc.Activate(ctx, "", true); err != nil {
			var failure *gerrors.ActivationFailure
			if !errors.As(err, &failure) && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warnf("startup activation failed: %v", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down cmframework controller")
		return nil
	})
	return group.Wait()
}
