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
	"fmt"
	"os"

	"github.com/tochemey/cmframework/backend"
	"github.com/tochemey/cmframework/bus"
	"github.com/tochemey/cmframework/config"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
	"github.com/tochemey/cmframework/state"
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) log.Logger {
	return log.NewZap(cfg.Level(), os.Stdout).With("node", cfg.Node)
}

func openBackend(ctx context.Context, cfg *config.Config, logger log.Logger) (backend.Store, error) {
	opts := []backend.Option{backend.WithLogger(logger)}
	if cfg.Backend.KeyPrefix != "" {
		opts = append(opts, backend.WithKeyPrefix(cfg.Backend.KeyPrefix))
	}

	switch cfg.Backend.Type {
	case config.BackendFile:
		return backend.NewFileStore(cfg.Backend.File, opts...)
	case config.BackendRedis:
		return backend.NewRedisStore(ctx, cfg.Backend.Redis, opts...)
	default:
		return backend.NewMemoryStore(nil), nil
	}
}

func openState(cfg *config.Config) (state.Store, error) {
	if cfg.State.Type == config.StateBolt {
		return state.NewBoltStore(cfg.State.Path)
	}
	return state.NewMemoryStore(), nil
}

func connectBus(cfg *config.Config, logger log.Logger) (*bus.Conn, error) {
	if cfg.NATS.URL == "" {
		return nil, nil
	}
	return bus.Connect(&bus.Config{
		URL:            cfg.NATS.URL,
		Name:           fmt.Sprintf("cmframework-%s", cfg.Node),
		ConnectRetries: cfg.NATS.ConnectRetries,
	}, bus.WithLogger(logger))
}

// metrics bundles the instruments and the optional prometheus exporter
type metrics struct {
	exporter   *metric.Exporter
	activation *metric.ActivationMetric
	processor  *metric.ProcessorMetric
}

func newMetrics(cfg *config.Config, logger log.Logger) (*metrics, error) {
	provider := metric.NewProvider()
	m := new(metrics)
	if cfg.Metrics.Address != "" {
		exporter, err := metric.NewExporter(logger)
		if err != nil {
			return nil, err
		}
		if err := exporter.Serve(cfg.Metrics.Address); err != nil {
			return nil, err
		}
		m.exporter = exporter
		provider = metric.NewProviderWith(exporter.MeterProvider())
	}

	var err error
	if m.activation, err = metric.NewActivationMetric(provider.Meter()); err != nil {
		return nil, err
	}
	if m.processor, err = metric.NewProcessorMetric(provider.Meter()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) shutdown(ctx context.Context) error {
	if m == nil || m.exporter == nil {
		return nil
	}
	return m.exporter.Shutdown(ctx)
}
