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

package metric

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"

	"github.com/tochemey/cmframework/log"
)

// MetricsPath is where the metrics are served
const MetricsPath = "/metrics"

// Exporter owns a meter provider whose instruments are scraped over HTTP
// in the Prometheus format
type Exporter struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
	server   *http.Server
	logger   log.Logger
}

// NewExporter creates an instance of Exporter with its own registry
func NewExporter(logger log.Logger) (*Exporter, error) {
	if logger == nil {
		logger = log.DefaultLogger
	}
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	return &Exporter{
		registry: registry,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
		logger:   logger,
	}, nil
}

// MeterProvider returns the exporting meter provider
func (x *Exporter) MeterProvider() otelmetric.MeterProvider {
	return x.provider
}

// Install makes the exporting meter provider the global one
func (x *Exporter) Install() {
	otel.SetMeterProvider(x.provider)
}

// Handler returns the scrape handler
func (x *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(x.registry, promhttp.HandlerOpts{})
}

// Serve starts serving the metrics on address in the background
func (x *Exporter) Serve(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("metrics listener on %s: %w", address, err)
	}
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, x.Handler())
	x.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := x.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			x.logger.Errorf("metrics server stopped: %v", err)
		}
	}()
	x.logger.Infof("serving metrics on %s%s", listener.Addr(), MetricsPath)
	return nil
}

// Shutdown stops the HTTP server and flushes the meter provider
func (x *Exporter) Shutdown(ctx context.Context) error {
	var err error
	if x.server != nil {
		err = x.server.Shutdown(ctx)
	}
	return multierr.Append(err, x.provider.Shutdown(ctx))
}
