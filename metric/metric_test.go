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
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/tochemey/cmframework/log"
)

func TestNewActivationMetric(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	activationMetric, err := NewActivationMetric(meter)
	require.NoError(t, err)
	assert.NotNil(t, activationMetric.PluginDuration())
	assert.NotNil(t, activationMetric.WorkDuration())
	assert.NotNil(t, activationMetric.PluginFailures())
}

func TestNewProcessorMetric(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	processorMetric, err := NewProcessorMetric(meter)
	require.NoError(t, err)
	assert.NotNil(t, processorMetric.Mutations())
	assert.NotNil(t, processorMetric.Rejected())
}

func TestProvider(t *testing.T) {
	assert.NotNil(t, NewProvider().Meter())
	assert.NotNil(t, NewProviderWith(noop.NewMeterProvider()).Meter())
}

func TestExporter(t *testing.T) {
	ctx := context.Background()
	exporter, err := NewExporter(log.DiscardLogger)
	require.NoError(t, err)

	processorMetric, err := NewProcessorMetric(NewProviderWith(exporter.MeterProvider()).Meter())
	require.NoError(t, err)
	processorMetric.Mutations().Add(ctx, 3)

	port := dynaport.Get(1)[0]
	require.NoError(t, exporter.Serve(fmt.Sprintf("127.0.0.1:%d", port)))
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, exporter.Shutdown(shutdownCtx))
	})

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, MetricsPath))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(raw)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	assert.Contains(t, body, "cm_committed_mutations")
}
