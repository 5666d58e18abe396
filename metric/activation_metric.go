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
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ActivationMetric defines the activation instrumentation
type ActivationMetric struct {
	// Specifies how long a single plugin invocation took in milliseconds
	pluginDuration metric.Int64Histogram
	// Specifies how long a whole work item took in milliseconds
	workDuration metric.Int64Histogram
	// Specifies the total number of failed plugin invocations
	pluginFailures metric.Int64Counter
}

// NewActivationMetric creates an instance of ActivationMetric
func NewActivationMetric(meter metric.Meter) (*ActivationMetric, error) {
	activationMetric := new(ActivationMetric)
	var err error
	if activationMetric.pluginDuration, err = meter.Int64Histogram(
		"cm_plugin_activation_duration",
		metric.WithDescription("The latency of a plugin activation call in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create pluginDuration instrument, %w", err)
	}

	if activationMetric.workDuration, err = meter.Int64Histogram(
		"cm_activation_work_duration",
		metric.WithDescription("The latency of an activation work item in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workDuration instrument, %w", err)
	}

	if activationMetric.pluginFailures, err = meter.Int64Counter(
		"cm_plugin_activation_failures",
		metric.WithDescription("Total number of failed plugin activation calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create pluginFailures instrument, %w", err)
	}

	return activationMetric, nil
}

// PluginDuration returns the plugin call latency histogram
func (x *ActivationMetric) PluginDuration() metric.Int64Histogram {
	return x.pluginDuration
}

// WorkDuration returns the work item latency histogram
func (x *ActivationMetric) WorkDuration() metric.Int64Histogram {
	return x.workDuration
}

// PluginFailures returns the failed plugin call counter
func (x *ActivationMetric) PluginFailures() metric.Int64Counter {
	return x.pluginFailures
}
