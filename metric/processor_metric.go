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

// ProcessorMetric defines the processor metrics
type ProcessorMetric struct {
	mutations metric.Int64Counter
	rejected  metric.Int64Counter
}

// NewProcessorMetric creates an instance of ProcessorMetric
func NewProcessorMetric(meter metric.Meter) (*ProcessorMetric, error) {
	processorMetric := new(ProcessorMetric)
	var err error
	if processorMetric.mutations, err = meter.Int64Counter(
		"cm_committed_mutations",
		metric.WithDescription("Total number of committed configuration mutations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mutations instrument, %w", err)
	}
	if processorMetric.rejected, err = meter.Int64Counter(
		"cm_rejected_mutations",
		metric.WithDescription("Total number of mutations rejected by validation"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rejected instrument, %w", err)
	}
	return processorMetric, nil
}

// Mutations returns the committed mutations counter
func (x *ProcessorMetric) Mutations() metric.Int64Counter {
	return x.mutations
}

// Rejected returns the rejected mutations counter
func (x *ProcessorMetric) Rejected() metric.Int64Counter {
	return x.rejected
}
