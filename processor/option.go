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

package processor

import (
	"github.com/tochemey/cmframework/alarm"
	"github.com/tochemey/cmframework/changemonitor"
	"github.com/tochemey/cmframework/flagfile"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a processor.
	Apply(processor *Processor)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(processor *Processor)

// Apply applies the processor option
func (f OptionFunc) Apply(processor *Processor) {
	f(processor)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(processor *Processor) {
		processor.logger = logger
	})
}

// WithChangeMonitor sets the change monitor. It must be the one the
// activator reports change outcomes to.
func WithChangeMonitor(monitor *changemonitor.Monitor) Option {
	return OptionFunc(func(processor *Processor) {
		processor.changes = monitor
	})
}

// WithFlagDir sets the directory holding the automatic activation flag file
func WithFlagDir(dir *flagfile.Dir) Option {
	return OptionFunc(func(processor *Processor) {
		processor.flags = dir
	})
}

// WithAlarms sets the alarm service
func WithAlarms(alarms *alarm.Service) Option {
	return OptionFunc(func(processor *Processor) {
		processor.alarms = alarms
	})
}

// WithMetric sets the processor instruments
func WithMetric(processorMetric *metric.ProcessorMetric) Option {
	return OptionFunc(func(processor *Processor) {
		processor.metric = processorMetric
	})
}
