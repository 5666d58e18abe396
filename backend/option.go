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

package backend

import (
	"time"

	"github.com/tochemey/cmframework/log"
)

type options struct {
	logger     log.Logger
	keyPrefix  string
	retries    int
	retryDelay time.Duration
}

func defaultOptions() *options {
	return &options{
		logger:     log.DefaultLogger,
		retries:    20,
		retryDelay: 100 * time.Millisecond,
	}
}

// Option is the interface that applies a store option.
type Option interface {
	// Apply sets the Option value of a store.
	Apply(opts *options)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(opts *options)

// Apply applies the store option
func (f OptionFunc) Apply(opts *options) {
	f(opts)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithKeyPrefix sets the prefix prepended to every key written by the
// redis store. Property names returned to callers never carry it.
func WithKeyPrefix(prefix string) Option {
	return OptionFunc(func(opts *options) {
		opts.keyPrefix = prefix
	})
}

// WithRetries sets how many times the redis store attempts a write and the
// initial delay between attempts
func WithRetries(retries int, delay time.Duration) Option {
	return OptionFunc(func(opts *options) {
		opts.retries = retries
		opts.retryDelay = delay
	})
}
