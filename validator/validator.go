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

// Package validator runs validation plugins against a proposed change
// before anything is persisted.
package validator

import (
	"context"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/validation"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/plugin"
)

// Validator asks every interested plugin to accept a change. The first
// rejection stops the run.
type Validator struct {
	plugins *plugin.Manager
	logger  log.Logger
}

// New creates an instance of Validator
func New(plugins *plugin.Manager, logger log.Logger) *Validator {
	if plugins == nil {
		plugins = plugin.NewManager()
	}
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Validator{plugins: plugins, logger: logger}
}

// ValidateSet validates added or updated properties.
// It returns an *errors.ValidationError naming the rejecting plugin.
func (v *Validator) ValidateSet(ctx context.Context, props map[string]string) error {
	chain := validation.New(validation.FailFast())
	for _, entry := range v.plugins.Entries() {
		validator, ok := entry.Plugin.(plugin.SetValidator)
		if !ok {
			continue
		}
		input := plugin.BuildInput(props, entry.Filter)
		if len(input) == 0 {
			continue
		}
		chain.AddFunc(func() error {
			v.logger.Debugf("calling validation plugin %s with %v", entry.Name(), input)
			return guard(entry.Name(), func() error { return validator.ValidateSet(ctx, input) })
		})
	}
	return chain.Validate()
}

// ValidateDelete validates property removals.
// It returns an *errors.ValidationError naming the rejecting plugin.
func (v *Validator) ValidateDelete(ctx context.Context, names []string) error {
	chain := validation.New(validation.FailFast())
	for _, entry := range v.plugins.Entries() {
		validator, ok := entry.Plugin.(plugin.DeleteValidator)
		if !ok {
			continue
		}
		input := plugin.BuildInput(names, entry.Filter)
		if len(input) == 0 {
			continue
		}
		chain.AddFunc(func() error {
			v.logger.Debugf("calling validation plugin %s with %v", entry.Name(), input)
			return guard(entry.Name(), func() error { return validator.ValidateDelete(ctx, input) })
		})
	}
	return chain.Validate()
}

// guard turns a rejection or a panic into a ValidationError
func guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gerrors.NewValidationError(name, gerrors.NewPanicError(r))
		}
	}()
	if err := fn(); err != nil {
		return gerrors.NewValidationError(name, err)
	}
	return nil
}
