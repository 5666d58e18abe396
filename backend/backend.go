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

// Package backend holds the property stores the processor persists the
// configuration into.
package backend

import (
	"context"
)

// Reader gives read access to persisted properties
type Reader interface {
	// GetProperty returns the value of a property or errors.ErrPropertyNotFound
	GetProperty(ctx context.Context, name string) (string, error)
	// GetProperties returns every property whose name matches filter at its start
	GetProperties(ctx context.Context, filter string) (map[string]string, error)
}

// Store is a property store. Implementations must be safe for concurrent
// use and must never call back into the processor.
type Store interface {
	Reader
	// SetProperty creates or updates a property
	SetProperty(ctx context.Context, name, value string) error
	// SetProperties creates or updates several properties
	SetProperties(ctx context.Context, props map[string]string) error
	// DeleteProperty removes a property or returns errors.ErrPropertyNotFound
	DeleteProperty(ctx context.Context, name string) error
	// DeleteProperties removes the named properties, unknown names are ignored
	DeleteProperties(ctx context.Context, names []string) error
	// DeletePropertiesMatching removes every property matching filter
	DeletePropertiesMatching(ctx context.Context, filter string) error
	// Close releases the store resources
	Close() error
}
