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

// Package state stores the framework's own bookkeeping (snapshots,
// activation status) as named values grouped in domains.
package state

import "context"

// Store keeps string values by domain and name
type Store interface {
	// Get returns a value or errors.ErrStateNotFound
	Get(ctx context.Context, domain, name string) (string, error)
	// GetDomain returns every value of a domain. An unknown domain is empty.
	GetDomain(ctx context.Context, domain string) (map[string]string, error)
	// Set creates or replaces a value
	Set(ctx context.Context, domain, name, value string) error
	// Delete removes a value or returns errors.ErrStateNotFound
	Delete(ctx context.Context, domain, name string) error
	// DeleteDomain removes a domain and all its values
	DeleteDomain(ctx context.Context, domain string) error
	// Domains lists the known domains in ascending order
	Domains(ctx context.Context) ([]string, error)
	// Close releases the store resources
	Close() error
}
