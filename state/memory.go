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

package state

import (
	"context"
	"sort"
	"sync"

	gerrors "github.com/tochemey/cmframework/errors"
)

// MemoryStore is an in-memory Store
type MemoryStore struct {
	mu      sync.RWMutex
	domains map[string]map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an instance of MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{domains: make(map[string]map[string]string)}
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, domain, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.domains[domain][name]
	if !ok {
		return "", gerrors.ErrStateNotFound
	}
	return value, nil
}

// GetDomain implements Store
func (s *MemoryStore) GetDomain(ctx context.Context, domain string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[string]string, len(s.domains[domain]))
	for name, value := range s.domains[domain] {
		values[name] = value
	}
	return values, nil
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, domain, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.domains[domain]
	if !ok {
		values = make(map[string]string)
		s.domains[domain] = values
	}
	values[name] = value
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, domain, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[domain][name]; !ok {
		return gerrors.ErrStateNotFound
	}
	delete(s.domains[domain], name)
	return nil
}

// DeleteDomain implements Store
func (s *MemoryStore) DeleteDomain(ctx context.Context, domain string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.domains, domain)
	return nil
}

// Domains implements Store
func (s *MemoryStore) Domains(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	domains := make([]string, 0, len(s.domains))
	for domain := range s.domains {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains, nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}
