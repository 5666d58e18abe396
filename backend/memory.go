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
	"context"
	"sync"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/match"
)

// MemoryStore keeps properties in memory. It is used by tests and by
// controllers that do not need persistence across restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	props map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an instance of MemoryStore seeded with props
func NewMemoryStore(props map[string]string) *MemoryStore {
	store := &MemoryStore{props: make(map[string]string, len(props))}
	for name, value := range props {
		store.props[name] = value
	}
	return store
}

// GetProperty implements Store
func (s *MemoryStore) GetProperty(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.props[name]
	if !ok {
		return "", gerrors.ErrPropertyNotFound
	}
	return value, nil
}

// GetProperties implements Store
func (s *MemoryStore) GetProperties(ctx context.Context, filter string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	re, err := match.Compile(filter)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return match.Properties(s.props, re), nil
}

// SetProperty implements Store
func (s *MemoryStore) SetProperty(ctx context.Context, name, value string) error {
	return s.SetProperties(ctx, map[string]string{name: value})
}

// SetProperties implements Store
func (s *MemoryStore) SetProperties(ctx context.Context, props map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, value := range props {
		s.props[name] = value
	}
	return nil
}

// DeleteProperty implements Store
func (s *MemoryStore) DeleteProperty(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.props[name]; !ok {
		return gerrors.ErrPropertyNotFound
	}
	delete(s.props, name)
	return nil
}

// DeleteProperties implements Store
func (s *MemoryStore) DeleteProperties(ctx context.Context, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.props, name)
	}
	return nil
}

// DeletePropertiesMatching implements Store
func (s *MemoryStore) DeletePropertiesMatching(ctx context.Context, filter string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	re, err := match.Compile(filter)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.props {
		if re.MatchString(name) {
			delete(s.props, name)
		}
	}
	return nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}
