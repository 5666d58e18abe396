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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/match"
	"github.com/tochemey/cmframework/log"
)

const fileMode os.FileMode = 0o600

// FileStore keeps properties in a single file of "name=value" lines.
// Values are written quoted so that multi-line values survive a reload;
// unquoted values written by other tools are read verbatim.
// Every mutation rewrites the file and syncs it before returning.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	props  map[string]string
	logger log.Logger
	closed *atomic.Bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens the store at path. A missing file is an empty store.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	config := defaultOptions()
	for _, opt := range opts {
		opt.Apply(config)
	}

	store := &FileStore{
		path:   path,
		logger: config.logger,
		closed: atomic.NewBool(false),
	}

	props, err := store.load()
	if err != nil {
		return nil, err
	}
	store.props = props
	return store, nil
}

// GetProperty implements Store
func (s *FileStore) GetProperty(ctx context.Context, name string) (string, error) {
	if err := s.check(ctx); err != nil {
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
func (s *FileStore) GetProperties(ctx context.Context, filter string) (map[string]string, error) {
	if err := s.check(ctx); err != nil {
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
func (s *FileStore) SetProperty(ctx context.Context, name, value string) error {
	return s.SetProperties(ctx, map[string]string{name: value})
}

// SetProperties implements Store
func (s *FileStore) SetProperties(ctx context.Context, props map[string]string) error {
	return s.mutate(ctx, func(next map[string]string) error {
		for name, value := range props {
			next[name] = value
		}
		return nil
	})
}

// DeleteProperty implements Store
func (s *FileStore) DeleteProperty(ctx context.Context, name string) error {
	return s.mutate(ctx, func(next map[string]string) error {
		if _, ok := next[name]; !ok {
			return gerrors.ErrPropertyNotFound
		}
		delete(next, name)
		return nil
	})
}

// DeleteProperties implements Store
func (s *FileStore) DeleteProperties(ctx context.Context, names []string) error {
	return s.mutate(ctx, func(next map[string]string) error {
		for _, name := range names {
			delete(next, name)
		}
		return nil
	})
}

// DeletePropertiesMatching implements Store
func (s *FileStore) DeletePropertiesMatching(ctx context.Context, filter string) error {
	re, err := match.Compile(filter)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(next map[string]string) error {
		for name := range next {
			if re.MatchString(name) {
				delete(next, name)
			}
		}
		return nil
	})
}

// Close implements Store
func (s *FileStore) Close() error {
	s.closed.Store(true)
	return nil
}

// mutate applies fn to a copy of the properties and swaps it in once the
// copy is on disk, so a failed write leaves memory and file in agreement.
func (s *FileStore) mutate(ctx context.Context, fn func(next map[string]string) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.props))
	for name, value := range s.props {
		next[name] = value
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.props = next
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	props := make(map[string]string)
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debugf("property file %s does not exist yet", s.path)
			return props, nil
		}
		return nil, fmt.Errorf("backend: opening %s: %w", s.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, raw, _ := strings.Cut(line, "=")
		value := raw
		if strings.HasPrefix(raw, `"`) {
			if unquoted, err := strconv.Unquote(raw); err == nil {
				value = unquoted
			}
		}
		props[strings.TrimSpace(name)] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("backend: reading %s: %w", s.path, err)
	}
	return props, nil
}

func (s *FileStore) write(props map[string]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("backend: creating temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("backend: chmod %s: %w", tmpPath, err)
	}

	writer := bufio.NewWriter(tmp)
	for _, name := range match.SortedKeys(props) {
		if _, err := fmt.Fprintf(writer, "%s=%s\n", name, strconv.Quote(props[name])); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("backend: writing %s: %w", tmpPath, err)
		}
	}
	if err := writer.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("backend: writing %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("backend: syncing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("backend: closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("backend: replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return ctx.Err()
}
