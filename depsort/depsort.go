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

// Package depsort orders named entries so that every "before" constraint
// is honoured, using a depth first topological sort.
package depsort

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	goset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/cmframework/errors"
)

// Sorter sorts entries given before and after constraints.
// before[a] lists the entries that must come after a, after[a] lists the
// entries that must come before a.
type Sorter struct {
	entries goset.Set[string]
	before  map[string][]string
}

// New creates an instance of Sorter. The input maps are not modified.
func New(before, after map[string][]string) *Sorter {
	sorter := &Sorter{
		entries: goset.NewThreadUnsafeSet[string](),
		before:  make(map[string][]string, len(before)),
	}
	for entry, deps := range before {
		sorter.entries.Add(entry)
		for _, dep := range deps {
			sorter.addEdge(entry, dep)
		}
	}
	for entry, deps := range after {
		sorter.entries.Add(entry)
		for _, dep := range deps {
			sorter.addEdge(dep, entry)
		}
	}
	return sorter
}

// Sort returns every entry ordered by the constraints or a *errors.CycleError
func (s *Sorter) Sort() ([]string, error) {
	var (
		sorted    []string
		permanent = goset.NewThreadUnsafeSet[string]()
		temporary = goset.NewThreadUnsafeSet[string]()
	)

	var visit func(entry string) error
	visit = func(entry string) error {
		if permanent.Contains(entry) {
			return nil
		}
		if temporary.Contains(entry) {
			return gerrors.NewCycleError(entry)
		}
		temporary.Add(entry)
		for _, dep := range s.before[entry] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		permanent.Add(entry)
		sorted = append([]string{entry}, sorted...)
		return nil
	}

	entries := s.entries.ToSlice()
	sort.Strings(entries)
	for _, entry := range entries {
		if err := visit(entry); err != nil {
			return nil, err
		}
	}
	if sorted == nil {
		sorted = []string{}
	}
	return sorted, nil
}

func (s *Sorter) addEdge(first, then string) {
	if first == "" || then == "" {
		return
	}
	s.entries.Add(first)
	s.entries.Add(then)
	for _, existing := range s.before[first] {
		if existing == then {
			return
		}
	}
	s.before[first] = append(s.before[first], then)
	sort.Strings(s.before[first])
}

// Dependencies are the constraints declared by one entry
type Dependencies struct {
	Before []string
	After  []string
}

// ParseDependencyFile reads a dependency declaration file made of
// "Before: a, b" and "After: c" lines. A missing file declares nothing.
func ParseDependencyFile(path string) (Dependencies, error) {
	var deps Dependencies
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return deps, nil
		}
		return deps, fmt.Errorf("depsort: reading %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Before:"):
			deps.Before = splitList(strings.TrimPrefix(line, "Before:"))
		case strings.HasPrefix(line, "After:"):
			deps.After = splitList(strings.TrimPrefix(line, "After:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return deps, fmt.Errorf("depsort: reading %s: %w", path, err)
	}
	return deps, nil
}

func splitList(raw string) []string {
	raw = strings.Join(strings.Fields(raw), "")
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
