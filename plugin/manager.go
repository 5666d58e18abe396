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

package plugin

import (
	"regexp"

	"github.com/tochemey/cmframework/internal/match"
)

// Entry is a loaded plugin with its compiled subscription
type Entry struct {
	Plugin       Plugin
	Subscription string
	Filter       *regexp.Regexp
}

// Name returns the plugin name
func (e Entry) Name() string {
	return e.Plugin.Name()
}

// Manager holds loaded plugins in load order
type Manager struct {
	entries []Entry
	index   map[string]int
}

// NewManager creates an instance of Manager. Later entries reusing a name
// are ignored.
func NewManager(entries ...Entry) *Manager {
	m := &Manager{index: make(map[string]int, len(entries))}
	for _, entry := range entries {
		m.add(entry)
	}
	return m
}

// Entries returns the loaded plugins in load order
func (m *Manager) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Get returns the plugin entry registered under name
func (m *Manager) Get(name string) (Entry, bool) {
	i, ok := m.index[name]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Names returns the plugin names in load order
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		names = append(names, entry.Name())
	}
	return names
}

// Len returns the number of loaded plugins
func (m *Manager) Len() int {
	return len(m.entries)
}

func (m *Manager) add(entry Entry) bool {
	if _, ok := m.index[entry.Name()]; ok {
		return false
	}
	m.index[entry.Name()] = len(m.entries)
	m.entries = append(m.entries, entry)
	return true
}

// Input is what a plugin can be handed: changed properties or removed names
type Input interface {
	map[string]string | []string
}

// BuildInput keeps the part of in matched by filter at the start of each
// name. A map stays a map and a list stays a list.
func BuildInput[T Input](in T, filter *regexp.Regexp) T {
	switch value := any(in).(type) {
	case map[string]string:
		return any(match.Properties(value, filter)).(T)
	case []string:
		return any(match.Names(value, filter)).(T)
	}
	return in
}
