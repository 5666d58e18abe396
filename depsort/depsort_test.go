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

package depsort

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/cmframework/errors"
)

func assertOrdering(t *testing.T, before, after map[string][]string, sorted []string) {
	t.Helper()
	for entry, deps := range before {
		for _, dep := range deps {
			assert.Less(t, slices.Index(sorted, entry), slices.Index(sorted, dep), "%s before %s", entry, dep)
		}
	}
	for entry, deps := range after {
		for _, dep := range deps {
			assert.Greater(t, slices.Index(sorted, entry), slices.Index(sorted, dep), "%s after %s", entry, dep)
		}
	}
}

func TestSort(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		sorted, err := New(nil, nil).Sort()
		require.NoError(t, err)
		assert.Empty(t, sorted)
	})
	t.Run("no constraints", func(t *testing.T) {
		sorted, err := New(map[string][]string{"a": {}, "b": {}}, map[string][]string{"a": {}}).Sort()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, sorted)
	})
	t.Run("mixed constraints", func(t *testing.T) {
		after := map[string][]string{"a": {"m"}, "b": {"d"}}
		before := map[string][]string{"a": {"b", "c", "d", "n"}, "b": {"c"}}
		sorted, err := New(before, after).Sort()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c", "d", "m", "n"}, sorted)
		assertOrdering(t, before, after, sorted)
	})
	t.Run("only after", func(t *testing.T) {
		after := map[string][]string{"a": {"b"}, "b": {"c"}}
		sorted, err := New(nil, after).Sort()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, sorted)
	})
	t.Run("only before", func(t *testing.T) {
		before := map[string][]string{"a": {"b"}, "b": {"c"}}
		sorted, err := New(before, nil).Sort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, sorted)
	})
	t.Run("inputs are not modified", func(t *testing.T) {
		before := map[string][]string{"a": {"b"}}
		after := map[string][]string{"c": {"a"}}
		_, err := New(before, after).Sort()
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"a": {"b"}}, before)
	})
	t.Run("cycles", func(t *testing.T) {
		cases := map[string][2]map[string][]string{
			"before and after": {{"b": {"a"}}, {"b": {"a"}}},
			"only before":      {{"b": {"a"}, "a": {"b"}}, nil},
			"only after":       {nil, {"b": {"a"}, "a": {"b"}}},
			"self":             {{"a": {"a"}}, nil},
		}
		for name, graphs := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := New(graphs[0], graphs[1]).Sort()
				var cycle *gerrors.CycleError
				require.ErrorAs(t, err, &cycle)
				assert.Contains(t, err.Error(), "cycle detected in dependencies")
			})
		}
	})
}

func TestParseDependencyFile(t *testing.T) {
	dir := t.TempDir()

	deps, err := ParseDependencyFile(filepath.Join(dir, "missing.deps"))
	require.NoError(t, err)
	assert.Empty(t, deps.Before)
	assert.Empty(t, deps.After)

	path := filepath.Join(dir, "network.deps")
	content := "# network handler\nBefore: dns , ntp\nAfter:  hosts\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	deps, err = ParseDependencyFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"dns", "ntp"}, deps.Before)
	assert.Equal(t, []string{"hosts"}, deps.After)

	empty := filepath.Join(dir, "empty.deps")
	require.NoError(t, os.WriteFile(empty, []byte("Before:\nAfter: \n"), 0o600))
	deps, err = ParseDependencyFile(empty)
	require.NoError(t, err)
	assert.Empty(t, deps.Before)
	assert.Empty(t, deps.After)
}
