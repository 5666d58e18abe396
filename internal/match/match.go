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

// Package match compiles property name filters. A filter matches a name when
// the regular expression matches at the start of it, the way every store
// and plugin subscription in this module interprets filters.
package match

import (
	"fmt"
	"regexp"
	"sort"
)

// Compile compiles filter anchored at the start of the input
func Compile(filter string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + filter + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
	}
	return re, nil
}

// Properties returns the entries of props whose name matches re
func Properties(props map[string]string, re *regexp.Regexp) map[string]string {
	matched := make(map[string]string)
	for name, value := range props {
		if re.MatchString(name) {
			matched[name] = value
		}
	}
	return matched
}

// Names returns the names matching re, preserving their order
func Names(names []string, re *regexp.Regexp) []string {
	matched := make([]string, 0, len(names))
	for _, name := range names {
		if re.MatchString(name) {
			matched = append(matched, name)
		}
	}
	return matched
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
