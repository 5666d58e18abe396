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

// Package flagfile keeps boolean switches as marker files in a directory.
// A switch is on when its file exists.
package flagfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDir is where the marker files live unless configured otherwise
const DefaultDir = "/mnt/config-manager"

// Dir is a directory holding marker files
type Dir struct {
	path string
}

// New creates an instance of Dir. The directory is created on the first Set.
func New(path string) *Dir {
	if path == "" {
		path = DefaultDir
	}
	return &Dir{path: path}
}

// Path returns the directory path
func (d *Dir) Path() string {
	return d.path
}

// Set creates the marker file for name
func (d *Dir) Set(name string) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("flagfile: creating %s: %w", d.path, err)
	}
	file, err := os.OpenFile(d.file(name), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("flagfile: setting %s: %w", name, err)
	}
	return file.Close()
}

// Unset removes the marker file for name. Unsetting an absent flag is a no-op.
func (d *Dir) Unset(name string) error {
	if err := os.Remove(d.file(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("flagfile: unsetting %s: %w", name, err)
	}
	return nil
}

// IsSet reports whether the marker file for name exists
func (d *Dir) IsSet(name string) bool {
	_, err := os.Stat(d.file(name))
	return err == nil
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.path, name)
}
