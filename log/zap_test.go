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

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With unknown level falls back to debug", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(Level(42), buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debug("test debug")
		entry := decodeEntry(t, buffer)
		assert.Equal(t, "test debug", entry["msg"])
		assert.Equal(t, DebugLevel.String(), entry["level"])
	})
	t.Run("With info level drops debug entries", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Debugf("hidden %d", 1)
		assert.Zero(t, buffer.Len())

		logger.Infof("activation %s", "started")
		entry := decodeEntry(t, buffer)
		assert.Equal(t, "activation started", entry["msg"])
		assert.Equal(t, "info", entry["level"])
	})
	t.Run("With warn and error", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(WarningLevel, buffer)
		logger.Warn("careful")
		entry := decodeEntry(t, buffer)
		assert.Equal(t, "warn", entry["level"])

		buffer.Reset()
		logger.Errorf("plugin %s failed", "ntp")
		entry = decodeEntry(t, buffer)
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, "plugin ntp failed", entry["msg"])
		assert.Contains(t, entry, "stacktrace")
	})
}

func TestZapWith(t *testing.T) {
	t.Run("With adds structured fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("worker", 1, "handler", "local").Info("handling work")

		entry := decodeEntry(t, buffer)
		assert.Equal(t, "handling work", entry["msg"])
		assert.EqualValues(t, 1, entry["worker"])
		assert.Equal(t, "local", entry["handler"])
	})
	t.Run("With no pairs returns the same logger", func(t *testing.T) {
		logger := NewZap(InfoLevel, new(bytes.Buffer))
		assert.Equal(t, logger, logger.With())
		assert.Equal(t, logger, logger.With(1, 2))
	})
	t.Run("With orphan value", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("a", 1, "orphan").Info("msg")
		entry := decodeEntry(t, buffer)
		assert.Contains(t, entry, "a")
		assert.Equal(t, "orphan", entry["_"])
	})
}

func TestZapEnabled(t *testing.T) {
	logger := NewZap(ErrorLevel, new(bytes.Buffer))
	assert.False(t, logger.Enabled(DebugLevel))
	assert.False(t, logger.Enabled(InfoLevel))
	assert.False(t, logger.Enabled(WarningLevel))
	assert.True(t, logger.Enabled(ErrorLevel))
	assert.True(t, logger.Enabled(FatalLevel))
}

func TestZapOutputs(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "cm.log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	logger := NewZap(WarningLevel, file, os.Stdout)
	assert.Equal(t, WarningLevel, logger.LogLevel())

	logger.Warn("persisted")
	require.NoError(t, logger.Flush())

	content, err := os.ReadFile(file.Name())
	require.NoError(t, err)
	assert.Contains(t, string(content), "persisted")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarningLevel,
		"warn":    WarningLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
		"panic":   PanicLevel,
		"verbose": InvalidLevel,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, ParseLevel(input), input)
	}
	assert.Equal(t, "invalid", Level(-3).String())
}

func decodeEntry(t *testing.T, buffer *bytes.Buffer) map[string]any {
	t.Helper()
	entry := make(map[string]any)
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buffer.Bytes()), &entry))
	return entry
}
