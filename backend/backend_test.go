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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
)

func TestStores(t *testing.T) {
	factories := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store {
			return NewMemoryStore(nil)
		},
		"file": func(t *testing.T) Store {
			store, err := NewFileStore(filepath.Join(t.TempDir(), "config.db"), WithLogger(log.DiscardLogger))
			require.NoError(t, err)
			return store
		},
		"redis": func(t *testing.T) Store {
			server := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: server.Addr()})
			return NewRedisStoreWithClient(client,
				WithKeyPrefix("cm:"),
				WithRetries(2, time.Millisecond),
				WithLogger(log.DiscardLogger))
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			t.Cleanup(func() { _ = store.Close() })

			_, err := store.GetProperty(ctx, "cloud.missing")
			require.ErrorIs(t, err, gerrors.ErrPropertyNotFound)

			require.NoError(t, store.SetProperty(ctx, "cloud.time", `{"ntp":["10.0.0.1"]}`))
			require.NoError(t, store.SetProperties(ctx, map[string]string{
				"cloud.dns":     "10.0.0.2",
				"cloud.banner":  "line1\nline2",
				"other.setting": "x",
			}))

			value, err := store.GetProperty(ctx, "cloud.banner")
			require.NoError(t, err)
			assert.Equal(t, "line1\nline2", value)

			props, err := store.GetProperties(ctx, "cloud\\.")
			require.NoError(t, err)
			assert.Len(t, props, 3)
			assert.Equal(t, `{"ntp":["10.0.0.1"]}`, props["cloud.time"])

			// filters are anchored at the start of the name
			props, err = store.GetProperties(ctx, "setting")
			require.NoError(t, err)
			assert.Empty(t, props)

			_, err = store.GetProperties(ctx, "cloud.(")
			require.Error(t, err)

			require.NoError(t, store.DeleteProperty(ctx, "cloud.dns"))
			require.ErrorIs(t, store.DeleteProperty(ctx, "cloud.dns"), gerrors.ErrPropertyNotFound)

			require.NoError(t, store.DeleteProperties(ctx, []string{"cloud.banner", "unknown"}))
			require.NoError(t, store.DeletePropertiesMatching(ctx, "cloud\\."))

			props, err = store.GetProperties(ctx, ".*")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"other.setting": "x"}, props)
		})
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.db")

	t.Run("With reload from disk", func(t *testing.T) {
		store, err := NewFileStore(path, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, store.SetProperties(ctx, map[string]string{"a": "1", "b": "two\nlines"}))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, fileMode, info.Mode().Perm())

		reopened, err := NewFileStore(path, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		props, err := reopened.GetProperties(ctx, ".*")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "two\nlines"}, props)
	})
	t.Run("With unquoted legacy lines", func(t *testing.T) {
		legacy := filepath.Join(t.TempDir(), "legacy.db")
		require.NoError(t, os.WriteFile(legacy, []byte("cloud.name = my-cloud\ncloud.raw=a=b\n"), 0o600))
		store, err := NewFileStore(legacy, WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		value, err := store.GetProperty(ctx, "cloud.name")
		require.NoError(t, err)
		assert.Equal(t, " my-cloud", value)
		value, err = store.GetProperty(ctx, "cloud.raw")
		require.NoError(t, err)
		assert.Equal(t, "a=b", value)
	})
	t.Run("With closed store", func(t *testing.T) {
		store, err := NewFileStore(path, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, store.Close())
		require.ErrorIs(t, store.SetProperty(ctx, "a", "b"), gerrors.ErrStoreClosed)
	})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("With prefix isolation", func(t *testing.T) {
		server := miniredis.RunT(t)
		require.NoError(t, server.Set("foreign", "value"))

		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		store := NewRedisStoreWithClient(client, WithKeyPrefix("cm:"), WithLogger(log.DiscardLogger))
		t.Cleanup(func() { _ = store.Close() })

		require.NoError(t, store.SetProperty(ctx, "cloud.a", "1"))
		stored, err := server.Get("cm:cloud.a")
		require.NoError(t, err)
		assert.Equal(t, "1", stored)

		props, err := store.GetProperties(ctx, ".*")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"cloud.a": "1"}, props)
	})
	t.Run("With connection", func(t *testing.T) {
		server := miniredis.RunT(t)
		store, err := NewRedisStore(ctx, RedisConfig{Address: server.Addr()}, WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.NoError(t, store.Close())
	})
	t.Run("With unreachable server", func(t *testing.T) {
		server := miniredis.RunT(t)
		addr := server.Addr()
		server.Close()
		_, err := NewRedisStore(ctx, RedisConfig{Address: addr}, WithLogger(log.DiscardLogger))
		require.Error(t, err)
	})
	t.Run("With write failures retried", func(t *testing.T) {
		server := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		store := NewRedisStoreWithClient(client, WithRetries(2, time.Millisecond), WithLogger(log.DiscardLogger))
		t.Cleanup(func() { _ = store.Close() })

		server.SetError("READONLY")
		require.Error(t, store.SetProperty(ctx, "a", "b"))
		server.SetError("")
		require.NoError(t, store.SetProperty(ctx, "a", "b"))
	})
}
