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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
)

func TestStores(t *testing.T) {
	factories := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"bolt": func(t *testing.T) Store {
			store, err := NewBoltStore(filepath.Join(t.TempDir(), "state", "cm.db"))
			require.NoError(t, err)
			return store
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			t.Cleanup(func() { _ = store.Close() })

			_, err := store.Get(ctx, "cm.snapshots", "s1")
			require.ErrorIs(t, err, gerrors.ErrStateNotFound)

			values, err := store.GetDomain(ctx, "cm.snapshots")
			require.NoError(t, err)
			assert.Empty(t, values)

			require.NoError(t, store.Set(ctx, "cm.snapshots", "s1", "one"))
			require.NoError(t, store.Set(ctx, "cm.snapshots", "s2", "two"))
			require.NoError(t, store.Set(ctx, "cm.activation_status", "full", "[]"))

			value, err := store.Get(ctx, "cm.snapshots", "s1")
			require.NoError(t, err)
			assert.Equal(t, "one", value)

			values, err = store.GetDomain(ctx, "cm.snapshots")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"s1": "one", "s2": "two"}, values)

			domains, err := store.Domains(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"cm.activation_status", "cm.snapshots"}, domains)

			require.NoError(t, store.Delete(ctx, "cm.snapshots", "s1"))
			require.ErrorIs(t, store.Delete(ctx, "cm.snapshots", "s1"), gerrors.ErrStateNotFound)
			require.ErrorIs(t, store.Delete(ctx, "unknown", "s1"), gerrors.ErrStateNotFound)

			require.NoError(t, store.DeleteDomain(ctx, "cm.snapshots"))
			require.NoError(t, store.DeleteDomain(ctx, "cm.snapshots"))
			domains, err = store.Domains(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"cm.activation_status"}, domains)
		})
	}
}

func TestBoltStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cm.db")

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "d", "k", "v"))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Get(ctx, "d", "k")
	require.ErrorIs(t, err, gerrors.ErrStoreClosed)

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	value, err := reopened.Get(ctx, "d", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestActivationState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	activation := NewActivationState(store, log.DiscardLogger)

	failed, err := activation.FullFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)

	require.NoError(t, activation.SetFullFailed(ctx, []string{"ntp", "dns"}))
	failed, err = activation.FullFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dns", "ntp"}, failed)

	raw, err := store.Get(ctx, "cm.activation_status", "full")
	require.NoError(t, err)
	assert.JSONEq(t, `["dns","ntp"]`, raw)

	require.NoError(t, activation.ClearFullFailed(ctx))
	require.NoError(t, activation.ClearFullFailed(ctx))
	failed, err = activation.FullFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)

	require.NoError(t, store.Set(ctx, "cm.activation_status", "full", "not json"))
	failed, err = activation.FullFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)
}
