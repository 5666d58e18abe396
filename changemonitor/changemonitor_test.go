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

package changemonitor

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMonitor(t *testing.T) {
	t.Run("lifecycle", func(t *testing.T) {
		ctx := context.Background()
		monitor := New(log.DiscardLogger)

		id, err := monitor.StartChange(ctx)
		require.NoError(t, err)
		_, err = uuid.Parse(id)
		require.NoError(t, err)

		record, err := monitor.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, Ongoing, record.State)
		assert.False(t, record.Terminal())
		assert.Empty(t, record.FailedPlugins)

		require.NoError(t, monitor.ChangeNOK(ctx, id, map[string]string{"ntp": "timeout"}))
		record, err = monitor.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, NOK, record.State)
		assert.Equal(t, map[string]string{"ntp": "timeout"}, record.FailedPlugins)
	})
	t.Run("terminal state is set once", func(t *testing.T) {
		ctx := context.Background()
		monitor := New(log.DiscardLogger)
		id, err := monitor.StartChange(ctx)
		require.NoError(t, err)

		require.NoError(t, monitor.ChangeOK(ctx, id))
		require.NoError(t, monitor.ChangeNOK(ctx, id, map[string]string{"dns": "boom"}))

		record, err := monitor.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, OK, record.State)
		assert.Empty(t, record.FailedPlugins)
	})
	t.Run("unknown ids", func(t *testing.T) {
		ctx := context.Background()
		monitor := New(log.DiscardLogger)
		require.NoError(t, monitor.ChangeOK(ctx, "unknown"))
		require.NoError(t, monitor.ChangeNOK(ctx, "unknown", nil))
		_, err := monitor.Get(ctx, "unknown")
		require.ErrorIs(t, err, gerrors.ErrChangeNotFound)

		records, err := monitor.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
	t.Run("records are copies", func(t *testing.T) {
		ctx := context.Background()
		monitor := New(log.DiscardLogger)
		id, err := monitor.StartChange(ctx)
		require.NoError(t, err)
		require.NoError(t, monitor.ChangeNOK(ctx, id, map[string]string{"ntp": "timeout"}))

		records, err := monitor.GetAll(ctx)
		require.NoError(t, err)
		records[id].FailedPlugins["ntp"] = "changed"

		record, err := monitor.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "timeout", record.FailedPlugins["ntp"])
	})
	t.Run("concurrent changes get distinct ids", func(t *testing.T) {
		ctx := context.Background()
		monitor := New(log.DiscardLogger)

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = make(map[string]struct{})
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id, err := monitor.StartChange(ctx)
				assert.NoError(t, err)
				_ = monitor.ChangeOK(ctx, id)
				mu.Lock()
				ids[id] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()

		records, err := monitor.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 50)
		assert.Len(t, ids, 50)
		for _, record := range records {
			assert.Equal(t, OK, record.State)
		}
	})
	t.Run("state names", func(t *testing.T) {
		assert.Equal(t, "ONGOING", Ongoing.String())
		assert.Equal(t, "OK", OK.String())
		assert.Equal(t, "NOK", NOK.String())
	})
}
