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

package rwlock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRWLock(t *testing.T) {
	t.Run("With many concurrent readers", func(t *testing.T) {
		ctx := context.Background()
		lock := New()
		for range 5 {
			require.NoError(t, lock.RLock(ctx))
		}
		assert.Equal(t, 5, lock.Readers())
		assert.False(t, lock.Locked())
		for range 5 {
			lock.RUnlock()
		}
		assert.Zero(t, lock.Readers())
	})
	t.Run("With writer excluding readers", func(t *testing.T) {
		ctx := context.Background()
		lock := New()
		require.NoError(t, lock.Lock(ctx))
		assert.True(t, lock.Locked())

		acquired := atomic.NewBool(false)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := lock.RLock(ctx); err == nil {
				acquired.Store(true)
				lock.RUnlock()
			}
		}()

		time.Sleep(50 * time.Millisecond)
		assert.False(t, acquired.Load())
		lock.Unlock()
		<-done
		assert.True(t, acquired.Load())
	})
	t.Run("With writer waiting for readers", func(t *testing.T) {
		ctx := context.Background()
		lock := New()
		require.NoError(t, lock.RLock(ctx))

		acquired := make(chan struct{})
		go func() {
			if err := lock.Lock(ctx); err == nil {
				close(acquired)
				lock.Unlock()
			}
		}()

		select {
		case <-acquired:
			t.Fatal("writer acquired the lock while a reader holds it")
		case <-time.After(50 * time.Millisecond):
		}
		lock.RUnlock()
		<-acquired
	})
	t.Run("With waiting writer preferred over waiting readers", func(t *testing.T) {
		ctx := context.Background()
		lock := New()
		require.NoError(t, lock.Lock(ctx))

		var (
			mu    sync.Mutex
			order []string
			wg    sync.WaitGroup
		)
		record := func(who string) {
			mu.Lock()
			order = append(order, who)
			mu.Unlock()
		}

		wg.Add(2)
		go func() {
			defer wg.Done()
			require.NoError(t, lock.RLock(ctx))
			record("reader")
			lock.RUnlock()
		}()
		time.Sleep(20 * time.Millisecond)
		go func() {
			defer wg.Done()
			require.NoError(t, lock.Lock(ctx))
			record("writer")
			lock.Unlock()
		}()
		time.Sleep(20 * time.Millisecond)

		lock.Unlock()
		wg.Wait()
		assert.Equal(t, []string{"writer", "reader"}, order)
	})
	t.Run("With cancelled reader", func(t *testing.T) {
		lock := New()
		require.NoError(t, lock.Lock(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := lock.RLock(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		lock.Unlock()
		assert.Zero(t, lock.Readers())
		assert.False(t, lock.Locked())
	})
	t.Run("With cancelled writer", func(t *testing.T) {
		lock := New()
		require.NoError(t, lock.RLock(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, lock.Lock(ctx), context.DeadlineExceeded)

		lock.RUnlock()
		require.NoError(t, lock.Lock(context.Background()))
		lock.Unlock()
	})
	t.Run("With unlock misuse", func(t *testing.T) {
		lock := New()
		assert.Panics(t, lock.Unlock)
		assert.Panics(t, lock.RUnlock)
	})
}
