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

package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("With FIFO order across resizes", func(t *testing.T) {
		q := New[int]()
		for i := range 100 {
			require.True(t, q.Push(i))
		}
		assert.Equal(t, 100, q.Len())
		for i := range 100 {
			item, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, i, item)
		}
		assert.True(t, q.IsEmpty())
		_, ok := q.Pop()
		assert.False(t, ok)
	})
	t.Run("With interleaved push and pop", func(t *testing.T) {
		q := New[int]()
		next := 0
		for round := range 10 {
			for i := range 20 {
				q.Push(round*20 + i)
			}
			for range 15 {
				item, ok := q.Pop()
				require.True(t, ok)
				assert.Equal(t, next, item)
				next++
			}
		}
		assert.Equal(t, 50, q.Len())
	})
	t.Run("With Wait blocking until push", func(t *testing.T) {
		q := New[string]()
		received := make(chan string, 1)
		go func() {
			item, ok := q.Wait()
			if ok {
				received <- item
			}
		}()
		time.Sleep(20 * time.Millisecond)
		q.Push("work")
		assert.Equal(t, "work", <-received)
	})
	t.Run("With close releasing waiters", func(t *testing.T) {
		q := New[int]()
		var wg sync.WaitGroup
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := q.Wait()
				assert.False(t, ok)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		q.Close()
		wg.Wait()
		assert.True(t, q.IsClosed())
		assert.False(t, q.Push(1))
	})
	t.Run("With CloseRemaining", func(t *testing.T) {
		q := New[int]()
		q.Push(1)
		q.Push(2)
		assert.Equal(t, []int{1, 2}, q.CloseRemaining())
		assert.Nil(t, q.CloseRemaining())
		_, ok := q.Wait()
		assert.False(t, ok)
	})
}
