// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLRU(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)

	c, err := NewLRU(2)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Get(1) // 2 becomes the oldest
	c.Add(3, "c")

	_, ok := c.Peek(2)
	assert.False(t, ok)
	assert.Equal(t, []any{1, 3}, c.Keys())

	_, hit, miss := c.Stats().Snapshot()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(0), miss)
}

func TestLRUAddIfAbsent(t *testing.T) {
	c, err := NewLRU(128)
	require.NoError(t, err)

	var added atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.AddIfAbsent("nonce", struct{}{}) {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), added.Load())
	assert.Equal(t, 1, c.Len())
}

func TestLRUGetOrLoad(t *testing.T) {
	c, err := NewLRU(4)
	require.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return key.(int) * 2, nil
	}
	for range 3 {
		v, err := c.GetOrLoad(21, loader)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, loads)

	_, err = c.GetOrLoad(7, func(any) (any, error) { return nil, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, ok := c.Peek(7)
	assert.False(t, ok)
}
