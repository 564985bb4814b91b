// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRateChange(t *testing.T) {
	var cs Stats

	changed, hit, miss := cs.Snapshot()
	assert.False(t, changed, "no lookups keeps the rate at zero")
	assert.Zero(t, hit)
	assert.Zero(t, miss)

	cs.Hit()
	cs.Miss()
	changed, hit, miss = cs.Snapshot()
	assert.True(t, changed)
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)

	// same 50% rate
	cs.Hit()
	cs.Miss()
	changed, _, _ = cs.Snapshot()
	assert.False(t, changed)

	assert.Equal(t, int64(3), cs.Hit())
	changed, hit, miss = cs.Snapshot()
	assert.True(t, changed)
	assert.Equal(t, int64(3), hit)
	assert.Equal(t, int64(2), miss)
}

func TestLRUStats(t *testing.T) {
	lru, err := NewLRU(2)
	require.NoError(t, err)

	lru.Add("signer", 1)
	_, ok := lru.Get("signer")
	assert.True(t, ok)
	_, ok = lru.Get("unknown")
	assert.False(t, ok)

	_, hit, miss := lru.Stats().Snapshot()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)
}
