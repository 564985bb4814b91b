// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakeledger/thor"
)

type TestStruct struct {
	Field1 uint64
	Amount *uint256.Int
	Addr1  thor.Address
	Flag   bool
}

func TestMapping_StructPointer(t *testing.T) {
	mapping := NewMapping[thor.Bytes32, *TestStruct](newTestContext(t), thor.Bytes32{1})
	key := thor.Bytes32{0xaa}
	value := &TestStruct{Field1: 100, Amount: uint256.NewInt(5), Addr1: thor.Address{7}, Flag: true}

	t.Run("get empty key returns nil", func(t *testing.T) {
		got, err := mapping.Get(key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set then get returns value", func(t *testing.T) {
		require.NoError(t, mapping.Set(key, value))
		got, err := mapping.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("set nil clears storage", func(t *testing.T) {
		require.NoError(t, mapping.Set(key, nil))
		got, err := mapping.Get(key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete clears storage", func(t *testing.T) {
		require.NoError(t, mapping.Set(key, value))
		mapping.Delete(key)
		got, err := mapping.Get(key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestMapping_ValueTypes(t *testing.T) {
	ctx := newTestContext(t)
	addrs := NewMapping[thor.Address, thor.Address](ctx, thor.Bytes32{2})
	flags := NewMapping[thor.Address, bool](ctx, thor.Bytes32{3})

	k := thor.Address{1}
	got, err := addrs.Get(k)
	require.NoError(t, err)
	assert.Equal(t, thor.Address{}, got)

	require.NoError(t, addrs.Set(k, thor.Address{9}))
	got, err = addrs.Get(k)
	require.NoError(t, err)
	assert.Equal(t, thor.Address{9}, got)

	require.NoError(t, flags.Set(k, true))
	flag, err := flags.Get(k)
	require.NoError(t, err)
	assert.True(t, flag)

	// mappings at different positions do not collide
	flag, err = NewMapping[thor.Address, bool](ctx, thor.Bytes32{4}).Get(k)
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestSlotAndAddress(t *testing.T) {
	ctx := newTestContext(t)

	slot := NewSlot[[]thor.Address](ctx, thor.BytesToBytes32([]byte("list")))
	list, err := slot.Get()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, slot.Set([]thor.Address{{1}, {2}}))
	list, err = slot.Get()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{{1}, {2}}, list)

	addr := NewAddress(ctx, thor.BytesToBytes32([]byte("addr")))
	addr.Set(thor.Address{5})
	got, err := addr.Get()
	require.NoError(t, err)
	assert.Equal(t, thor.Address{5}, got)

	addr.Set(thor.Address{})
	got, err = addr.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
