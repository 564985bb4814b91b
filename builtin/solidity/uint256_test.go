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

func TestUint256(t *testing.T) {
	u := NewUint256(newTestContext(t), thor.Bytes32{01})

	value, err := u.Get()
	require.NoError(t, err)
	assert.True(t, value.IsZero())

	require.NoError(t, u.Set(uint256.NewInt(1000)))
	value, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), value)

	assert.NoError(t, u.Add(uint256.NewInt(500)))
	value, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1500), value)

	assert.NoError(t, u.Sub(uint256.NewInt(200)))
	value, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1300), value)
}

func TestUint256FailsClosed(t *testing.T) {
	u := NewUint256(newTestContext(t), thor.Bytes32{01})

	assert.ErrorIs(t, u.Sub(uint256.NewInt(1)), ErrUnderflow)

	max := new(uint256.Int).SetAllOne()
	require.NoError(t, u.Set(max))
	assert.ErrorIs(t, u.Add(uint256.NewInt(1)), ErrOverflow)

	// value untouched after failures
	value, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, max, value)
}
