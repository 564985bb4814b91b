// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/thor"
)

func TestLockReaders(t *testing.T) {
	table := newLockTable()
	ctx := context.Background()

	r1, err := table.acquire(ctx, &Access{Reads: []Resource{Params}})
	require.NoError(t, err)
	r2, err := table.acquire(ctx, &Access{Reads: []Resource{Params, Authority}})
	require.NoError(t, err)

	// a writer waits for both readers
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = table.acquire(short, &Access{Writes: []Resource{Params}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	r1.release()
	r2.release()
	w, err := table.acquire(ctx, &Access{Writes: []Resource{Params}, Reads: []Resource{Params}})
	require.NoError(t, err)
	assert.Len(t, w, 1)
	w.release()
}

func TestLockDedup(t *testing.T) {
	table := newLockTable()
	alice := thor.BytesToAddress([]byte("alice"))

	held, err := table.acquire(context.Background(), &Access{Accounts: []thor.Address{alice, alice}})
	require.NoError(t, err)
	assert.Len(t, held, 1)
	held.release()

	// a failed acquisition releases the stripes it took
	params, err := table.acquire(context.Background(), &Access{Writes: []Resource{Params}})
	require.NoError(t, err)
	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = table.acquire(short, &Access{Accounts: []thor.Address{alice}, Writes: []Resource{Params}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	again, err := table.acquire(context.Background(), &Access{Accounts: []thor.Address{alice}})
	require.NoError(t, err)
	again.release()
	params.release()
}

func TestResourceString(t *testing.T) {
	assert.Equal(t, "treasury", Treasury.String())
	assert.Equal(t, "resource(99)", Resource(99).String())
}
