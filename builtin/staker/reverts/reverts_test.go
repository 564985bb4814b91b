// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	stderrors "errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/vechain/stakeledger/builtin/solidity"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)
	assert.Equal(t, Validation, revert.Kind())

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func Test_RevertWithDetail(t *testing.T) {
	err := ErrInvalidParameter.Withf("rate %d exceeds %d", 6000, 5000)
	assert.Equal(t, "invalid parameter: rate 6000 exceeds 5000", err.Error())
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.NotErrorIs(t, err, ErrZeroAmount)
	assert.Equal(t, Validation, KindOf(err))

	wrapped := errors.WithMessage(ErrTransferFailed.With(errors.New("vault empty")), "unstake")
	assert.ErrorIs(t, wrapped, ErrTransferFailed)
	assert.True(t, IsRevertErr(wrapped))
	assert.Equal(t, TransferFailed, KindOf(wrapped))
}

func Test_KindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{ErrAlreadyStaked, StateConflict},
		{ErrUnauthorized, Authorization},
		{ErrRateLimited, RateLimited},
		{ErrDailyCapExceeded, DailyCapExceeded},
		{ErrInsufficientBalance, InsufficientFunds},
		{ErrInsufficientRewardPool, InsufficientRewardPool},
		{ErrRewardCapExceeded, RewardCapExceeded},
		{solidity.ErrOverflow, ArithmeticFault},
		{Arith(solidity.ErrUnderflow), ArithmeticFault},
		{stderrors.New("io"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, KindOf(tt.err), tt.err.Error())
	}

	assert.True(t, RateLimited.Retryable())
	assert.True(t, DailyCapExceeded.Retryable())
	assert.False(t, StateConflict.Retryable())
	assert.Equal(t, "AuthorizationError", Authorization.String())
	assert.Nil(t, Arith(nil))
}
