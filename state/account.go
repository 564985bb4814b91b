// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Account is the ledger representation of an account.
// Balance is denominated in the reward-bearing asset. HasCode marks contract accounts,
// which are not allowed to receive recovered positions.
type Account struct {
	Balance *uint256.Int
	HasCode bool
}

// IsEmpty returns if an account is empty.
func (a *Account) IsEmpty() bool {
	return (a.Balance == nil || a.Balance.IsZero()) && !a.HasCode
}

func emptyAccount() *Account {
	return &Account{Balance: new(uint256.Int)}
}

func decodeAccount(raw []byte) (*Account, error) {
	if len(raw) == 0 {
		return emptyAccount(), nil
	}
	var a Account
	if err := rlp.DecodeBytes(raw, &a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = new(uint256.Int)
	}
	return &a, nil
}

func encodeAccount(a *Account) ([]byte, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(a)
}
