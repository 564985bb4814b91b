// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault moves the reward-bearing asset between accounts and the ledger's custody account.
package vault

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// ErrInsufficientFunds is returned when the source of a transfer cannot cover it.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Transferrer moves value into and out of custody.
type Transferrer interface {
	TransferIn(from thor.Address, amount *uint256.Int) error
	TransferOut(to thor.Address, amount *uint256.Int) error
}

var _ Transferrer = (*Vault)(nil)

// Vault is the state backed Transferrer: balances live in state accounts and
// custody is the vault's own account.
type Vault struct {
	addr  thor.Address
	state *state.State
}

func New(addr thor.Address, state *state.State) *Vault {
	return &Vault{addr: addr, state: state}
}

// Address returns the custody account.
func (v *Vault) Address() thor.Address {
	return v.addr
}

// Balance returns the amount held in custody.
func (v *Vault) Balance() (*uint256.Int, error) {
	return v.state.GetBalance(v.addr)
}

// TransferIn moves amount from the account into custody.
func (v *Vault) TransferIn(from thor.Address, amount *uint256.Int) error {
	return v.move(from, v.addr, amount)
}

// TransferOut moves amount from custody to the account.
func (v *Vault) TransferOut(to thor.Address, amount *uint256.Int) error {
	return v.move(v.addr, to, amount)
}

func (v *Vault) move(from, to thor.Address, amount *uint256.Int) error {
	if amount.IsZero() || from == to {
		return nil
	}
	fromBal, err := v.state.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientFunds, "%v has %v, needs %v", from, fromBal, amount)
	}
	toBal, err := v.state.GetBalance(to)
	if err != nil {
		return err
	}
	if _, overflow := toBal.AddOverflow(toBal, amount); overflow {
		return errors.New("balance overflow")
	}
	if err := v.state.SetBalance(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return v.state.SetBalance(to, toBal)
}
