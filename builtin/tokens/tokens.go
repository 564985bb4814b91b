// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tokens keeps auxiliary token balances of whitelisted tokens.
// They follow an account through recovery but carry no reward.
package tokens

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// ErrNotWhitelisted is returned when crediting a token that is not whitelisted.
var ErrNotWhitelisted = errors.New("token not whitelisted")

var (
	slotWhitelist = thor.BytesToBytes32([]byte("whitelist"))
	slotBalances  = thor.BytesToBytes32([]byte("balances"))
)

type Tokens struct {
	whitelist *solidity.Slot[[]thor.Address]
	balances  *solidity.Mapping[thor.Bytes32, *uint256.Int]
}

func New(addr thor.Address, state *state.State) *Tokens {
	sctx := solidity.NewContext(addr, state)
	return &Tokens{
		whitelist: solidity.NewSlot[[]thor.Address](sctx, slotWhitelist),
		balances:  solidity.NewMapping[thor.Bytes32, *uint256.Int](sctx, slotBalances),
	}
}

func balanceKey(token, account thor.Address) thor.Bytes32 {
	return thor.Blake2b(token.Bytes(), account.Bytes())
}

// List returns whitelisted tokens in insertion order.
func (t *Tokens) List() ([]thor.Address, error) {
	return t.whitelist.Get()
}

// IsWhitelisted returns whether the token is whitelisted.
func (t *Tokens) IsWhitelisted(token thor.Address) (bool, error) {
	list, err := t.List()
	if err != nil {
		return false, err
	}
	for _, addr := range list {
		if addr == token {
			return true, nil
		}
	}
	return false, nil
}

// Whitelist adds the token. It returns false if already whitelisted.
func (t *Tokens) Whitelist(token thor.Address) (bool, error) {
	list, err := t.List()
	if err != nil {
		return false, err
	}
	for _, addr := range list {
		if addr == token {
			return false, nil
		}
	}
	return true, t.whitelist.Set(append(list, token))
}

// BalanceOf returns the account's balance of token.
func (t *Tokens) BalanceOf(token, account thor.Address) (*uint256.Int, error) {
	bal, err := t.balances.Get(balanceKey(token, account))
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return new(uint256.Int), nil
	}
	return bal, nil
}

func (t *Tokens) setBalance(token, account thor.Address, bal *uint256.Int) error {
	if bal.IsZero() {
		return t.balances.Set(balanceKey(token, account), nil)
	}
	return t.balances.Set(balanceKey(token, account), bal)
}

// Credit adds amount to the account's balance of a whitelisted token.
func (t *Tokens) Credit(token, account thor.Address, amount *uint256.Int) error {
	ok, err := t.IsWhitelisted(token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotWhitelisted
	}
	bal, err := t.BalanceOf(token, account)
	if err != nil {
		return err
	}
	if _, overflow := bal.AddOverflow(bal, amount); overflow {
		return solidity.ErrOverflow
	}
	return t.setBalance(token, account, bal)
}

// Migrate moves every whitelisted token balance from one account to another.
func (t *Tokens) Migrate(from, to thor.Address) error {
	list, err := t.List()
	if err != nil {
		return err
	}
	for _, token := range list {
		src, err := t.BalanceOf(token, from)
		if err != nil {
			return err
		}
		if src.IsZero() {
			continue
		}
		dst, err := t.BalanceOf(token, to)
		if err != nil {
			return err
		}
		if _, overflow := dst.AddOverflow(dst, src); overflow {
			return solidity.ErrOverflow
		}
		if err := t.setBalance(token, to, dst); err != nil {
			return err
		}
		if err := t.setBalance(token, from, new(uint256.Int)); err != nil {
			return err
		}
	}
	return nil
}
