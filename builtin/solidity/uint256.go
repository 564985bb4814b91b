// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/vechain/stakeledger/thor"
)

var (
	// ErrOverflow is returned when an addition would exceed 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("uint256 underflow")
)

// Uint256 is a single slot holding an unsigned 256-bit counter.
// Add and Sub fail closed instead of wrapping.
type Uint256 struct {
	context *Context
	pos     thor.Bytes32
}

func NewUint256(context *Context, slot thor.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

func (u *Uint256) Get() (*uint256.Int, error) {
	value := new(uint256.Int)
	err := u.context.state.DecodeStorage(u.context.address, u.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, value)
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (u *Uint256) Set(value *uint256.Int) error {
	return u.context.state.EncodeStorage(u.context.address, u.pos, func() ([]byte, error) {
		if value == nil || value.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(value)
	})
}

func (u *Uint256) Add(delta *uint256.Int) error {
	value, err := u.Get()
	if err != nil {
		return err
	}
	if _, overflow := value.AddOverflow(value, delta); overflow {
		return ErrOverflow
	}
	return u.Set(value)
}

func (u *Uint256) Sub(delta *uint256.Int) error {
	value, err := u.Get()
	if err != nil {
		return err
	}
	if _, underflow := value.SubOverflow(value, delta); underflow {
		return ErrUnderflow
	}
	return u.Set(value)
}
