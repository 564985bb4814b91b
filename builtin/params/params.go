// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// Params binder of `Params` service.
type Params struct {
	values *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, state *state.State) *Params {
	return &Params{
		values: solidity.NewMapping[thor.Bytes32, *big.Int](solidity.NewContext(addr, state), thor.Bytes32{}),
	}
}

// Get native way to get param. Unset params read as zero.
func (p *Params) Get(key thor.Bytes32) (*big.Int, error) {
	v, err := p.values.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

// Set native way to set param.
func (p *Params) Set(key thor.Bytes32, value *big.Int) error {
	if value.Sign() < 0 {
		return errors.New("negative param value")
	}
	if value.Sign() == 0 {
		return p.values.Set(key, nil)
	}
	return p.values.Set(key, value)
}

// GetUint64 returns the param as uint64, failing if it does not fit.
func (p *Params) GetUint64(key thor.Bytes32) (uint64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, errors.Errorf("param %v exceeds uint64", key)
	}
	return v.Uint64(), nil
}

// GetUint256 returns the param as uint256.
func (p *Params) GetUint256(key thor.Bytes32) (*uint256.Int, error) {
	v, err := p.Get(key)
	if err != nil {
		return nil, err
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.Errorf("param %v exceeds uint256", key)
	}
	return u, nil
}

// GetBool returns whether the param is non-zero.
func (p *Params) GetBool(key thor.Bytes32) (bool, error) {
	v, err := p.Get(key)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

// SetBool stores the flag as 1 or 0.
func (p *Params) SetBool(key thor.Bytes32, flag bool) error {
	if flag {
		return p.Set(key, big.NewInt(1))
	}
	return p.Set(key, new(big.Int))
}
