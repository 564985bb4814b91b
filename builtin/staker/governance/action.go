// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Op is the effect applied by an executed proposal.
type Op uint8

const (
	OpSetFee Op = iota + 1
	OpSetFeesEnabled
	OpSetTreasuryAddress
	OpSetParam
	OpSetEmergencyShutdown
	OpDeactivateTier
)

func (o Op) String() string {
	switch o {
	case OpSetFee:
		return "setFee"
	case OpSetFeesEnabled:
		return "setFeesEnabled"
	case OpSetTreasuryAddress:
		return "setTreasuryAddress"
	case OpSetParam:
		return "setParam"
	case OpSetEmergencyShutdown:
		return "setEmergencyShutdown"
	case OpDeactivateTier:
		return "deactivateTier"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Target names the builtin an action applies to.
type Target uint8

const (
	TargetTreasury Target = iota + 1
	TargetParams
	TargetTiers
)

// Target returns the builtin the op must be addressed to.
func (o Op) Target() Target {
	switch o {
	case OpSetFee, OpSetFeesEnabled, OpSetTreasuryAddress:
		return TargetTreasury
	case OpSetParam, OpSetEmergencyShutdown:
		return TargetParams
	case OpDeactivateTier:
		return TargetTiers
	}
	return 0
}

// Action is the rlp encoded payload of a proposal.
type Action struct {
	Op      Op
	Key     thor.Bytes32
	Value   *big.Int
	Address thor.Address
}

// Encode returns the payload bytes.
func (a *Action) Encode() ([]byte, error) {
	if a.Value == nil {
		cpy := *a
		cpy.Value = new(big.Int)
		return rlp.EncodeToBytes(&cpy)
	}
	return rlp.EncodeToBytes(a)
}

// Flag returns the value as a boolean.
func (a *Action) Flag() bool {
	return a.Value.Sign() != 0
}

// DecodeAction decodes and validates a payload.
func DecodeAction(payload []byte) (*Action, error) {
	var a Action
	if err := rlp.DecodeBytes(payload, &a); err != nil {
		return nil, reverts.ErrInvalidAction.With(err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks the op and its value bounds.
func (a *Action) Validate() error {
	if a.Value == nil || a.Value.Sign() < 0 {
		return reverts.ErrInvalidAction.Withf("invalid value")
	}
	switch a.Op {
	case OpSetFee:
		if !a.Value.IsUint64() || a.Value.Uint64() > thor.MaxFee {
			return reverts.ErrInvalidAction.Withf("fee %v exceeds %d", a.Value, thor.MaxFee)
		}
	case OpSetFeesEnabled, OpSetEmergencyShutdown:
		if a.Value.Cmp(big.NewInt(1)) > 0 {
			return reverts.ErrInvalidAction.Withf("flag must be 0 or 1")
		}
	case OpSetTreasuryAddress:
		if a.Address.IsZero() {
			return reverts.ErrInvalidAction.Withf("zero treasury address")
		}
	case OpSetParam:
		if !thor.IsGovernableKey(a.Key) {
			return reverts.ErrInvalidAction.Withf("param %v not governable", a.Key)
		}
		if a.Value.BitLen() > 256 {
			return reverts.ErrInvalidAction.Withf("param value exceeds 256 bits")
		}
		if thor.IsTimeKey(a.Key) && (!a.Value.IsUint64() || a.Value.Uint64() > thor.MaxDuration) {
			return reverts.ErrInvalidAction.Withf("duration %v exceeds %d", a.Value, thor.MaxDuration)
		}
	case OpDeactivateTier:
		if !a.Value.IsUint64() || a.Value.Uint64() > 255 {
			return reverts.ErrInvalidAction.Withf("tier id %v out of range", a.Value)
		}
	default:
		return reverts.ErrInvalidAction.Withf("unknown %v", a.Op)
	}
	return nil
}

// ProposalHash commits to the target and payload of a proposal.
func ProposalHash(target thor.Address, payload []byte) thor.Bytes32 {
	return thor.Keccak256(target.Bytes(), payload)
}
