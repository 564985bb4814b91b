// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	LaunchTime uint64                `yaml:"launchTime"`
	Config     *staker.Config        `yaml:"config"`
	Roles      []Role                `yaml:"roles"`
	Accounts   []Account             `yaml:"accounts"`
	Tiers      []Tier                `yaml:"tiers"`
	RewardPool *math.HexOrDecimal256 `yaml:"rewardPool,omitempty"`
	Treasury   *Treasury             `yaml:"treasury,omitempty"`
	Tokens     []thor.Address        `yaml:"tokens,omitempty"`
}

// Role grants a role to an address.
type Role struct {
	Role    string       `yaml:"role"`
	Address thor.Address `yaml:"address"`
}

// Account is the account will set to the genesis state
type Account struct {
	Address  thor.Address          `yaml:"address"`
	Balance  *math.HexOrDecimal256 `yaml:"balance"`
	Contract bool                  `yaml:"contract,omitempty"`
}

// Tier is a tier created at launch.
type Tier struct {
	ID                 uint8                 `yaml:"id"`
	MinimumStake       *math.HexOrDecimal256 `yaml:"minimumStake"`
	RewardRateBps      uint64                `yaml:"rewardRateBps"`
	LockDuration       uint64                `yaml:"lockDuration"`
	MaxRewardCap       *math.HexOrDecimal256 `yaml:"maxRewardCap"`
	CompoundingAllowed bool                  `yaml:"compoundingAllowed,omitempty"`
}

// Treasury is the initial fee setup.
type Treasury struct {
	Address     thor.Address `yaml:"address"`
	FeeBps      uint64       `yaml:"feeBps"`
	FeesEnabled bool         `yaml:"feesEnabled"`
}

func toUint256(v *math.HexOrDecimal256, field string) (*uint256.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("%s must be set", field)
	}
	b := (*big.Int)(v)
	if b.Sign() < 0 {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%s overflows 256 bits", field)
	}
	return u, nil
}

// LoadCustomNet reads a yaml genesis file. Config keys missing in the file keep their default.
func LoadCustomNet(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read genesis")
	}
	gen := &CustomGenesis{Config: staker.DefaultConfig()}
	if err := yaml.Unmarshal(data, gen); err != nil {
		return nil, pkgerrors.Wrap(err, "decode genesis")
	}
	return NewCustomNet(gen)
}

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	return newCustomNet("customnet", gen)
}

func newCustomNet(name string, gen *CustomGenesis) (*Genesis, error) {
	cfg := gen.Config
	if cfg == nil {
		cfg = staker.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.WithMessage(err, "config")
	}
	if gen.LaunchTime == 0 {
		return nil, errors.New("launchTime must be set")
	}

	roles := make(map[authority.Role]int)
	for _, r := range gen.Roles {
		role, err := authority.ParseRole(r.Role)
		if err != nil {
			return nil, err
		}
		if r.Address.IsZero() {
			return nil, fmt.Errorf("role %s: address must not be zero", r.Role)
		}
		roles[role]++
	}
	if roles[authority.RoleAdmin] == 0 {
		return nil, errors.New("at least one admin")
	}

	balances := make(map[thor.Address]*uint256.Int, len(gen.Accounts))
	for _, a := range gen.Accounts {
		bal, err := toUint256(a.Balance, a.Address.String()+": balance")
		if err != nil {
			return nil, err
		}
		if _, dup := balances[a.Address]; dup {
			return nil, fmt.Errorf("%v: duplicated account", a.Address)
		}
		balances[a.Address] = bal
	}

	tierParams := make([]*tiers.Params, len(gen.Tiers))
	for i, t := range gen.Tiers {
		minStake, err := toUint256(t.MinimumStake, fmt.Sprintf("tiers[%d].minimumStake", i))
		if err != nil {
			return nil, err
		}
		maxCap, err := toUint256(t.MaxRewardCap, fmt.Sprintf("tiers[%d].maxRewardCap", i))
		if err != nil {
			return nil, err
		}
		tierParams[i] = &tiers.Params{
			MinimumStake:       minStake,
			RewardRateBps:      t.RewardRateBps,
			LockDuration:       t.LockDuration,
			MaxRewardCap:       maxCap,
			CompoundingAllowed: t.CompoundingAllowed,
		}
		if err := tierParams[i].Validate(); err != nil {
			return nil, pkgerrors.WithMessagef(err, "tiers[%d]", i)
		}
	}

	var pool *uint256.Int
	if gen.RewardPool != nil {
		var err error
		if pool, err = toUint256(gen.RewardPool, "rewardPool"); err != nil {
			return nil, err
		}
	}

	builder := new(Builder).
		Timestamp(gen.LaunchTime).
		State(func(st *state.State) error {
			if err := cfg.Apply(builtin.Params.Native(st)); err != nil {
				return err
			}
			auth := builtin.Authority.Native(st)
			for _, r := range gen.Roles {
				role, _ := authority.ParseRole(r.Role)
				if _, err := auth.Grant(role, r.Address); err != nil {
					return err
				}
			}
			for _, a := range gen.Accounts {
				if err := st.SetBalance(a.Address, balances[a.Address]); err != nil {
					return err
				}
				if a.Contract {
					if err := st.SetHasCode(a.Address, true); err != nil {
						return err
					}
				}
			}
			return nil
		})

	for i, t := range gen.Tiers {
		id, p := t.ID, tierParams[i]
		builder.Call(func(s *staker.Staker, executor thor.Address) error {
			return s.CreateTier(executor, id, p)
		})
	}
	if tr := gen.Treasury; tr != nil {
		builder.Call(func(s *staker.Staker, executor thor.Address) error {
			if !tr.Address.IsZero() {
				if err := s.SetTreasuryAddress(executor, tr.Address); err != nil {
					return err
				}
			}
			if err := s.SetFee(executor, tr.FeeBps); err != nil {
				return err
			}
			return s.SetFeesEnabled(executor, tr.FeesEnabled)
		})
	}
	for _, token := range gen.Tokens {
		builder.Call(func(s *staker.Staker, executor thor.Address) error {
			return s.WhitelistToken(executor, token)
		})
	}
	if pool != nil && !pool.IsZero() {
		// the pool is minted to the executor and moved into the vault through the ledger, so
		// the vault balance matches the pool from the first block.
		builder.
			State(func(st *state.State) error {
				return st.SetBalance(Executor, pool)
			}).
			Call(func(s *staker.Staker, executor thor.Address) error {
				return s.AddToRewardPool(executor, pool)
			})
	}

	encoded, err := yaml.Marshal(gen)
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, thor.Blake2b([]byte(name), encoded), name}, nil
}
