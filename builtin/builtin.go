// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the builtin services of the ledger to their fixed addresses.
package builtin

import (
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/tokens"
	"github.com/vechain/stakeledger/builtin/vault"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Builtin contracts binding.
var (
	Params     = &paramsContract{newContract("Params")}
	Authority  = &authorityContract{newContract("Authority")}
	Vault      = &vaultContract{newContract("Vault")}
	Tokens     = &tokensContract{newContract("Tokens")}
	Staker     = &stakerContract{newContract("Staker")}
	Tiers      = newContract("Tiers")
	Treasury   = newContract("Treasury")
	Governance = newContract("Governance")
)

type contract struct {
	Name    string
	Address thor.Address
}

func newContract(name string) *contract {
	return &contract{Name: name, Address: thor.BytesToAddress([]byte(name))}
}

type (
	paramsContract    struct{ *contract }
	authorityContract struct{ *contract }
	vaultContract     struct{ *contract }
	tokensContract    struct{ *contract }
	stakerContract    struct{ *contract }
)

// All lists every builtin address. None of them may hold a stake.
func All() []*contract {
	return []*contract{
		Params.contract,
		Authority.contract,
		Vault.contract,
		Tokens.contract,
		Staker.contract,
		Tiers,
		Treasury,
		Governance,
	}
}

func (p *paramsContract) Native(state *state.State) *params.Params {
	return params.New(p.Address, state)
}

func (a *authorityContract) Native(state *state.State) *authority.Authority {
	return authority.New(a.Address, state)
}

func (v *vaultContract) Native(state *state.State) *vault.Vault {
	return vault.New(v.Address, state)
}

func (t *tokensContract) Native(state *state.State) *tokens.Tokens {
	return tokens.New(t.Address, state)
}

// Addresses returns the storage layout of the staker.
func (s *stakerContract) Addresses() staker.Addresses {
	return staker.Addresses{
		Staker:     s.Address,
		Tiers:      Tiers.Address,
		Treasury:   Treasury.Address,
		Governance: Governance.Address,
		Params:     Params.Address,
		Tokens:     Tokens.Address,
	}
}

// Native returns a staker over state. With a nil transferrer the state backed vault is used.
func (s *stakerContract) Native(
	state *state.State,
	policy authority.Policy,
	transfer vault.Transferrer,
	clock xenv.Clock,
) *staker.Staker {
	if policy == nil {
		policy = Authority.Native(state)
	}
	if transfer == nil {
		transfer = Vault.Native(state)
	}
	return staker.New(s.Addresses(), state, policy, transfer, clock)
}
