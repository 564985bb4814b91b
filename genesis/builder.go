// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Executor runs the genesis calls. It holds every role while the calls run and none after.
var Executor = thor.BytesToAddress([]byte("genesis-executor"))

// Builder helper to build genesis state.
type Builder struct {
	timestamp uint64

	stateProcs []func(state *state.State) error
	calls      []func(s *staker.Staker, executor thor.Address) error
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Call adds a ledger call made by Executor after every state process ran.
func (b *Builder) Call(fn func(s *staker.Staker, executor thor.Address) error) *Builder {
	b.calls = append(b.calls, fn)
	return b
}

// build applies the state processes and the calls to st.
func (b *Builder) build(st *state.State) error {
	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return errors.Wrap(err, "state process")
		}
	}
	if len(b.calls) == 0 {
		return nil
	}

	auth := builtin.Authority.Native(st)
	for _, role := range authority.Roles {
		if _, err := auth.Grant(role, Executor); err != nil {
			return err
		}
	}
	s := builtin.Staker.Native(st, nil, nil, &xenv.BlockContext{Time: b.timestamp})
	for i, call := range b.calls {
		if err := call(s, Executor); err != nil {
			return errors.Wrapf(err, "call %d", i)
		}
	}
	for _, role := range authority.Roles {
		if _, err := auth.Revoke(role, Executor); err != nil {
			return err
		}
	}
	return nil
}
