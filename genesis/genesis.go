// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis writes the initial ledger state: params, roles, balances, tiers and the
// funded reward pool.
package genesis

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "genesis")

// slotGenesisID marks a store as initialized.
var slotGenesisID = thor.BytesToBytes32([]byte("genesis-id"))

// Genesis to build genesis state.
type Genesis struct {
	builder *Builder
	id      thor.Bytes32
	name    string
}

// ID returns genesis id.
func (g *Genesis) ID() thor.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

// LaunchTime returns the time the initial state is stamped with.
func (g *Genesis) LaunchTime() uint64 {
	return g.builder.timestamp
}

// StoredID returns the id of the genesis the store was initialized with, zero if none.
func StoredID(store *state.Store) (thor.Bytes32, error) {
	var id thor.Bytes32
	err := store.NewState().DecodeStorage(builtin.Params.Address, slotGenesisID, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &id)
	})
	return id, err
}

// Apply writes the genesis state into an empty store. On a store initialized with the same
// genesis it does nothing and returns false.
func (g *Genesis) Apply(store *state.Store) (bool, error) {
	stored, err := StoredID(store)
	if err != nil {
		return false, errors.Wrap(err, "read genesis id")
	}
	if !stored.IsZero() {
		if stored != g.id {
			return false, fmt.Errorf("store was initialized with genesis %v, not %v (%s)", stored, g.id, g.name)
		}
		return false, nil
	}

	st := store.NewState()
	if err := g.builder.build(st); err != nil {
		return false, errors.WithMessagef(err, "build %s genesis", g.name)
	}
	if err := st.EncodeStorage(builtin.Params.Address, slotGenesisID, func() ([]byte, error) {
		return rlp.EncodeToBytes(&g.id)
	}); err != nil {
		return false, err
	}
	stage, err := st.Stage()
	if err != nil {
		return false, err
	}
	if err := stage.Commit(); err != nil {
		return false, errors.Wrap(err, "commit genesis")
	}
	logger.Info("genesis applied", "name", g.name, "id", g.id, "launchTime", g.builder.timestamp)
	return true, nil
}
