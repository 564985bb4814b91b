// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/stakeledger/thor"
)

// Slot is a single rlp encoded value at a fixed position.
type Slot[V any] struct {
	mapping *Mapping[thor.Bytes32, V]
}

func NewSlot[V any](context *Context, pos thor.Bytes32) *Slot[V] {
	return &Slot[V]{mapping: NewMapping[thor.Bytes32, V](context, pos)}
}

func (s *Slot[V]) Get() (V, error) {
	return s.mapping.Get(thor.Bytes32{})
}

func (s *Slot[V]) Set(value V) error {
	return s.mapping.Set(thor.Bytes32{}, value)
}
