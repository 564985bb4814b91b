// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import "math"

// sequence packs the block number and the index of an event within its block.
type sequence int64

func newSequence(blockNum uint32, index uint32) sequence {
	if (index & math.MaxInt32) != index {
		panic("index too large")
	}
	return (sequence(blockNum) << 31) | sequence(index)
}

func (s sequence) BlockNumber() uint32 {
	return uint32(s >> 31)
}

func (s sequence) Index() uint32 {
	return uint32(s & math.MaxInt32)
}

// next returns the sequence following s for an event in block blockNum.
func (s sequence) next(blockNum uint32) sequence {
	if s >= 0 && s.BlockNumber() == blockNum {
		return newSequence(blockNum, s.Index()+1)
	}
	return newSequence(blockNum, 0)
}
