// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv provides the execution environment of ledger calls.
package xenv

import (
	"sync"
	"time"
)

// BlockInterval is the nominal spacing of ledger blocks in seconds.
const BlockInterval uint64 = 10

// Clock reports the current time and block height.
type Clock interface {
	Now() uint64
	BlockNumber() uint32
}

// BlockContext block context of a single call. It is captured once so every check in a
// call sees the same time.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// NewBlockContext captures the clock.
func NewBlockContext(c Clock) *BlockContext {
	return &BlockContext{
		Number: c.BlockNumber(),
		Time:   c.Now(),
	}
}

// Now implements Clock.
func (b *BlockContext) Now() uint64 { return b.Time }

// BlockNumber implements Clock.
func (b *BlockContext) BlockNumber() uint32 { return b.Number }

type systemClock struct {
	genesis uint64
}

// SystemClock returns a wall clock whose block number counts BlockInterval periods since genesis.
func SystemClock(genesisTime uint64) Clock {
	return &systemClock{genesis: genesisTime}
}

func (c *systemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

func (c *systemClock) BlockNumber() uint32 {
	now := c.Now()
	if now <= c.genesis {
		return 0
	}
	return uint32((now - c.genesis) / BlockInterval)
}

// ManualClock is a clock moved explicitly, used by tests and the dev mode.
type ManualClock struct {
	mu     sync.Mutex
	now    uint64
	number uint32
}

// NewManualClock creates a clock stopped at now.
func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) BlockNumber() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.number
}

// Set moves the clock to now. The block number is unchanged.
func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d seconds and one block per BlockInterval.
func (c *ManualClock) Advance(d uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	c.number += uint32(d / BlockInterval)
}
