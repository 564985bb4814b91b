// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/semaphore"

	"github.com/vechain/stakeledger/thor"
)

// Resource is a global piece of ledger state guarded by its own lock.
type Resource uint8

// Globals in lock order.
const (
	Tiers Resource = iota
	// Treasury covers fees, the reward pool, total staked and every vault transfer.
	Treasury
	Issuance
	Governance
	Params
	Authority
	Tokens

	numResources
)

func (r Resource) String() string {
	switch r {
	case Tiers:
		return "tiers"
	case Treasury:
		return "treasury"
	case Issuance:
		return "issuance"
	case Governance:
		return "governance"
	case Params:
		return "params"
	case Authority:
		return "authority"
	case Tokens:
		return "tokens"
	}
	return fmt.Sprintf("resource(%d)", uint8(r))
}

const (
	numStripes = 256
	// a writer takes the whole weight, a reader one unit
	writeWeight int64 = 1 << 20
)

// Access declares the state a call touches.
type Access struct {
	Accounts []thor.Address
	Writes   []Resource
	Reads    []Resource
}

// lockTable holds one RW semaphore per account stripe and per global resource.
type lockTable struct {
	stripes [numStripes]*semaphore.Weighted
	globals [numResources]*semaphore.Weighted
}

func newLockTable() *lockTable {
	t := &lockTable{}
	for i := range t.stripes {
		t.stripes[i] = semaphore.NewWeighted(writeWeight)
	}
	for i := range t.globals {
		t.globals[i] = semaphore.NewWeighted(writeWeight)
	}
	return t
}

func stripeOf(addr thor.Address) int {
	return int(thor.Blake2b(addr.Bytes())[0])
}

type heldLock struct {
	sem    *semaphore.Weighted
	weight int64
}

// heldLocks releases in reverse acquisition order.
type heldLocks []heldLock

func (h heldLocks) release() {
	for i := len(h) - 1; i >= 0; i-- {
		h[i].sem.Release(h[i].weight)
	}
}

// acquire takes the locks of a in a fixed order: account stripes ascending, then globals
// in enum order. It gives up when ctx is done, releasing what it took.
func (t *lockTable) acquire(ctx context.Context, a *Access) (heldLocks, error) {
	stripes := make([]int, 0, len(a.Accounts))
	seen := make(map[int]bool, len(a.Accounts))
	for _, addr := range a.Accounts {
		s := stripeOf(addr)
		if !seen[s] {
			seen[s] = true
			stripes = append(stripes, s)
		}
	}
	sort.Ints(stripes)

	var weights [numResources]int64
	for _, r := range a.Reads {
		if weights[r] == 0 {
			weights[r] = 1
		}
	}
	for _, r := range a.Writes {
		weights[r] = writeWeight
	}

	held := make(heldLocks, 0, len(stripes)+int(numResources))
	take := func(sem *semaphore.Weighted, weight int64) error {
		if err := sem.Acquire(ctx, weight); err != nil {
			held.release()
			return err
		}
		held = append(held, heldLock{sem, weight})
		return nil
	}
	for _, s := range stripes {
		if err := take(t.stripes[s], writeWeight); err != nil {
			return nil, err
		}
	}
	for r, w := range weights {
		if w == 0 {
			continue
		}
		if err := take(t.globals[r], w); err != nil {
			return nil, err
		}
	}
	return held, nil
}
