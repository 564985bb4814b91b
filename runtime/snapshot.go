// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/metrics"
)

var unitScale = new(big.Float).SetInt(big.NewInt(1e18))

// toUnits converts a base unit amount to whole units, losing precision past float64.
func toUnits(v *uint256.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.ToBig()), unitScale).Float64()
	return f
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Snapshot reads ledger wide figures from the committed state, to be exported as gauges.
func (rt *Runtime) Snapshot() ([]metrics.Sample, error) {
	st := rt.store.NewState()
	s := builtin.Staker.Native(st, nil, nil, rt.clock)

	info, err := s.TreasuryInfo()
	if err != nil {
		return nil, err
	}
	window, err := s.IssuanceWindow()
	if err != nil {
		return nil, err
	}
	all, err := s.ListTiers()
	if err != nil {
		return nil, err
	}
	shutdown, err := s.IsEmergencyShutdown()
	if err != nil {
		return nil, err
	}
	paused, err := builtin.Authority.Native(st).IsPaused()
	if err != nil {
		return nil, err
	}

	active := 0
	for _, t := range all {
		if t.Active {
			active++
		}
	}

	return []metrics.Sample{
		{Name: "total_staked_units", Help: "Principal currently staked.", Value: toUnits(info.TotalStaked)},
		{Name: "collected_fees_units", Help: "Fees held by the treasury and not yet withdrawn.", Value: toUnits(info.CollectedFees)},
		{Name: "reward_pool_total_units", Help: "Rewards ever funded into the pool.", Value: toUnits(info.RewardPool.Total)},
		{Name: "reward_pool_distributed_units", Help: "Rewards paid out of the pool.", Value: toUnits(info.RewardPool.Distributed)},
		{Name: "reward_pool_available_units", Help: "Rewards left in the pool.", Value: toUnits(info.RewardPool.Available())},
		{Name: "issuance_window_issued_units", Help: "Stake opened in the current daily window.", Value: toUnits(window.Issued)},
		{Name: "fee_bps", Help: "Treasury fee in basis points.", Value: float64(info.FeeBps)},
		{Name: "active_tiers", Help: "Number of active tiers.", Value: float64(active)},
		{Name: "paused", Help: "1 while the ledger is paused.", Value: flag(paused)},
		{Name: "emergency_shutdown", Help: "1 while emergency shutdown is on.", Value: flag(shutdown)},
	}, nil
}
