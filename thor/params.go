// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
	"math/bits"
)

// Constants of the staking ledger.
const (
	BasisPoints    uint64 = 10000
	SecondsPerDay  uint64 = 24 * 3600
	SecondsPerYear uint64 = 365 * SecondsPerDay

	MaxFee            uint64 = 1000 // 10% in basis points
	MaxTierRewardRate uint64 = 5000 // 50% per year in basis points

	MinDuration uint64 = SecondsPerDay
	MaxDuration uint64 = 4 * SecondsPerYear

	IssuanceWindow uint64 = SecondsPerDay // length of the daily circuit breaker window.

	MaxDescriptionLength = 1024
)

// Keys of governance params.
var (
	KeyActionDelay       = BytesToBytes32([]byte("action-delay"))
	KeyMaxDailyStake     = BytesToBytes32([]byte("max-daily-stake"))
	KeyVotingPeriod      = BytesToBytes32([]byte("voting-period"))
	KeyProposalThreshold = BytesToBytes32([]byte("proposal-threshold"))
	KeyMinimumQuorum     = BytesToBytes32([]byte("minimum-quorum"))
	KeyExecutionDelay    = BytesToBytes32([]byte("execution-delay"))
	KeyRecoveryDelay     = BytesToBytes32([]byte("recovery-delay"))
	KeyCooldownPeriod    = BytesToBytes32([]byte("cooldown-period"))
	KeyEmergencyShutdown = BytesToBytes32([]byte("emergency-shutdown"))
)

// Initial values of governance params.
var (
	InitialActionDelay       = big.NewInt(60)                                             // seconds
	InitialMaxDailyStake     = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18)) // 1M units
	InitialVotingPeriod      = big.NewInt(int64(7 * SecondsPerDay))
	InitialProposalThreshold = new(big.Int).Mul(big.NewInt(1_000), big.NewInt(1e18))
	InitialMinimumQuorum     = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(1e18))
	InitialExecutionDelay    = big.NewInt(int64(2 * SecondsPerDay))
	InitialRecoveryDelay     = big.NewInt(int64(3 * SecondsPerDay))
	InitialCooldownPeriod    = big.NewInt(int64(7 * SecondsPerDay))
)

// GovernableKeys lists the params keys that may be changed by an executed proposal.
var GovernableKeys = []Bytes32{
	KeyActionDelay,
	KeyMaxDailyStake,
	KeyVotingPeriod,
	KeyProposalThreshold,
	KeyMinimumQuorum,
	KeyExecutionDelay,
	KeyRecoveryDelay,
	KeyCooldownPeriod,
}

// IsGovernableKey returns whether the key may be set through governance.
func IsGovernableKey(key Bytes32) bool {
	for _, k := range GovernableKeys {
		if k == key {
			return true
		}
	}
	return false
}

// TimeKeys lists the governable params holding a duration in seconds. Their values are
// bounded by MaxDuration so that adding them to a timestamp cannot wrap.
var TimeKeys = []Bytes32{
	KeyActionDelay,
	KeyVotingPeriod,
	KeyExecutionDelay,
	KeyRecoveryDelay,
	KeyCooldownPeriod,
}

// IsTimeKey returns whether the param holds a duration.
func IsTimeKey(key Bytes32) bool {
	for _, k := range TimeKeys {
		if k == key {
			return true
		}
	}
	return false
}

// AddTime returns t + d, and false if the sum overflows uint64.
func AddTime(t, d uint64) (uint64, bool) {
	sum, carry := bits.Add64(t, d, 0)
	return sum, carry == 0
}
