// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/staker/governance"
	"github.com/vechain/stakeledger/builtin/staker/recovery"
	"github.com/vechain/stakeledger/builtin/staker/stakes"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/builtin/staker/treasury"
	"github.com/vechain/stakeledger/thor"
)

// amount converts a ledger amount for JSON, nil reads as zero.
func amount(v *uint256.Int) *math.HexOrDecimal256 {
	if v == nil {
		return (*math.HexOrDecimal256)(new(big.Int))
	}
	return (*math.HexOrDecimal256)(v.ToBig())
}

// toUint256 converts a JSON amount back, nil reads as zero.
func toUint256(v *math.HexOrDecimal256) (*uint256.Int, bool) {
	if v == nil {
		return new(uint256.Int), true
	}
	b := (*big.Int)(v)
	if b.Sign() < 0 {
		return nil, false
	}
	u, overflow := uint256.FromBig(b)
	return u, !overflow
}

type Tier struct {
	ID                 uint8                 `json:"id"`
	MinimumStake       *math.HexOrDecimal256 `json:"minimumStake"`
	RewardRateBps      uint64                `json:"rewardRateBps"`
	LockDuration       uint64                `json:"lockDuration"`
	MaxRewardCap       *math.HexOrDecimal256 `json:"maxRewardCap"`
	Active             bool                  `json:"active"`
	CompoundingAllowed bool                  `json:"compoundingAllowed"`
}

func convertTier(t *tiers.Tier) *Tier {
	return &Tier{
		ID:                 t.ID,
		MinimumStake:       amount(t.MinimumStake),
		RewardRateBps:      t.RewardRateBps,
		LockDuration:       t.LockDuration,
		MaxRewardCap:       amount(t.MaxRewardCap),
		Active:             t.Active,
		CompoundingAllowed: t.CompoundingAllowed,
	}
}

type Stake struct {
	Account            thor.Address          `json:"account"`
	Amount             *math.HexOrDecimal256 `json:"amount"`
	TierID             uint8                 `json:"tierId"`
	StartTime          uint64                `json:"startTime"`
	EndTime            uint64                `json:"endTime"`
	LastClaimTime      uint64                `json:"lastClaimTime"`
	CooldownEnd        uint64                `json:"cooldownEnd"`
	AccumulatedRewards *math.HexOrDecimal256 `json:"accumulatedRewards"`
	PendingRewards     *math.HexOrDecimal256 `json:"pendingRewards"`
	RewardRateBps      uint64                `json:"rewardRateBps"`
	MaxRewardCap       *math.HexOrDecimal256 `json:"maxRewardCap"`
	Locked             bool                  `json:"locked"`
	Compounding        bool                  `json:"compounding"`
	LastActionTime     uint64                `json:"lastActionTime"`
	Used               bool                  `json:"used"`
	Revoked            bool                  `json:"revoked"`
}

func convertStake(account thor.Address, s *stakes.Stake, pending *uint256.Int) *Stake {
	return &Stake{
		Account:            account,
		Amount:             amount(s.Amount),
		TierID:             s.TierID,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		LastClaimTime:      s.LastClaimTime,
		CooldownEnd:        s.CooldownEnd,
		AccumulatedRewards: amount(s.AccumulatedRewards),
		PendingRewards:     amount(pending),
		RewardRateBps:      s.RewardRateBps,
		MaxRewardCap:       amount(s.MaxRewardCap),
		Locked:             s.Locked,
		Compounding:        s.Compounding,
	}
}

type Treasury struct {
	TreasuryAddress   thor.Address          `json:"treasuryAddress"`
	FeeBps            uint64                `json:"feeBps"`
	FeesEnabled       bool                  `json:"feesEnabled"`
	CollectedFees     *math.HexOrDecimal256 `json:"collectedFees"`
	RewardPool        *math.HexOrDecimal256 `json:"rewardPool"`
	RewardDistributed *math.HexOrDecimal256 `json:"rewardDistributed"`
	TotalStaked       *math.HexOrDecimal256 `json:"totalStaked"`
	LastUpdateTime    uint64                `json:"lastUpdateTime"`
	EmergencyShutdown bool                  `json:"emergencyShutdown"`
}

func convertTreasury(info *treasury.Info, shutdown bool) *Treasury {
	return &Treasury{
		TreasuryAddress:   info.TreasuryAddress,
		FeeBps:            info.FeeBps,
		FeesEnabled:       info.FeesEnabled,
		CollectedFees:     amount(info.CollectedFees),
		RewardPool:        amount(info.RewardPool.Total),
		RewardDistributed: amount(info.RewardPool.Distributed),
		TotalStaked:       amount(info.TotalStaked),
		LastUpdateTime:    info.LastUpdateTime,
		EmergencyShutdown: shutdown,
	}
}

type Issuance struct {
	WindowStart uint64                `json:"windowStart"`
	Issued      *math.HexOrDecimal256 `json:"issued"`
	Limit       *math.HexOrDecimal256 `json:"limit"`
}

type Recovery struct {
	Account       thor.Address `json:"account"`
	NewAddress    thor.Address `json:"newAddress"`
	RequestTime   uint64       `json:"requestTime"`
	SecurityDelay uint64       `json:"securityDelay"`
	ReadyAt       uint64       `json:"readyAt"`
	RequestHash   thor.Bytes32 `json:"requestHash"`
	Pending       bool         `json:"pending"`
}

func convertRecovery(account thor.Address, r *recovery.Request) *Recovery {
	return &Recovery{
		Account:       account,
		NewAddress:    r.NewAddress,
		RequestTime:   r.RequestTime,
		SecurityDelay: r.SecurityDelay,
		ReadyAt:       r.ReadyAt(),
		RequestHash:   r.RequestHash,
		Pending:       r.Pending,
	}
}

type Proposal struct {
	ID            uint64                `json:"id"`
	ProposalHash  thor.Bytes32          `json:"proposalHash"`
	Description   string                `json:"description"`
	Proposer      thor.Address          `json:"proposer"`
	Target        thor.Address          `json:"target"`
	Payload       hexutil.Bytes         `json:"payload"`
	VotingEnds    uint64                `json:"votingEnds"`
	ExecutionTime uint64                `json:"executionTime"`
	VotesFor      *math.HexOrDecimal256 `json:"votesFor"`
	VotesAgainst  *math.HexOrDecimal256 `json:"votesAgainst"`
	TotalVotes    *math.HexOrDecimal256 `json:"totalVotes"`
	Status        string                `json:"status"`
	Action        *Action               `json:"action,omitempty"`
}

// Action is the decoded payload of a proposal.
type Action struct {
	Op      string                `json:"op"`
	Key     *thor.Bytes32         `json:"key,omitempty"`
	Value   *math.HexOrDecimal256 `json:"value,omitempty"`
	Address *thor.Address         `json:"address,omitempty"`
}

func convertProposal(p *governance.Proposal, now uint64) *Proposal {
	out := &Proposal{
		ID:            p.ID,
		ProposalHash:  p.ProposalHash,
		Description:   p.Description,
		Proposer:      p.Proposer,
		Target:        p.Target,
		Payload:       p.Payload,
		VotingEnds:    p.VotingEnds,
		ExecutionTime: p.ExecutionTime,
		VotesFor:      amount(p.VotesFor),
		VotesAgainst:  amount(p.VotesAgainst),
		TotalVotes:    amount(p.TotalVotes),
		Status:        p.Status(now).String(),
	}
	// payloads are opaque until execution, show them decoded when they parse
	if a, err := governance.DecodeAction(p.Payload); err == nil {
		out.Action = &Action{Op: a.Op.String()}
		if !a.Key.IsZero() {
			key := a.Key
			out.Action.Key = &key
		}
		if a.Value != nil {
			out.Action.Value = (*math.HexOrDecimal256)(a.Value)
		}
		if !a.Address.IsZero() {
			addr := a.Address
			out.Action.Address = &addr
		}
	}
	return out
}

type Vote struct {
	ProposalID uint64       `json:"proposalId"`
	Account    thor.Address `json:"account"`
	Voted      bool         `json:"voted"`
}

type TokenBalance struct {
	Token   thor.Address          `json:"token"`
	Account thor.Address          `json:"account"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}
