// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker is the staking ledger: tiers, stakes, treasury, rate limits, recovery and
// governance over one state overlay. A Staker serves a single call; the runtime commits or
// discards the overlay afterwards.
package staker

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/governance"
	"github.com/vechain/stakeledger/builtin/staker/ratelimit"
	"github.com/vechain/stakeledger/builtin/staker/recovery"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/builtin/staker/stakes"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/builtin/staker/treasury"
	"github.com/vechain/stakeledger/builtin/tokens"
	"github.com/vechain/stakeledger/builtin/vault"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "staker")

func SetLogger(l log.Logger) {
	logger = l
}

// Addresses locates the builtin storage of the ledger.
type Addresses struct {
	Staker     thor.Address
	Tiers      thor.Address
	Treasury   thor.Address
	Governance thor.Address
	Params     thor.Address
	Tokens     thor.Address
}

// Staker implements the ledger operations.
type Staker struct {
	addrs    Addresses
	state    *state.State
	params   *params.Params
	policy   authority.Policy
	transfer vault.Transferrer
	tokens   *tokens.Tokens
	blk      *xenv.BlockContext

	tierService       *tiers.Service
	stakeService      *stakes.Service
	treasuryService   *treasury.Service
	limiterService    *ratelimit.Service
	recoveryService   *recovery.Service
	governanceService *governance.Service

	events []*Event
}

// New create a new instance. The clock is read once, so every check of the call sees the
// same time.
func New(
	addrs Addresses,
	state *state.State,
	policy authority.Policy,
	transfer vault.Transferrer,
	clock xenv.Clock,
) *Staker {
	sctx := solidity.NewContext(addrs.Staker, state)
	p := params.New(addrs.Params, state)
	return &Staker{
		addrs:    addrs,
		state:    state,
		params:   p,
		policy:   policy,
		transfer: transfer,
		tokens:   tokens.New(addrs.Tokens, state),
		blk:      xenv.NewBlockContext(clock),

		tierService:       tiers.New(solidity.NewContext(addrs.Tiers, state)),
		stakeService:      stakes.New(sctx),
		treasuryService:   treasury.New(solidity.NewContext(addrs.Treasury, state)),
		limiterService:    ratelimit.New(sctx, p),
		recoveryService:   recovery.New(sctx),
		governanceService: governance.New(solidity.NewContext(addrs.Governance, state)),
	}
}

func (s *Staker) now() uint64 {
	return s.blk.Time
}

// enter is the gate of every mutating entry point.
func (s *Staker) enter(caller thor.Address) error {
	paused, err := s.policy.IsPaused()
	if err != nil {
		return err
	}
	if paused {
		return reverts.ErrPaused
	}
	revoked, err := s.stakeService.IsRevoked(caller)
	if err != nil {
		return err
	}
	if revoked {
		return reverts.ErrAddressRevoked
	}
	return nil
}

// requireRole fails unless caller holds one of the roles.
func (s *Staker) requireRole(caller thor.Address, roles ...authority.Role) error {
	for _, role := range roles {
		ok, err := s.policy.HasRole(role, caller)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return reverts.ErrUnauthorized.Withf("%v lacks %v", caller, roles)
}

// enterAdmin gates capability restricted operations. They are not rate limited.
func (s *Staker) enterAdmin(caller thor.Address, roles ...authority.Role) error {
	if err := s.enter(caller); err != nil {
		return err
	}
	return s.requireRole(caller, roles...)
}

func (s *Staker) transferIn(from thor.Address, amount *uint256.Int) error {
	if err := s.transfer.TransferIn(from, amount); err != nil {
		return reverts.ErrTransferFailed.With(err)
	}
	return nil
}

func (s *Staker) transferOut(to thor.Address, amount *uint256.Int) error {
	if err := s.transfer.TransferOut(to, amount); err != nil {
		return reverts.ErrTransferFailed.With(err)
	}
	return nil
}

//
// Getters - no state change
//

// GetTier returns the tier, empty if never created.
func (s *Staker) GetTier(id uint8) (*tiers.Tier, error) {
	return s.tierService.Get(id)
}

// ListTiers returns every tier ever created.
func (s *Staker) ListTiers() ([]*tiers.Tier, error) {
	return s.tierService.List()
}

// GetStake returns the stake of account.
func (s *Staker) GetStake(account thor.Address) (*stakes.Stake, error) {
	return s.stakeService.Get(account)
}

// CalculateRewards returns the rewards account could claim now.
func (s *Staker) CalculateRewards(account thor.Address) (*uint256.Int, error) {
	stake, err := s.stakeService.Get(account)
	if err != nil {
		return nil, err
	}
	return stakes.CalculateRewards(stake, s.now())
}

// HasBeenUsed returns whether the address ever staked or took part in a recovery.
func (s *Staker) HasBeenUsed(account thor.Address) (bool, error) {
	return s.stakeService.HasBeenUsed(account)
}

// IsRevoked returns whether the address was recovered away from.
func (s *Staker) IsRevoked(account thor.Address) (bool, error) {
	return s.stakeService.IsRevoked(account)
}

// TreasuryInfo returns the treasury snapshot.
func (s *Staker) TreasuryInfo() (*treasury.Info, error) {
	return s.treasuryService.Info()
}

// IssuanceWindow returns the daily issuance ledger as seen now.
func (s *Staker) IssuanceWindow() (*ratelimit.Window, error) {
	return s.limiterService.Window(s.now())
}

// LastActionTime returns the last rate limited action of account.
func (s *Staker) LastActionTime(account thor.Address) (uint64, error) {
	return s.limiterService.LastActionTime(account)
}

// GetRecoveryRequest returns the pending request of account, nil if none.
func (s *Staker) GetRecoveryRequest(account thor.Address) (*recovery.Request, error) {
	return s.recoveryService.Get(account)
}

// GetProposal returns the proposal, nil if it does not exist.
func (s *Staker) GetProposal(id uint64) (*governance.Proposal, error) {
	return s.governanceService.Get(id)
}

// ProposalStatus returns the lifecycle state of the proposal now.
func (s *Staker) ProposalStatus(id uint64) (governance.Status, error) {
	p, err := s.governanceService.Get(id)
	if err != nil {
		return governance.StatusUnknown, err
	}
	return p.Status(s.now()), nil
}

// ProposalCount returns the number of proposals ever created.
func (s *Staker) ProposalCount() (uint64, error) {
	return s.governanceService.Count()
}

// HasVoted returns whether account voted on the proposal.
func (s *Staker) HasVoted(id uint64, account thor.Address) (bool, error) {
	return s.governanceService.HasVoted(id, account)
}

// TokenBalance returns the auxiliary token balance of account.
func (s *Staker) TokenBalance(token, account thor.Address) (*uint256.Int, error) {
	return s.tokens.BalanceOf(token, account)
}

// Tokens returns the whitelisted auxiliary tokens.
func (s *Staker) Tokens() ([]thor.Address, error) {
	return s.tokens.List()
}

// IsEmergencyShutdown returns whether locks are bypassed on unstake.
func (s *Staker) IsEmergencyShutdown() (bool, error) {
	return s.params.GetBool(thor.KeyEmergencyShutdown)
}

// Params returns the governable params.
func (s *Staker) Params() *params.Params {
	return s.params
}
