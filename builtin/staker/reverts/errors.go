// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import "fmt"

// validation
var (
	ErrInvalidParameter      = newRevert(Validation, "invalid parameter")
	ErrZeroAmount            = newRevert(Validation, "amount must be greater than zero")
	ErrZeroAddress           = newRevert(Validation, "address must not be zero")
	ErrBelowMinimumStake     = newRevert(Validation, "amount below tier minimum stake")
	ErrCompoundingNotAllowed = newRevert(Validation, "tier does not allow compounding")
	ErrAddressUsed           = newRevert(Validation, "address has been used before")
	ErrContractAddress       = newRevert(Validation, "address is a contract")
	ErrSelfRecovery          = newRevert(Validation, "recovery target is the caller")
	ErrInvalidAction         = newRevert(Validation, "invalid governance action")
	ErrProposalMismatch      = newRevert(Validation, "proposal content mismatch")
)

// authorization
var (
	ErrUnauthorized           = newRevert(Authorization, "unauthorized")
	ErrPaused                 = newRevert(Authorization, "system is paused")
	ErrAddressRevoked         = newRevert(Authorization, "address has been revoked")
	ErrBelowProposalThreshold = newRevert(Authorization, "stake below proposal threshold")
)

// state conflicts
var (
	ErrAlreadyExists       = newRevert(StateConflict, "tier already exists")
	ErrTierNotFound        = newRevert(StateConflict, "tier not found")
	ErrTierNotActive       = newRevert(StateConflict, "tier not active")
	ErrAlreadyStaked       = newRevert(StateConflict, "account already staked")
	ErrNotStaked           = newRevert(StateConflict, "account has no locked stake")
	ErrCooldownActive      = newRevert(StateConflict, "cooldown period not elapsed")
	ErrStillLocked         = newRevert(StateConflict, "stake still locked")
	ErrNoRewards           = newRevert(StateConflict, "no rewards to claim")
	ErrAlreadyPending      = newRevert(StateConflict, "recovery already pending")
	ErrNotPending          = newRevert(StateConflict, "no pending recovery")
	ErrDelayNotElapsed     = newRevert(StateConflict, "delay not elapsed")
	ErrProposalNotFound    = newRevert(StateConflict, "proposal not found")
	ErrVotingClosed        = newRevert(StateConflict, "voting closed")
	ErrVotingOpen          = newRevert(StateConflict, "voting still open")
	ErrAlreadyVoted        = newRevert(StateConflict, "already voted")
	ErrProposalCancelled   = newRevert(StateConflict, "proposal cancelled")
	ErrProposalVetoed      = newRevert(StateConflict, "proposal vetoed")
	ErrAlreadyExecuted     = newRevert(StateConflict, "proposal already executed")
	ErrQuorumNotReached    = newRevert(StateConflict, "quorum not reached")
	ErrProposalRejected    = newRevert(StateConflict, "proposal rejected")
	ErrTokenNotWhitelisted = newRevert(StateConflict, "token not whitelisted")
	ErrReentrant           = newRevert(StateConflict, "reentrant call")
)

// throttling
var (
	ErrRateLimited      = newRevert(RateLimited, "action rate limited")
	ErrDailyCapExceeded = newRevert(DailyCapExceeded, "daily stake cap exceeded")
)

// economic
var (
	ErrInsufficientBalance    = newRevert(InsufficientFunds, "insufficient balance")
	ErrInsufficientRewardPool = newRevert(InsufficientRewardPool, "insufficient reward pool")
	ErrRewardCapExceeded      = newRevert(RewardCapExceeded, "reward cap exceeded")
)

// transfer and arithmetic
var (
	ErrTransferFailed  = newRevert(TransferFailed, "transfer failed")
	ErrArithmeticFault = newRevert(ArithmeticFault, "arithmetic fault")
)

func fmtError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
