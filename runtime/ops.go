// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/staker/governance"
	"github.com/vechain/stakeledger/builtin/staker/recovery"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/builtin/staker/stakes"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// gated lists the resources every gated entry point reads.
var gated = []Resource{Params, Authority}

func accountAccess(writes []Resource, accounts ...thor.Address) *Access {
	return &Access{Accounts: accounts, Writes: writes, Reads: gated}
}

func adminAccess(writes ...Resource) *Access {
	return &Access{Writes: writes, Reads: gated}
}

//
// Stake engine
//

func (rt *Runtime) OpenStake(ctx context.Context, caller thor.Address, amount *uint256.Int, tierID uint8, compounding bool) (*stakes.Stake, error) {
	var stake *stakes.Stake
	access := &Access{
		Accounts: []thor.Address{caller},
		Writes:   []Resource{Treasury, Issuance},
		Reads:    []Resource{Tiers, Params, Authority},
	}
	_, err := rt.Execute(ctx, "openStake", access, func(s *staker.Staker) (err error) {
		stake, err = s.OpenStake(caller, amount, tierID, compounding)
		return
	})
	return stake, err
}

func (rt *Runtime) ClaimRewards(ctx context.Context, caller thor.Address) (*uint256.Int, error) {
	var rewards *uint256.Int
	_, err := rt.Execute(ctx, "claimRewards", accountAccess([]Resource{Treasury}, caller), func(s *staker.Staker) (err error) {
		rewards, err = s.ClaimRewards(caller)
		return
	})
	return rewards, err
}

func (rt *Runtime) Unstake(ctx context.Context, caller thor.Address) (principal, rewards *uint256.Int, err error) {
	_, err = rt.Execute(ctx, "unstake", accountAccess([]Resource{Treasury}, caller), func(s *staker.Staker) (err error) {
		principal, rewards, err = s.Unstake(caller)
		return
	})
	return
}

func (rt *Runtime) SetEmergencyShutdown(ctx context.Context, caller thor.Address, enabled bool) error {
	_, err := rt.Execute(ctx, "setEmergencyShutdown", &Access{Writes: []Resource{Params}, Reads: []Resource{Authority}},
		func(s *staker.Staker) error { return s.SetEmergencyShutdown(caller, enabled) })
	return err
}

//
// Treasury
//

func (rt *Runtime) AddToRewardPool(ctx context.Context, caller thor.Address, amount *uint256.Int) error {
	_, err := rt.Execute(ctx, "addToRewardPool", accountAccess([]Resource{Treasury}, caller),
		func(s *staker.Staker) error { return s.AddToRewardPool(caller, amount) })
	return err
}

func (rt *Runtime) WithdrawFees(ctx context.Context, caller, to thor.Address, amount *uint256.Int) error {
	_, err := rt.Execute(ctx, "withdrawFees", adminAccess(Treasury),
		func(s *staker.Staker) error { return s.WithdrawFees(caller, to, amount) })
	return err
}

func (rt *Runtime) SetFee(ctx context.Context, caller thor.Address, bps uint64) error {
	_, err := rt.Execute(ctx, "setFee", adminAccess(Treasury),
		func(s *staker.Staker) error { return s.SetFee(caller, bps) })
	return err
}

func (rt *Runtime) SetFeesEnabled(ctx context.Context, caller thor.Address, enabled bool) error {
	_, err := rt.Execute(ctx, "setFeesEnabled", adminAccess(Treasury),
		func(s *staker.Staker) error { return s.SetFeesEnabled(caller, enabled) })
	return err
}

func (rt *Runtime) SetTreasuryAddress(ctx context.Context, caller, addr thor.Address) error {
	_, err := rt.Execute(ctx, "setTreasuryAddress", adminAccess(Treasury),
		func(s *staker.Staker) error { return s.SetTreasuryAddress(caller, addr) })
	return err
}

func (rt *Runtime) WhitelistToken(ctx context.Context, caller, token thor.Address) error {
	_, err := rt.Execute(ctx, "whitelistToken", adminAccess(Tokens),
		func(s *staker.Staker) error { return s.WhitelistToken(caller, token) })
	return err
}

func (rt *Runtime) CreditToken(ctx context.Context, caller, token, account thor.Address, amount *uint256.Int) error {
	_, err := rt.Execute(ctx, "creditToken", adminAccess(Tokens),
		func(s *staker.Staker) error { return s.CreditToken(caller, token, account, amount) })
	return err
}

//
// Tier registry
//

func (rt *Runtime) CreateTier(ctx context.Context, caller thor.Address, id uint8, p *tiers.Params) error {
	_, err := rt.Execute(ctx, "createTier", adminAccess(Tiers),
		func(s *staker.Staker) error { return s.CreateTier(caller, id, p) })
	return err
}

func (rt *Runtime) UpdateTier(ctx context.Context, caller thor.Address, id uint8, p *tiers.Params) error {
	_, err := rt.Execute(ctx, "updateTier", adminAccess(Tiers),
		func(s *staker.Staker) error { return s.UpdateTier(caller, id, p) })
	return err
}

func (rt *Runtime) DeactivateTier(ctx context.Context, caller thor.Address, id uint8) error {
	_, err := rt.Execute(ctx, "deactivateTier", adminAccess(Tiers),
		func(s *staker.Staker) error { return s.DeactivateTier(caller, id) })
	return err
}

//
// Recovery
//

func (rt *Runtime) RequestRecovery(ctx context.Context, caller, newAddress thor.Address) (*recovery.Request, error) {
	var req *recovery.Request
	_, err := rt.Execute(ctx, "requestRecovery", accountAccess(nil, caller, newAddress), func(s *staker.Staker) (err error) {
		req, err = s.RequestRecovery(caller, newAddress)
		return
	})
	return req, err
}

func (rt *Runtime) CancelRecoveryRequest(ctx context.Context, caller thor.Address) error {
	_, err := rt.Execute(ctx, "cancelRecoveryRequest", accountAccess(nil, caller),
		func(s *staker.Staker) error { return s.CancelRecoveryRequest(caller) })
	return err
}

// ExecuteRecovery locks both ends of the request. The target is read before locking and
// checked again under the locks.
func (rt *Runtime) ExecuteRecovery(ctx context.Context, caller, old thor.Address) (thor.Address, error) {
	var peeked thor.Address
	if err := rt.View(func(s *staker.Staker) error {
		req, err := s.GetRecoveryRequest(old)
		if err != nil {
			return err
		}
		if req != nil {
			peeked = req.NewAddress
		}
		return nil
	}); err != nil {
		return thor.Address{}, err
	}

	var newAddress thor.Address
	_, err := rt.Execute(ctx, "executeRecovery", accountAccess([]Resource{Tokens}, old, peeked), func(s *staker.Staker) error {
		req, err := s.GetRecoveryRequest(old)
		if err != nil {
			return err
		}
		if req != nil && req.NewAddress != peeked {
			return reverts.ErrNotPending.Withf("request of %v changed", old)
		}
		newAddress, err = s.ExecuteRecovery(caller, old)
		return err
	})
	return newAddress, err
}

//
// Governance
//

func (rt *Runtime) CreateProposal(
	ctx context.Context,
	caller thor.Address,
	hash thor.Bytes32,
	description string,
	target thor.Address,
	payload []byte,
) (*governance.Proposal, error) {
	var p *governance.Proposal
	_, err := rt.Execute(ctx, "createProposal", accountAccess([]Resource{Governance}, caller), func(s *staker.Staker) (err error) {
		p, err = s.CreateProposal(caller, hash, description, target, payload)
		return
	})
	return p, err
}

func (rt *Runtime) Vote(ctx context.Context, caller thor.Address, id uint64, support bool) error {
	_, err := rt.Execute(ctx, "vote", accountAccess([]Resource{Governance}, caller),
		func(s *staker.Staker) error { return s.Vote(caller, id, support) })
	return err
}

func (rt *Runtime) CancelProposal(ctx context.Context, caller thor.Address, id uint64) error {
	_, err := rt.Execute(ctx, "cancelProposal", accountAccess([]Resource{Governance}, caller),
		func(s *staker.Staker) error { return s.CancelProposal(caller, id) })
	return err
}

func (rt *Runtime) VetoProposal(ctx context.Context, caller thor.Address, id uint64) error {
	_, err := rt.Execute(ctx, "vetoProposal", adminAccess(Governance),
		func(s *staker.Staker) error { return s.VetoProposal(caller, id) })
	return err
}

// ExecuteProposal may change any governable resource, so it takes them all.
func (rt *Runtime) ExecuteProposal(ctx context.Context, caller thor.Address, id uint64, target thor.Address, payload []byte) error {
	access := &Access{
		Accounts: []thor.Address{caller},
		Writes:   []Resource{Tiers, Treasury, Governance, Params},
		Reads:    []Resource{Authority},
	}
	_, err := rt.Execute(ctx, "executeProposal", access,
		func(s *staker.Staker) error { return s.ExecuteProposal(caller, id, target, payload) })
	return err
}

//
// Authority. These are not staker entry points, so pause does not gate them.
//

func (rt *Runtime) requireAdmin(st *state.State, caller thor.Address) (*authority.Authority, error) {
	auth := builtin.Authority.Native(st)
	ok, err := auth.HasRole(authority.RoleAdmin, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.ErrUnauthorized.Withf("%v lacks %v", caller, authority.RoleAdmin)
	}
	return auth, nil
}

// GrantRole gives addr the role. Granting a held role is a no-op.
func (rt *Runtime) GrantRole(ctx context.Context, caller thor.Address, role authority.Role, addr thor.Address) error {
	_, err := rt.execute(ctx, "grantRole", &Access{Writes: []Resource{Authority}}, func(st *state.State, _ *staker.Staker) error {
		auth, err := rt.requireAdmin(st, caller)
		if err != nil {
			return err
		}
		if addr.IsZero() {
			return reverts.ErrZeroAddress
		}
		granted, err := auth.Grant(role, addr)
		if err == nil && granted {
			logger.Info("role granted", "role", role, "account", addr, "admin", caller)
		}
		return err
	})
	return err
}

// RevokeRole removes the role from addr. An admin cannot revoke its own admin role.
func (rt *Runtime) RevokeRole(ctx context.Context, caller thor.Address, role authority.Role, addr thor.Address) error {
	_, err := rt.execute(ctx, "revokeRole", &Access{Writes: []Resource{Authority}}, func(st *state.State, _ *staker.Staker) error {
		auth, err := rt.requireAdmin(st, caller)
		if err != nil {
			return err
		}
		if role == authority.RoleAdmin && addr == caller {
			return reverts.ErrInvalidParameter.Withf("admin cannot revoke itself")
		}
		revoked, err := auth.Revoke(role, addr)
		if err == nil && revoked {
			logger.Info("role revoked", "role", role, "account", addr, "admin", caller)
		}
		return err
	})
	return err
}

// SetPaused suspends or resumes every mutating staker entry point.
func (rt *Runtime) SetPaused(ctx context.Context, caller thor.Address, paused bool) error {
	_, err := rt.execute(ctx, "setPaused", &Access{Writes: []Resource{Authority}}, func(st *state.State, _ *staker.Staker) error {
		auth := builtin.Authority.Native(st)
		ok, err := auth.HasRole(authority.RoleAdmin, caller)
		if err != nil {
			return err
		}
		if !ok {
			if ok, err = auth.HasRole(authority.RoleEmergency, caller); err != nil {
				return err
			}
		}
		if !ok {
			return reverts.ErrUnauthorized.Withf("%v may not pause", caller)
		}
		logger.Info("pause set", "paused", paused, "caller", caller)
		return auth.SetPaused(paused)
	})
	return err
}
