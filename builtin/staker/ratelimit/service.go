// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ratelimit implements the per-account action delay and the daily issuance
// circuit breaker.
package ratelimit

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotLastAction  = thor.BytesToBytes32([]byte("last-action-time"))
	slotWindowStart = thor.BytesToBytes32([]byte("issuance-window-start"))
	slotIssued      = thor.BytesToBytes32([]byte("issuance-issued"))
)

// Window is the issuance ledger of the current daily window.
type Window struct {
	Start  uint64
	Issued *uint256.Int
}

type Service struct {
	params      *params.Params
	lastAction  *solidity.Mapping[thor.Address, uint64]
	windowStart *solidity.Slot[uint64]
	issued      *solidity.Uint256
}

func New(sctx *solidity.Context, params *params.Params) *Service {
	return &Service{
		params:      params,
		lastAction:  solidity.NewMapping[thor.Address, uint64](sctx, slotLastAction),
		windowStart: solidity.NewSlot[uint64](sctx, slotWindowStart),
		issued:      solidity.NewUint256(sctx, slotIssued),
	}
}

// LastActionTime returns the time of the last rate limited action of account.
func (s *Service) LastActionTime(account thor.Address) (uint64, error) {
	return s.lastAction.Get(account)
}

// Check fails with RateLimited if account acted less than the action delay ago.
func (s *Service) Check(account thor.Address, now uint64) error {
	last, err := s.lastAction.Get(account)
	if err != nil {
		return errors.Wrap(err, "failed to get last action")
	}
	if last == 0 {
		return nil
	}
	delay, err := s.params.GetUint64(thor.KeyActionDelay)
	if err != nil {
		return err
	}
	next, ok := thor.AddTime(last, delay)
	if !ok {
		return reverts.ErrArithmeticFault.Withf("action delay %d overflows", delay)
	}
	if now < next {
		return reverts.ErrRateLimited.Withf("next action at %d", next)
	}
	return nil
}

// Touch checks the action delay and records now as the last action of account.
func (s *Service) Touch(account thor.Address, now uint64) error {
	if err := s.Check(account, now); err != nil {
		return err
	}
	return s.lastAction.Set(account, now)
}

// Migrate moves the last action time of from to to.
func (s *Service) Migrate(from, to thor.Address) error {
	last, err := s.lastAction.Get(from)
	if err != nil {
		return err
	}
	if err := s.lastAction.Set(to, last); err != nil {
		return err
	}
	s.lastAction.Delete(from)
	return nil
}

// Window returns the issuance ledger as seen at now, a window older than a day reads as reset.
func (s *Service) Window(now uint64) (*Window, error) {
	start, err := s.windowStart.Get()
	if err != nil {
		return nil, err
	}
	if start == 0 || now >= start+thor.IssuanceWindow {
		return &Window{Start: now, Issued: new(uint256.Int)}, nil
	}
	issued, err := s.issued.Get()
	if err != nil {
		return nil, err
	}
	return &Window{Start: start, Issued: issued}, nil
}

// Issue resets the window if a day has passed, checks the daily cap and accounts amount.
func (s *Service) Issue(amount *uint256.Int, now uint64) error {
	w, err := s.Window(now)
	if err != nil {
		return err
	}
	limit, err := s.params.GetUint256(thor.KeyMaxDailyStake)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(w.Issued, amount)
	if overflow || next.Gt(limit) {
		return reverts.ErrDailyCapExceeded.Withf("issued %s, requested %s, cap %s", w.Issued, amount, limit)
	}
	if err := s.windowStart.Set(w.Start); err != nil {
		return err
	}
	return s.issued.Set(next)
}
