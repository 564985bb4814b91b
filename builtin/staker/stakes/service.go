// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakes stores account positions and the address flags of the account keyspace.
package stakes

import (
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotStakes  = thor.BytesToBytes32([]byte("stakes"))
	slotUsed    = thor.BytesToBytes32([]byte("has-been-used"))
	slotRevoked = thor.BytesToBytes32([]byte("revoked"))
)

type Service struct {
	stakes  *solidity.Mapping[thor.Address, *Stake]
	used    *solidity.Mapping[thor.Address, bool]
	revoked *solidity.Mapping[thor.Address, bool]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		stakes:  solidity.NewMapping[thor.Address, *Stake](sctx, slotStakes),
		used:    solidity.NewMapping[thor.Address, bool](sctx, slotUsed),
		revoked: solidity.NewMapping[thor.Address, bool](sctx, slotRevoked),
	}
}

// Get returns the stake of account, never nil.
func (s *Service) Get(account thor.Address) (*Stake, error) {
	stake, err := s.stakes.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	if stake == nil {
		return Empty(), nil
	}
	return stake, nil
}

func (s *Service) Set(account thor.Address, stake *Stake) error {
	if err := s.stakes.Set(account, stake); err != nil {
		return errors.Wrap(err, "failed to set stake")
	}
	return nil
}

func (s *Service) Delete(account thor.Address) {
	s.stakes.Delete(account)
}

// HasBeenUsed returns whether the address ever held a stake or took part in a recovery.
func (s *Service) HasBeenUsed(account thor.Address) (bool, error) {
	return s.used.Get(account)
}

func (s *Service) MarkUsed(account thor.Address) error {
	return s.used.Set(account, true)
}

// IsRevoked returns whether the address was recovered away from.
func (s *Service) IsRevoked(account thor.Address) (bool, error) {
	return s.revoked.Get(account)
}

func (s *Service) Revoke(account thor.Address) error {
	return s.revoked.Set(account, true)
}
