// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tiers is the registry of staking tiers.
package tiers

import (
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotTiers = thor.BytesToBytes32([]byte("tiers"))
	slotIDs   = thor.BytesToBytes32([]byte("tier-ids"))
)

type tierKey uint8

func (k tierKey) Bytes() []byte {
	return []byte{byte(k)}
}

// Service manages tier definitions.
type Service struct {
	tiers *solidity.Mapping[tierKey, *Tier]
	ids   *solidity.Slot[[]byte]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		tiers: solidity.NewMapping[tierKey, *Tier](sctx, slotTiers),
		ids:   solidity.NewSlot[[]byte](sctx, slotIDs),
	}
}

// Get returns the tier, or an empty tier if it was never created.
func (s *Service) Get(id uint8) (*Tier, error) {
	t, err := s.tiers.Get(tierKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tier")
	}
	if t == nil {
		return &Tier{ID: id}, nil
	}
	return t, nil
}

// GetActive returns the tier if it is active.
func (s *Service) GetActive(id uint8) (*Tier, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if t.IsEmpty() {
		return nil, reverts.ErrTierNotFound
	}
	if !t.Active {
		return nil, reverts.ErrTierNotActive
	}
	return t, nil
}

// List returns every tier ever created, in creation order.
func (s *Service) List() ([]*Tier, error) {
	ids, err := s.ids.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tier ids")
	}
	list := make([]*Tier, 0, len(ids))
	for _, id := range ids {
		t, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, nil
}

// Create binds the id to a new active tier. Ids are never reused.
func (s *Service) Create(id uint8, p *Params) (*Tier, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !existing.IsEmpty() {
		return nil, reverts.ErrAlreadyExists.Withf("tier %d", id)
	}

	t := &Tier{ID: id, Active: true, Created: true}
	t.apply(p)
	if err := s.tiers.Set(tierKey(id), t); err != nil {
		return nil, errors.Wrap(err, "failed to set tier")
	}
	ids, err := s.ids.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tier ids")
	}
	if err := s.ids.Set(append(ids, id)); err != nil {
		return nil, errors.Wrap(err, "failed to set tier ids")
	}
	return t, nil
}

// Update replaces the parameters of an existing tier. The active flag is kept.
func (s *Service) Update(id uint8, p *Params) (*Tier, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if t.IsEmpty() {
		return nil, reverts.ErrTierNotFound.Withf("tier %d", id)
	}
	t.apply(p)
	if err := s.tiers.Set(tierKey(id), t); err != nil {
		return nil, errors.Wrap(err, "failed to set tier")
	}
	return t, nil
}

// Deactivate closes the tier to new stakes.
func (s *Service) Deactivate(id uint8) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if t.IsEmpty() {
		return reverts.ErrTierNotFound.Withf("tier %d", id)
	}
	if !t.Active {
		return reverts.ErrTierNotActive.Withf("tier %d", id)
	}
	t.Active = false
	if err := s.tiers.Set(tierKey(id), t); err != nil {
		return errors.Wrap(err, "failed to set tier")
	}
	return nil
}
