// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/vechain/stakeledger/stackedmap"
	"github.com/vechain/stakeledger/thor"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

// State is a revertable view over the committed store.
type State struct {
	store *Store
	sm    *stackedmap.StackedMap
}

func newState(store *Store) *State {
	s := &State{store: store}
	s.sm = stackedmap.New(s.storeGetter)
	return s
}

// storeGetter implements stackedmap.MapGetter.
func (s *State) storeGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case thor.Address:
		acc, err := s.store.getAccount(k)
		if err != nil {
			return nil, false, err
		}
		return acc, true, nil
	case storageKey:
		raw, err := s.store.getStorage(k.addr, k.key)
		if err != nil {
			return nil, false, err
		}
		return rlp.RawValue(raw), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// getAccount gets account by address. the returned account should not be modified.
func (s *State) getAccount(addr thor.Address) (*Account, error) {
	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return v.(*Account), nil
}

func (s *State) updateAccount(addr thor.Address, acc *Account) {
	s.sm.Put(addr, acc)
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr thor.Address) (*uint256.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(acc.Balance), nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *uint256.Int) error {
	acc, err := s.getAccount(addr)
	if err != nil {
		return err
	}
	cpy := *acc
	cpy.Balance = new(uint256.Int).Set(balance)
	s.updateAccount(addr, &cpy)
	return nil
}

// HasCode returns whether the address is a contract account.
func (s *State) HasCode(addr thor.Address) (bool, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return false, err
	}
	return acc.HasCode, nil
}

// SetHasCode marks or unmarks the address as a contract account.
func (s *State) SetHasCode(addr thor.Address, hasCode bool) error {
	acc, err := s.getAccount(addr)
	if err != nil {
		return err
	}
	cpy := *acc
	cpy.HasCode = hasCode
	s.updateAccount(addr, &cpy)
	return nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw. An empty value deletes the slot.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to compute changes and commit them.
func (s *State) Stage() (*Stage, error) {
	var (
		accounts = make(map[thor.Address][]byte)
		storage  = make(map[storageKey][]byte)
		jerr     error
	)
	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case thor.Address:
			raw, err := encodeAccount(v.(*Account))
			if err != nil {
				jerr = err
				return false
			}
			accounts[key] = raw
		case storageKey:
			storage[key] = v.(rlp.RawValue)
		}
		return true
	})
	if jerr != nil {
		return nil, &Error{jerr}
	}
	return &Stage{store: s.store, accounts: accounts, storage: storage}, nil
}
