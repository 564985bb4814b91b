// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/vechain/stakeledger/thor"

// Stage abstracts changes on the committed store.
type Stage struct {
	store    *Store
	accounts map[thor.Address][]byte
	storage  map[storageKey][]byte
}

// Len returns the count of changed values.
func (s *Stage) Len() int {
	return len(s.accounts) + len(s.storage)
}

// Commit writes all changes in one atomic batch.
func (s *Stage) Commit() error {
	if s.Len() == 0 {
		return nil
	}
	if err := s.store.write(s.accounts, s.storage); err != nil {
		return &Error{err}
	}
	return nil
}
