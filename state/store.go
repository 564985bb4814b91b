// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/qianbin/directcache"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/thor"
)

const (
	accountBucket = kv.Bucket("a")
	storageBucket = kv.Bucket("s")
)

// Store is the committed ledger state.
// Values are read through a byte cache; the cache entry carries a leading flag so that
// known-absent keys are cached as well. Reads never observe a half applied write.
type Store struct {
	mu       sync.RWMutex
	db       kv.Store
	accounts kv.Store
	storage  kv.Store
	cache    *directcache.Cache
}

// NewStore creates a store on top of db with a value cache of cacheSizeMB megabytes.
func NewStore(db kv.Store, cacheSizeMB int) *Store {
	if cacheSizeMB < 1 {
		cacheSizeMB = 1
	}
	return &Store{
		db:       db,
		accounts: accountBucket.NewStore(db),
		storage:  storageBucket.NewStore(db),
		cache:    directcache.New(cacheSizeMB * 1024 * 1024),
	}
}

// NewState creates a revertable state on top of the committed store.
func (s *Store) NewState() *State {
	return newState(s)
}

func storageDBKey(addr thor.Address, key thor.Bytes32) []byte {
	return append(append(make([]byte, 0, thor.AddressLength+32), addr[:]...), key[:]...)
}

func (s *Store) getAccount(addr thor.Address) (*Account, error) {
	raw, err := s.get(s.accounts, accountBucket, addr[:])
	if err != nil {
		return nil, err
	}
	return decodeAccount(raw)
}

func (s *Store) getStorage(addr thor.Address, key thor.Bytes32) ([]byte, error) {
	return s.get(s.storage, storageBucket, storageDBKey(addr, key))
}

func (s *Store) get(src kv.Getter, bucket kv.Bucket, key []byte) ([]byte, error) {
	ck := append([]byte(bucket), key...)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		val   []byte
		found bool
	)
	if s.cache.AdvGet(ck, func(cached []byte) {
		found = len(cached) > 0 && cached[0] == 1
		if found {
			val = slices.Clone(cached[1:])
		}
	}, false) {
		metricCacheCounter().AddWithLabel(1, map[string]string{"event": "hit"})
		return val, nil
	}
	metricCacheCounter().AddWithLabel(1, map[string]string{"event": "miss"})

	val, err := src.Get(key)
	if err != nil {
		if !src.IsNotFound(err) {
			return nil, errors.Wrap(err, "store get")
		}
		val = nil
	}
	s.setCache(ck, val)
	return val, nil
}

func (s *Store) setCache(ck []byte, val []byte) {
	if len(val) == 0 {
		_ = s.cache.Set(ck, []byte{0})
		return
	}
	_ = s.cache.Set(ck, append([]byte{1}, val...))
}

// write persists the given values in one atomic bulk, then refreshes the cache.
func (s *Store) write(accounts map[thor.Address][]byte, storage map[storageKey][]byte) error {
	bulk := s.db.Bulk()
	accPutter := accountBucket.NewPutter(bulk)
	for addr, raw := range accounts {
		if err := putOrDelete(accPutter, addr[:], raw); err != nil {
			return err
		}
	}
	stgPutter := storageBucket.NewPutter(bulk)
	for key, raw := range storage {
		if err := putOrDelete(stgPutter, storageDBKey(key.addr, key.key), raw); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "write state")
	}

	for addr, raw := range accounts {
		s.setCache(append([]byte(accountBucket), addr[:]...), raw)
	}
	for key, raw := range storage {
		s.setCache(append([]byte(storageBucket), storageDBKey(key.addr, key.key)...), raw)
	}
	metricCommittedValues().Add(int64(len(accounts) + len(storage)))
	return nil
}

func putOrDelete(p kv.Putter, key, val []byte) error {
	if len(val) == 0 {
		return p.Delete(key)
	}
	return p.Put(key, val)
}
