// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cry signs ledger call envelopes and recovers their signers.
package cry

import (
	"crypto/ecdsa"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/thor"
)

const signerCacheSize = 1024

const messagePrefix = "\x19Ethereum Signed Message:\n"

// MessageHash returns the personal message hash of msg, so wallets can sign calls as plain text.
func MessageHash(msg []byte) thor.Bytes32 {
	return thor.Keccak256([]byte(messagePrefix), []byte(strconv.Itoa(len(msg))), msg)
}

// Sign signs the personal message hash of msg. The recovery id of the signature is 0 or 1.
func Sign(msg []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	hash := MessageHash(msg)
	return crypto.Sign(hash[:], key)
}

// Signing extracts signers of personal messages.
type Signing struct {
	cache *cache.LRU
}

// NewSigning create a signing object.
func NewSigning() *Signing {
	c, _ := cache.NewLRU(signerCacheSize)
	return &Signing{cache: c}
}

// Signer returns the address that signed msg. Recovery ids 27 and 28 are accepted as well.
func (s *Signing) Signer(msg, sig []byte) (thor.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return thor.Address{}, errors.Errorf("invalid signature length %d", len(sig))
	}
	hash := MessageHash(msg)
	key := thor.Keccak256(hash[:], sig)
	if addr, ok := s.cache.Get(key); ok {
		return addr.(thor.Address), nil
	}

	normalized := append([]byte(nil), sig...)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash[:], normalized)
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "recover signer")
	}
	addr := thor.Address(crypto.PubkeyToAddress(*pub))
	s.cache.Add(key, addr)
	return addr, nil
}

// Stats returns the signer cache counters.
func (s *Signing) Stats() *cache.Stats {
	return s.cache.Stats()
}
