// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package recovery stores pending lost-key recovery requests.
package recovery

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var slotRequests = thor.BytesToBytes32([]byte("recovery-requests"))

// Request is a pending migration of an account to a new key.
type Request struct {
	NewAddress    thor.Address
	RequestTime   uint64
	Pending       bool
	RequestHash   thor.Bytes32
	SecurityDelay uint64
}

// ReadyAt returns the earliest execution time. A sum past uint64 reads as never.
func (r *Request) ReadyAt() uint64 {
	at, ok := thor.AddTime(r.RequestTime, r.SecurityDelay)
	if !ok {
		return math.MaxUint64
	}
	return at
}

// RequestHash binds the old and new address to the request time.
func RequestHash(old, newAddress thor.Address, requestTime uint64) thor.Bytes32 {
	return thor.Keccak256(old.Bytes(), newAddress.Bytes(), thor.Uint64ToBytes32(requestTime).Bytes())
}

type Service struct {
	requests *solidity.Mapping[thor.Address, *Request]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		requests: solidity.NewMapping[thor.Address, *Request](sctx, slotRequests),
	}
}

// Get returns the request of account, nil if there is none.
func (s *Service) Get(account thor.Address) (*Request, error) {
	req, err := s.requests.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recovery request")
	}
	return req, nil
}

// Create stores a pending request for account.
func (s *Service) Create(account, newAddress thor.Address, now, delay uint64) (*Request, error) {
	req := &Request{
		NewAddress:    newAddress,
		RequestTime:   now,
		Pending:       true,
		RequestHash:   RequestHash(account, newAddress, now),
		SecurityDelay: delay,
	}
	if err := s.requests.Set(account, req); err != nil {
		return nil, errors.Wrap(err, "failed to set recovery request")
	}
	return req, nil
}

// Delete removes the request of account.
func (s *Service) Delete(account thor.Address) {
	s.requests.Delete(account)
}
