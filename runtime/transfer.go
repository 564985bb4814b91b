// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/vault"
	"github.com/vechain/stakeledger/thor"
)

// Bank moves the reward bearing asset outside the ledger state. Its effects are not undone by
// discarding the overlay, so the runtime compensates them when a call fails.
type Bank interface {
	TransferIn(ctx context.Context, from thor.Address, amount *uint256.Int) error
	TransferOut(ctx context.Context, to thor.Address, amount *uint256.Int) error
}

type transferRecord struct {
	in     bool
	addr   thor.Address
	amount *uint256.Int
}

// recordingTransferrer adapts a Bank to the staker for the duration of one call.
type recordingTransferrer struct {
	ctx     context.Context
	bank    Bank
	records []transferRecord
}

var _ vault.Transferrer = (*recordingTransferrer)(nil)

func (r *recordingTransferrer) TransferIn(from thor.Address, amount *uint256.Int) error {
	if err := r.bank.TransferIn(r.ctx, from, amount); err != nil {
		return err
	}
	r.records = append(r.records, transferRecord{true, from, new(uint256.Int).Set(amount)})
	return nil
}

func (r *recordingTransferrer) TransferOut(to thor.Address, amount *uint256.Int) error {
	if err := r.bank.TransferOut(r.ctx, to, amount); err != nil {
		return err
	}
	r.records = append(r.records, transferRecord{false, to, new(uint256.Int).Set(amount)})
	return nil
}

// compensate reverses the recorded transfers, newest first. It keeps going on failure and
// returns the first error.
func (r *recordingTransferrer) compensate() error {
	ctx := context.WithoutCancel(r.ctx)
	var first error
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		var err error
		if rec.in {
			err = r.bank.TransferOut(ctx, rec.addr, rec.amount)
		} else {
			err = r.bank.TransferIn(ctx, rec.addr, rec.amount)
		}
		if err != nil {
			logger.Error("compensating transfer failed", "in", rec.in, "account", rec.addr, "amount", rec.amount, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	r.records = nil
	return first
}
