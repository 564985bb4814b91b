// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	proposer = thor.BytesToAddress([]byte("proposer"))
	alice    = thor.BytesToAddress([]byte("alice"))
	bob      = thor.BytesToAddress([]byte("bob"))
	target   = thor.BytesToAddress([]byte("Treasury"))
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(thor.BytesToAddress([]byte("governance")), state.NewStore(db, 1).NewState()))
}

func feePayload(t *testing.T, bps int64) []byte {
	payload, err := (&Action{Op: OpSetFee, Value: big.NewInt(bps)}).Encode()
	require.NoError(t, err)
	return payload
}

func createProposal(t *testing.T, svc *Service, payload []byte) *Proposal {
	p, err := svc.Create(proposer, ProposalHash(target, payload), "lower fee", target, payload, 1000, 1200)
	require.NoError(t, err)
	return p
}

func TestCreateNumbersFromOne(t *testing.T) {
	svc := newSvc(t)
	payload := feePayload(t, 50)

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	p1 := createProposal(t, svc, payload)
	p2 := createProposal(t, svc, payload)
	assert.Equal(t, uint64(1), p1.ID)
	assert.Equal(t, uint64(2), p2.ID)

	got, err := svc.Get(1)
	require.NoError(t, err)
	assert.Equal(t, p1, got)

	_, err = svc.GetExisting(3)
	assert.ErrorIs(t, err, reverts.ErrProposalNotFound)
}

func TestVoteWindow(t *testing.T) {
	svc := newSvc(t)
	p := createProposal(t, svc, feePayload(t, 50))

	_, err := svc.Vote(p.ID, alice, true, uint256.NewInt(10), p.VotingEnds)
	assert.ErrorIs(t, err, reverts.ErrVotingClosed)

	got, err := svc.Vote(p.ID, alice, true, uint256.NewInt(10), p.VotingEnds-1)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(10), got.VotesFor)
	assert.Equal(t, uint256.NewInt(10), got.TotalVotes)

	_, err = svc.Vote(p.ID, alice, false, uint256.NewInt(10), p.VotingEnds-1)
	assert.ErrorIs(t, err, reverts.ErrAlreadyVoted)

	got, err = svc.Vote(p.ID, bob, false, uint256.NewInt(4), 0)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(4), got.VotesAgainst)
	assert.Equal(t, uint256.NewInt(14), got.TotalVotes)

	voted, err := svc.HasVoted(p.ID, bob)
	require.NoError(t, err)
	assert.True(t, voted)
	voted, err = svc.HasVoted(p.ID, proposer)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestMigrateVotes(t *testing.T) {
	svc := newSvc(t)
	open := createProposal(t, svc, feePayload(t, 50))
	cancelled := createProposal(t, svc, feePayload(t, 60))
	untouched := createProposal(t, svc, feePayload(t, 70))

	for _, id := range []uint64{open.ID, cancelled.ID} {
		_, err := svc.Vote(id, alice, true, uint256.NewInt(10), 500)
		require.NoError(t, err)
	}
	_, err := svc.Cancel(cancelled.ID, 500)
	require.NoError(t, err)

	require.NoError(t, svc.MigrateVotes(alice, bob, 600))

	for id, want := range map[uint64]bool{open.ID: true, cancelled.ID: false, untouched.ID: false} {
		voted, err := svc.HasVoted(id, bob)
		require.NoError(t, err)
		assert.Equal(t, want, voted, "proposal %d", id)
	}
	_, err = svc.Vote(open.ID, bob, false, uint256.NewInt(10), 600)
	assert.ErrorIs(t, err, reverts.ErrAlreadyVoted)
}

func TestCancelAndVeto(t *testing.T) {
	svc := newSvc(t)
	payload := feePayload(t, 50)

	p := createProposal(t, svc, payload)
	_, err := svc.Cancel(p.ID, p.VotingEnds)
	assert.ErrorIs(t, err, reverts.ErrVotingClosed)
	_, err = svc.Cancel(p.ID, 10)
	require.NoError(t, err)
	_, err = svc.Cancel(p.ID, 10)
	assert.ErrorIs(t, err, reverts.ErrProposalCancelled)
	_, err = svc.Vote(p.ID, alice, true, uint256.NewInt(1), 10)
	assert.ErrorIs(t, err, reverts.ErrProposalCancelled)

	v := createProposal(t, svc, payload)
	// veto is allowed after voting ends
	_, err = svc.Veto(v.ID)
	require.NoError(t, err)
	_, err = svc.Veto(v.ID)
	assert.ErrorIs(t, err, reverts.ErrProposalVetoed)
	_, err = svc.CheckExecutable(v.ID, target, payload, new(uint256.Int), v.ExecutionTime)
	assert.ErrorIs(t, err, reverts.ErrProposalVetoed)

	got, err := svc.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVetoed, got.Status(0))
}

func TestCheckExecutable(t *testing.T) {
	svc := newSvc(t)
	payload := feePayload(t, 50)
	quorum := uint256.NewInt(10)

	p := createProposal(t, svc, payload)
	_, err := svc.Vote(p.ID, alice, true, uint256.NewInt(6), 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		target  thor.Address
		payload []byte
		now     uint64
		want    error
	}{
		{"mismatched payload", target, feePayload(t, 51), p.ExecutionTime, reverts.ErrProposalMismatch},
		{"mismatched target", alice, payload, p.ExecutionTime, reverts.ErrProposalMismatch},
		{"voting open", target, payload, p.VotingEnds - 1, reverts.ErrVotingOpen},
		{"delay not elapsed", target, payload, p.ExecutionTime - 1, reverts.ErrDelayNotElapsed},
		{"quorum not reached", target, payload, p.ExecutionTime, reverts.ErrQuorumNotReached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CheckExecutable(p.ID, tt.target, tt.payload, quorum, tt.now)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = svc.Vote(p.ID, bob, false, uint256.NewInt(6), 2)
	require.NoError(t, err)
	_, err = svc.CheckExecutable(p.ID, target, payload, quorum, p.ExecutionTime)
	assert.ErrorIs(t, err, reverts.ErrProposalRejected, "a tie is rejected")

	q := createProposal(t, svc, payload)
	_, err = svc.Vote(q.ID, alice, true, uint256.NewInt(10), 1)
	require.NoError(t, err)
	got, err := svc.CheckExecutable(q.ID, target, payload, quorum, q.ExecutionTime)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status(q.ExecutionTime))

	require.NoError(t, svc.MarkExecuted(got))
	_, err = svc.CheckExecutable(q.ID, target, payload, quorum, q.ExecutionTime)
	assert.ErrorIs(t, err, reverts.ErrAlreadyExecuted)
	_, err = svc.Veto(q.ID)
	assert.ErrorIs(t, err, reverts.ErrAlreadyExecuted)
}
