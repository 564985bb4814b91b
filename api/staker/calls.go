// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker/governance"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/cry"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "api-staker")

const (
	// NonceWindow bounds, in seconds, how far a call nonce may be from the ledger clock.
	// Nonces are unix timestamps in milliseconds.
	NonceWindow      uint64 = 5 * 60
	replayCacheSize         = 1 << 16
	maxCallBodyBytes        = 64 * 1024
)

// Call is a signed request to run one ledger method as the signer.
type Call struct {
	Method    string          `json:"method"`
	Args      json.RawMessage `json:"args,omitempty"`
	Nonce     uint64          `json:"nonce"`
	Signature hexutil.Bytes   `json:"signature"`
}

// SigningMessage returns the bytes signed as a personal message: the call without its signature.
func (c *Call) SigningMessage() ([]byte, error) {
	return json.Marshal(&struct {
		Method string          `json:"method"`
		Args   json.RawMessage `json:"args,omitempty"`
		Nonce  uint64          `json:"nonce"`
	}{c.Method, c.Args, c.Nonce})
}

// NewCall builds and signs a call.
func NewCall(method string, args any, nonce uint64, key *ecdsa.PrivateKey) (*Call, error) {
	c := &Call{Method: method, Nonce: nonce}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		c.Args = raw
	}
	msg, err := c.SigningMessage()
	if err != nil {
		return nil, err
	}
	if c.Signature, err = cry.Sign(msg, key); err != nil {
		return nil, err
	}
	return c, nil
}

// CallResult is the response of an accepted call.
type CallResult struct {
	Method string       `json:"method"`
	Caller thor.Address `json:"caller"`
	Result any          `json:"result"`
}

type nonceKey struct {
	signer thor.Address
	nonce  uint64
}

// nonceWindow rejects stale nonces and remembers accepted ones. Entries older than the
// window are useless, so an LRU sized well above the accepted call rate is enough.
type nonceWindow struct {
	seen *cache.LRU
}

func newNonceWindow() *nonceWindow {
	seen, _ := cache.NewLRU(replayCacheSize)
	return &nonceWindow{seen: seen}
}

// accept checks a millisecond nonce against now, the ledger time in seconds.
func (n *nonceWindow) accept(signer thor.Address, nonce, now uint64) error {
	nowMs, window := now*1000, NonceWindow*1000
	if nonce+window < nowMs || nonce > nowMs+window {
		return restutil.BadRequest(fmt.Errorf("nonce %d outside of the %ds window around %d", nonce, NonceWindow, nowMs))
	}
	if !n.seen.AddIfAbsent(nonceKey{signer, nonce}, struct{}{}) {
		return restutil.HTTPError(errors.New("nonce already used"), http.StatusConflict)
	}
	return nil
}

func (s *Staker) handleCall(w http.ResponseWriter, req *http.Request) error {
	var call Call
	if err := restutil.ParseJSON(http.MaxBytesReader(w, req.Body, maxCallBodyBytes), &call); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	handler, ok := callHandlers[call.Method]
	if !ok {
		return restutil.BadRequest(fmt.Errorf("unknown method %q", call.Method))
	}
	msg, err := call.SigningMessage()
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "args"))
	}
	caller, err := s.signing.Signer(msg, call.Signature)
	if err != nil {
		return restutil.Forbidden(errors.WithMessage(err, "signature"))
	}
	if err := s.nonces.accept(caller, call.Nonce, s.rt.Clock().Now()); err != nil {
		return err
	}

	args := []byte(call.Args)
	if len(args) == 0 {
		args = []byte("{}")
	}
	result, err := handler(req.Context(), s, caller, args)
	if err != nil {
		logger.Debug("call rejected", "method", call.Method, "caller", caller, "error", err)
		return err
	}
	if result == nil {
		result = restutil.M{}
	}
	return restutil.WriteJSON(w, &CallResult{Method: call.Method, Caller: caller, Result: result})
}

type callHandler func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error)

// decode parses args strictly into v.
func decode(args []byte, v any) error {
	if err := restutil.ParseJSON(bytes.NewReader(args), v); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "args"))
	}
	return nil
}

func decodeAmount(v *math.HexOrDecimal256, name string) (*uint256.Int, error) {
	u, ok := toUint256(v)
	if !ok {
		return nil, restutil.BadRequest(fmt.Errorf("args.%s: out of range", name))
	}
	return u, nil
}

type (
	openStakeArgs struct {
		Amount      *math.HexOrDecimal256 `json:"amount"`
		Tier        uint8                 `json:"tier"`
		Compounding bool                  `json:"compounding"`
	}
	addressArgs struct {
		Address thor.Address `json:"address"`
	}
	amountArgs struct {
		Amount *math.HexOrDecimal256 `json:"amount"`
	}
	withdrawArgs struct {
		To     thor.Address          `json:"to"`
		Amount *math.HexOrDecimal256 `json:"amount"`
	}
	flagArgs struct {
		Enabled bool `json:"enabled"`
	}
	feeArgs struct {
		Bps uint64 `json:"bps"`
	}
	creditArgs struct {
		Token   thor.Address          `json:"token"`
		Account thor.Address          `json:"account"`
		Amount  *math.HexOrDecimal256 `json:"amount"`
	}
	tierArgs struct {
		ID                 uint8                 `json:"id"`
		MinimumStake       *math.HexOrDecimal256 `json:"minimumStake"`
		RewardRateBps      uint64                `json:"rewardRateBps"`
		LockDuration       uint64                `json:"lockDuration"`
		MaxRewardCap       *math.HexOrDecimal256 `json:"maxRewardCap"`
		CompoundingAllowed bool                  `json:"compoundingAllowed"`
	}
	idArgs struct {
		ID uint64 `json:"id"`
	}
	voteArgs struct {
		ID      uint64 `json:"id"`
		Support bool   `json:"support"`
	}
	proposalArgs struct {
		Hash        *thor.Bytes32 `json:"hash,omitempty"`
		Description string        `json:"description"`
		Target      thor.Address  `json:"target"`
		Payload     hexutil.Bytes `json:"payload"`
	}
	executeArgs struct {
		ID      uint64        `json:"id"`
		Target  thor.Address  `json:"target"`
		Payload hexutil.Bytes `json:"payload"`
	}
	roleArgs struct {
		Role    string       `json:"role"`
		Address thor.Address `json:"address"`
	}
	pauseArgs struct {
		Paused bool `json:"paused"`
	}
)

func (a *tierArgs) params() (*tiers.Params, error) {
	minStake, err := decodeAmount(a.MinimumStake, "minimumStake")
	if err != nil {
		return nil, err
	}
	maxCap, err := decodeAmount(a.MaxRewardCap, "maxRewardCap")
	if err != nil {
		return nil, err
	}
	return &tiers.Params{
		MinimumStake:       minStake,
		RewardRateBps:      a.RewardRateBps,
		LockDuration:       a.LockDuration,
		MaxRewardCap:       maxCap,
		CompoundingAllowed: a.CompoundingAllowed,
	}, nil
}

func noArgs(args []byte) error {
	return decode(args, &struct{}{})
}

var callHandlers = map[string]callHandler{
	"openStake": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a openStakeArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		amt, err := decodeAmount(a.Amount, "amount")
		if err != nil {
			return nil, err
		}
		stake, err := s.rt.OpenStake(ctx, caller, amt, a.Tier, a.Compounding)
		if err != nil {
			return nil, err
		}
		return convertStake(caller, stake, nil), nil
	},
	"claimRewards": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		rewards, err := s.rt.ClaimRewards(ctx, caller)
		if err != nil {
			return nil, err
		}
		return restutil.M{"rewards": amount(rewards)}, nil
	},
	"unstake": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		principal, rewards, err := s.rt.Unstake(ctx, caller)
		if err != nil {
			return nil, err
		}
		return restutil.M{"principal": amount(principal), "rewards": amount(rewards)}, nil
	},
	"setEmergencyShutdown": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a flagArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.SetEmergencyShutdown(ctx, caller, a.Enabled)
	},

	"addToRewardPool": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a amountArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		amt, err := decodeAmount(a.Amount, "amount")
		if err != nil {
			return nil, err
		}
		return nil, s.rt.AddToRewardPool(ctx, caller, amt)
	},
	"withdrawFees": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a withdrawArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		amt, err := decodeAmount(a.Amount, "amount")
		if err != nil {
			return nil, err
		}
		return nil, s.rt.WithdrawFees(ctx, caller, a.To, amt)
	},
	"setFee": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a feeArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.SetFee(ctx, caller, a.Bps)
	},
	"setFeesEnabled": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a flagArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.SetFeesEnabled(ctx, caller, a.Enabled)
	},
	"setTreasuryAddress": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a addressArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.SetTreasuryAddress(ctx, caller, a.Address)
	},
	"whitelistToken": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a addressArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.WhitelistToken(ctx, caller, a.Address)
	},
	"creditToken": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a creditArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		amt, err := decodeAmount(a.Amount, "amount")
		if err != nil {
			return nil, err
		}
		return nil, s.rt.CreditToken(ctx, caller, a.Token, a.Account, amt)
	},

	"createTier": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a tierArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		p, err := a.params()
		if err != nil {
			return nil, err
		}
		return nil, s.rt.CreateTier(ctx, caller, a.ID, p)
	},
	"updateTier": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a tierArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		p, err := a.params()
		if err != nil {
			return nil, err
		}
		return nil, s.rt.UpdateTier(ctx, caller, a.ID, p)
	},
	"deactivateTier": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a idArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		if a.ID > 255 {
			return nil, restutil.BadRequest(errors.New("args.id: out of range"))
		}
		return nil, s.rt.DeactivateTier(ctx, caller, uint8(a.ID))
	},

	"requestRecovery": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a addressArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		r, err := s.rt.RequestRecovery(ctx, caller, a.Address)
		if err != nil {
			return nil, err
		}
		return convertRecovery(caller, r), nil
	},
	"cancelRecoveryRequest": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		return nil, s.rt.CancelRecoveryRequest(ctx, caller)
	},
	"executeRecovery": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a addressArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		newAddress, err := s.rt.ExecuteRecovery(ctx, caller, a.Address)
		if err != nil {
			return nil, err
		}
		return restutil.M{"newAddress": newAddress}, nil
	},

	"createProposal": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a proposalArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		hash := governance.ProposalHash(a.Target, a.Payload)
		if a.Hash != nil {
			hash = *a.Hash
		}
		p, err := s.rt.CreateProposal(ctx, caller, hash, a.Description, a.Target, a.Payload)
		if err != nil {
			return nil, err
		}
		return convertProposal(p, s.rt.Clock().Now()), nil
	},
	"vote": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a voteArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.Vote(ctx, caller, a.ID, a.Support)
	},
	"cancelProposal": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a idArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.CancelProposal(ctx, caller, a.ID)
	},
	"vetoProposal": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a idArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.VetoProposal(ctx, caller, a.ID)
	},
	"executeProposal": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a executeArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.ExecuteProposal(ctx, caller, a.ID, a.Target, a.Payload)
	},

	"grantRole": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a roleArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		role, err := authority.ParseRole(a.Role)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "args.role"))
		}
		return nil, s.rt.GrantRole(ctx, caller, role, a.Address)
	},
	"revokeRole": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a roleArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		role, err := authority.ParseRole(a.Role)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "args.role"))
		}
		return nil, s.rt.RevokeRole(ctx, caller, role, a.Address)
	},
	"setPaused": func(ctx context.Context, s *Staker, caller thor.Address, args []byte) (any, error) {
		var a pauseArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return nil, s.rt.SetPaused(ctx, caller, a.Paused)
	},
}
