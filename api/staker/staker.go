// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/cry"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

type Staker struct {
	rt      *runtime.Runtime
	signing *cry.Signing
	nonces  *nonceWindow
}

func New(rt *runtime.Runtime) *Staker {
	return &Staker{
		rt:      rt,
		signing: cry.NewSigning(),
		nonces:  newNonceWindow(),
	}
}

func parseAddress(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

func parseUint(req *http.Request, name string, bitSize int) (uint64, error) {
	n, err := strconv.ParseUint(mux.Vars(req)[name], 10, bitSize)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return n, nil
}

func (s *Staker) handleListTiers(w http.ResponseWriter, _ *http.Request) error {
	var out []*Tier
	err := s.rt.View(func(st *staker.Staker) error {
		list, err := st.ListTiers()
		if err != nil {
			return err
		}
		out = make([]*Tier, 0, len(list))
		for _, t := range list {
			out = append(out, convertTier(t))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetTier(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(req, "id", 8)
	if err != nil {
		return err
	}
	var out *Tier
	err = s.rt.View(func(st *staker.Staker) error {
		t, err := st.GetTier(uint8(id))
		if err != nil {
			return err
		}
		if t.IsEmpty() {
			return restutil.NotFound(fmt.Errorf("tier %d not found", id))
		}
		out = convertTier(t)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	account, err := parseAddress(req, "account")
	if err != nil {
		return err
	}
	var out *Stake
	err = s.rt.View(func(st *staker.Staker) error {
		stake, err := st.GetStake(account)
		if err != nil {
			return err
		}
		pending, err := st.CalculateRewards(account)
		if err != nil {
			return err
		}
		out = convertStake(account, stake, pending)
		if out.LastActionTime, err = st.LastActionTime(account); err != nil {
			return err
		}
		if out.Used, err = st.HasBeenUsed(account); err != nil {
			return err
		}
		out.Revoked, err = st.IsRevoked(account)
		return err
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetTreasury(w http.ResponseWriter, _ *http.Request) error {
	var out *Treasury
	err := s.rt.View(func(st *staker.Staker) error {
		info, err := st.TreasuryInfo()
		if err != nil {
			return err
		}
		shutdown, err := st.IsEmergencyShutdown()
		if err != nil {
			return err
		}
		out = convertTreasury(info, shutdown)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetIssuance(w http.ResponseWriter, _ *http.Request) error {
	var out *Issuance
	err := s.rt.View(func(st *staker.Staker) error {
		window, err := st.IssuanceWindow()
		if err != nil {
			return err
		}
		limit, err := st.Params().GetUint256(thor.KeyMaxDailyStake)
		if err != nil {
			return err
		}
		out = &Issuance{
			WindowStart: window.Start,
			Issued:      amount(window.Issued),
			Limit:       amount(limit),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetRecovery(w http.ResponseWriter, req *http.Request) error {
	account, err := parseAddress(req, "account")
	if err != nil {
		return err
	}
	var out *Recovery
	err = s.rt.View(func(st *staker.Staker) error {
		r, err := st.GetRecoveryRequest(account)
		if err != nil {
			return err
		}
		if r == nil || !r.Pending {
			return restutil.NotFound(fmt.Errorf("no pending recovery for %v", account))
		}
		out = convertRecovery(account, r)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetProposal(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(req, "id", 64)
	if err != nil {
		return err
	}
	var out *Proposal
	err = s.rt.View(func(st *staker.Staker) error {
		p, err := st.GetProposal(id)
		if err != nil {
			return err
		}
		if p == nil {
			return restutil.NotFound(fmt.Errorf("proposal %d not found", id))
		}
		out = convertProposal(p, s.rt.Clock().Now())
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetVote(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(req, "id", 64)
	if err != nil {
		return err
	}
	account, err := parseAddress(req, "account")
	if err != nil {
		return err
	}
	out := &Vote{ProposalID: id, Account: account}
	err = s.rt.View(func(st *staker.Staker) (err error) {
		out.Voted, err = st.HasVoted(id, account)
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) handleGetTokenBalance(w http.ResponseWriter, req *http.Request) error {
	token, err := parseAddress(req, "token")
	if err != nil {
		return err
	}
	account, err := parseAddress(req, "account")
	if err != nil {
		return err
	}
	out := &TokenBalance{Token: token, Account: account}
	err = s.rt.View(func(st *staker.Staker) error {
		bal, err := st.TokenBalance(token, account)
		if err != nil {
			return err
		}
		out.Balance = amount(bal)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staker) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/tiers").
		Methods(http.MethodGet).
		Name("GET /staker/tiers").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleListTiers))
	sub.Path("/tiers/{id}").
		Methods(http.MethodGet).
		Name("GET /staker/tiers/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetTier))
	sub.Path("/stakes/{account}").
		Methods(http.MethodGet).
		Name("GET /staker/stakes/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/treasury").
		Methods(http.MethodGet).
		Name("GET /staker/treasury").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetTreasury))
	sub.Path("/issuance").
		Methods(http.MethodGet).
		Name("GET /staker/issuance").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetIssuance))
	sub.Path("/recoveries/{account}").
		Methods(http.MethodGet).
		Name("GET /staker/recoveries/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetRecovery))
	sub.Path("/proposals/{id}").
		Methods(http.MethodGet).
		Name("GET /staker/proposals/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetProposal))
	sub.Path("/proposals/{id}/voters/{account}").
		Methods(http.MethodGet).
		Name("GET /staker/proposals/{id}/voters/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetVote))
	sub.Path("/tokens/{token}/{account}").
		Methods(http.MethodGet).
		Name("GET /staker/tokens/{token}/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetTokenBalance))
	sub.Path("/calls").
		Methods(http.MethodPost).
		Name("POST /staker/calls").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleCall))
}
