// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes ledger calls against the committed state. A call locks the
// resources it declares, runs on its own overlay, and either commits the overlay in one batch
// or leaves no trace.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/builtin/vault"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "runtime")

type execKey struct{}

// EventSink persists committed events. Sink failures are logged, the call stays committed.
type EventSink interface {
	WriteEvents(events []*staker.Event) error
}

// Options tune a Runtime.
type Options struct {
	// Bank replaces the state vault for transfers. Nil keeps value inside the ledger state.
	Bank  Bank
	Sinks []EventSink
}

// Runtime serializes conflicting calls and commits each one atomically.
type Runtime struct {
	store *state.Store
	clock xenv.Clock
	bank  Bank
	sinks []EventSink
	locks *lockTable

	commitMu sync.Mutex
	feed     event.Feed
	scope    event.SubscriptionScope
}

// New creates a runtime over the committed store.
func New(store *state.Store, clock xenv.Clock, opts Options) *Runtime {
	return &Runtime{
		store: store,
		clock: clock,
		bank:  opts.Bank,
		sinks: opts.Sinks,
		locks: newLockTable(),
	}
}

// Clock returns the clock calls are stamped with.
func (rt *Runtime) Clock() xenv.Clock {
	return rt.clock
}

// SubscribeEvents delivers the events of every committed call, in commit order.
func (rt *Runtime) SubscribeEvents(ch chan<- []*staker.Event) event.Subscription {
	return rt.scope.Track(rt.feed.Subscribe(ch))
}

// Close ends all event subscriptions.
func (rt *Runtime) Close() {
	rt.scope.Close()
}

// View runs fn on a fresh overlay that is thrown away. No lock is taken.
func (rt *Runtime) View(fn func(s *staker.Staker) error) error {
	st := rt.store.NewState()
	return fn(builtin.Staker.Native(st, nil, nil, rt.clock))
}

// State returns a throwaway overlay of the committed state.
func (rt *Runtime) State() *state.State {
	return rt.store.NewState()
}

// Execute runs fn with the resources of access locked. fn must only touch what access
// declares. Events of the call are returned once it is committed.
func (rt *Runtime) Execute(ctx context.Context, op string, access *Access, fn func(s *staker.Staker) error) ([]*staker.Event, error) {
	return rt.execute(ctx, op, access, func(_ *state.State, s *staker.Staker) error { return fn(s) })
}

func (rt *Runtime) execute(ctx context.Context, op string, access *Access, fn func(st *state.State, s *staker.Staker) error) ([]*staker.Event, error) {
	if ctx.Value(execKey{}) != nil {
		metricCalls().AddWithLabel(1, map[string]string{"op": op, "result": "reentrant"})
		return nil, reverts.ErrReentrant.Withf("%s", op)
	}
	ctx = context.WithValue(ctx, execKey{}, op)

	start := time.Now()
	held, err := rt.locks.acquire(ctx, access)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: acquire locks", op)
	}
	defer held.release()
	metricLockWait().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})

	events, err := rt.run(ctx, fn)
	metricCalls().AddWithLabel(1, map[string]string{"op": op, "result": resultLabel(err)})
	metricDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	return events, err
}

func (rt *Runtime) run(ctx context.Context, fn func(st *state.State, s *staker.Staker) error) ([]*staker.Event, error) {
	st := rt.store.NewState()

	var (
		transfer vault.Transferrer
		recorder *recordingTransferrer
	)
	if rt.bank != nil {
		recorder = &recordingTransferrer{ctx: ctx, bank: rt.bank}
		transfer = recorder
	}
	s := builtin.Staker.Native(st, nil, transfer, rt.clock)

	fail := func(err error) ([]*staker.Event, error) {
		if recorder != nil {
			if cerr := recorder.compensate(); cerr != nil {
				return nil, errors.WithMessagef(err, "compensation failed: %v", cerr)
			}
		}
		return nil, err
	}

	if err := fn(st, s); err != nil {
		return fail(err)
	}
	stage, err := st.Stage()
	if err != nil {
		return fail(err)
	}

	rt.commitMu.Lock()
	defer rt.commitMu.Unlock()
	if err := stage.Commit(); err != nil {
		logger.Error("commit failed", "error", err)
		return fail(err)
	}
	events := s.Events()
	rt.publish(events)
	return events, nil
}

// publish hands committed events to the sinks and subscribers. Called with commitMu held so
// every observer sees commit order.
func (rt *Runtime) publish(events []*staker.Event) {
	if len(events) == 0 {
		return
	}
	for _, sink := range rt.sinks {
		if err := sink.WriteEvents(events); err != nil {
			logger.Warn("failed to persist events", "count", len(events), "error", err)
		}
	}
	rt.feed.Send(events)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return reverts.KindOf(err).String()
}
