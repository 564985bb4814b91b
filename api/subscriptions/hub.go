// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/runtime"
)

// eventHub fans committed events out to websocket listeners and keeps the latest ones for
// replay.
type eventHub struct {
	rt        *runtime.Runtime
	listeners map[chan *EventMessage]struct{}
	mu        sync.RWMutex
	backlog   *cache.LRU
	next      uint64 // pos of the next event
}

func newEventHub(rt *runtime.Runtime, backlogSize int) *eventHub {
	if backlogSize < 1 {
		backlogSize = 1
	}
	backlog, _ := cache.NewLRU(backlogSize)
	return &eventHub{
		rt:        rt,
		listeners: make(map[chan *EventMessage]struct{}),
		backlog:   backlog,
		next:      1,
	}
}

// Subscribe registers ch and returns the messages from pos that are still in the backlog.
// ok is false when pos is older than the backlog. A zero pos replays nothing.
func (h *eventHub) Subscribe(ch chan *EventMessage, pos uint64) (replay []*EventMessage, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if pos != 0 && pos < h.next {
		if _, found := h.backlog.Peek(pos); !found {
			return nil, false
		}
		for p := pos; p < h.next; p++ {
			if msg, found := h.backlog.Peek(p); found {
				replay = append(replay, msg.(*EventMessage))
			}
		}
	}
	h.listeners[ch] = struct{}{}
	return replay, true
}

func (h *eventHub) Unsubscribe(ch chan *EventMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.listeners, ch)
}

// Next returns the pos the next committed event gets.
func (h *eventHub) Next() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.next
}

// Start subscribes to committed events before returning, so no commit made after Start
// is missed, and dispatches them until done is closed.
func (h *eventHub) Start(goes *co.Goes, done <-chan struct{}) {
	evCh := make(chan []*staker.Event, 16)
	sub := h.rt.SubscribeEvents(evCh)
	goes.Go(func() { h.dispatchLoop(evCh, sub, done) })
}

func (h *eventHub) dispatchLoop(evCh <-chan []*staker.Event, sub event.Subscription, done <-chan struct{}) {
	defer sub.Unsubscribe()

	for {
		select {
		case events := <-evCh:
			h.mu.Lock()
			for _, ev := range events {
				msg := &EventMessage{Pos: h.next, Event: ev}
				h.next++
				h.backlog.Add(msg.Pos, msg)
				h.broadcast(msg, done)
			}
			h.mu.Unlock()
		case <-sub.Err():
			return
		case <-done:
			return
		}
	}
}

func (h *eventHub) broadcast(msg *EventMessage, done <-chan struct{}) {
	for lsn := range h.listeners {
		select {
		case lsn <- msg:
		case <-done:
			return
		default: // a slow listener misses the message and is closed by its writer
			close(lsn)
			delete(h.listeners, lsn)
		}
	}
}
