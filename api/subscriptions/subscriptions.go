// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams committed ledger events over websocket.
package subscriptions

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 7) / 10
	listenerBuffer = 64
)

type Subscriptions struct {
	hub      *eventHub
	upgrader *websocket.Upgrader
	done     chan struct{}
	goes     co.Goes
}

func New(rt *runtime.Runtime, allowedOrigins []string, backlogSize int) *Subscriptions {
	s := &Subscriptions{
		hub:  newEventHub(rt, backlogSize),
		done: make(chan struct{}),
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
	}
	s.hub.Start(&s.goes, s.done)
	return s
}

func parseFilter(req *http.Request) (pos uint64, filter *EventFilter, err error) {
	query := req.URL.Query()
	if v := query.Get("pos"); v != "" {
		if pos, err = strconv.ParseUint(v, 10, 64); err != nil {
			return 0, nil, restutil.BadRequest(errors.WithMessage(err, "pos"))
		}
	}
	filter = &EventFilter{Name: query.Get("name")}
	if v := query.Get("account"); v != "" {
		addr, err := thor.ParseAddress(v)
		if err != nil {
			return 0, nil, restutil.BadRequest(errors.WithMessage(err, "account"))
		}
		filter.Account = addr
	}
	return pos, filter, nil
}

func (s *Subscriptions) handleSubscribeEvent(w http.ResponseWriter, req *http.Request) error {
	pos, filter, err := parseFilter(req)
	if err != nil {
		return err
	}

	ch := make(chan *EventMessage, listenerBuffer)
	replay, ok := s.hub.Subscribe(ch, pos)
	if !ok {
		return restutil.BadRequest(fmt.Errorf("pos %d is out of the backlog", pos))
	}
	defer s.hub.Unsubscribe(ch)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already answered
		logger.Debug("upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()

	id := uuid.New()
	logger.Debug("subscription opened", "id", id, "pos", pos, "name", filter.Name)
	defer logger.Debug("subscription closed", "id", id)

	closed := make(chan struct{})
	s.goes.Go(func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	if err := s.pipe(conn, filter, replay, ch, closed); err != nil {
		logger.Debug("subscription write failed", "id", id, "error", err)
	}
	return nil
}

func (s *Subscriptions) pipe(
	conn *websocket.Conn,
	filter *EventFilter,
	replay []*EventMessage,
	ch chan *EventMessage,
	closed <-chan struct{},
) error {
	write := func(msg *EventMessage) error {
		if !filter.Match(msg.Event) {
			return nil
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}
	closeWith := func(code int, text string) error {
		return conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	}

	for _, msg := range replay {
		if err := write(msg); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return closeWith(websocket.ClosePolicyViolation, "subscriber too slow")
			}
			if err := write(msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-s.done:
			return closeWith(websocket.CloseGoingAway, "server shutdown")
		}
	}
}

// Close stops dispatching and waits for the open streams to end.
func (s *Subscriptions) Close() {
	close(s.done)
	s.goes.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvent))
}
