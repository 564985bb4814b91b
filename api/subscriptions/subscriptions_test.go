// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

const launchTime = 1_700_000_000

type fixture struct {
	rt   *runtime.Runtime
	subs *Subscriptions
	ts   *httptest.Server
	db   *lvldb.LevelDB
}

// verifyNoLeaks checks for leaked goroutines once every cleanup registered after it has run.
func verifyNoLeaks(t *testing.T) {
	opts := []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("github.com/syndtr/goleveldb/leveldb.(*DB).mpoolDrain"),
	}
	t.Cleanup(func() { goleak.VerifyNone(t, opts...) })
}

func newFixture(t *testing.T, backlog int) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	store := state.NewStore(db, 1)
	_, err = genesis.NewDevnet(launchTime).Apply(store)
	require.NoError(t, err)

	rt := runtime.New(store, xenv.NewManualClock(launchTime+100), runtime.Options{})
	subs := New(rt, nil, backlog)
	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	return &fixture{rt, subs, httptest.NewServer(router), db}
}

func (f *fixture) close() {
	f.subs.Close()
	f.ts.Close()
	f.rt.Close()
	f.db.Close()
}

func (f *fixture) dial(query string) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(f.ts.URL, "http://"), Path: "/subscriptions/event", RawQuery: query}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

func (f *fixture) setFee(t *testing.T, bps uint64) {
	require.NoError(t, f.rt.SetFee(context.Background(), genesis.DevAccounts()[0].Address, bps))
}

func readMessage(t *testing.T, conn *websocket.Conn) *EventMessage {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg EventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestSubscribeEvent(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t, 16)
	defer f.close()

	conn, resp, err := f.dial("")
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	f.setFee(t, 50)
	msg := readMessage(t, conn)
	assert.Equal(t, uint64(1), msg.Pos)
	assert.Equal(t, staker.EventTreasuryFeeUpdated, msg.Name)
	assert.Equal(t, "50", msg.Data["newFee"])

	f.setFee(t, 60)
	msg = readMessage(t, conn)
	assert.Equal(t, uint64(2), msg.Pos)

	// resume from the first event
	replayed, _, err := f.dial("pos=1")
	require.NoError(t, err)
	defer replayed.Close()
	assert.Equal(t, uint64(1), readMessage(t, replayed).Pos)
	assert.Equal(t, uint64(2), readMessage(t, replayed).Pos)
}

func TestSubscribeEventFilter(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t, 16)
	defer f.close()

	admin := genesis.DevAccounts()[0].Address
	conn, _, err := f.dial("name=" + staker.EventFeesToggled + "&account=" + admin.String())
	require.NoError(t, err)
	defer conn.Close()

	f.setFee(t, 50)
	require.NoError(t, f.rt.SetFeesEnabled(context.Background(), admin, false))

	msg := readMessage(t, conn)
	assert.Equal(t, staker.EventFeesToggled, msg.Name)
	assert.Equal(t, uint64(2), msg.Pos)
	assert.Equal(t, admin, msg.Account)
}

func TestSubscribeEventBadRequest(t *testing.T) {
	verifyNoLeaks(t)
	f := newFixture(t, 2)
	defer f.close()

	for _, bps := range []uint64{10, 20, 30} {
		f.setFee(t, bps)
	}
	require.Eventually(t, func() bool { return f.subs.hub.Next() == 4 }, 5*time.Second, 10*time.Millisecond)

	for _, query := range []string{"pos=1", "pos=x", "account=0x01"} {
		_, resp, err := f.dial(query)
		require.Error(t, err, query)
		require.NotNil(t, resp, query)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}

	conn, _, err := f.dial("pos=2")
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, uint64(2), readMessage(t, conn).Pos)
	assert.Equal(t, uint64(3), readMessage(t, conn).Pos)
}

func TestEventHubDropsSlowListener(t *testing.T) {
	hub := newEventHub(nil, 4)
	slow := make(chan *EventMessage)
	_, ok := hub.Subscribe(slow, 0)
	require.True(t, ok)

	done := make(chan struct{})
	hub.mu.Lock()
	hub.broadcast(&EventMessage{Pos: 1, Event: &staker.Event{Name: "x"}}, done)
	hub.mu.Unlock()

	_, open := <-slow
	assert.False(t, open)
	assert.Empty(t, hub.listeners)
}

func TestEventFilterMatch(t *testing.T) {
	alice := thor.BytesToAddress([]byte("alice"))
	ev := &staker.Event{Name: staker.EventStaked, Account: alice}

	assert.True(t, (&EventFilter{}).Match(ev))
	assert.True(t, (&EventFilter{Name: staker.EventStaked, Account: &alice}).Match(ev))
	assert.False(t, (&EventFilter{Name: staker.EventUnstaked}).Match(ev))
	bob := thor.BytesToAddress([]byte("bob"))
	assert.False(t, (&EventFilter{Account: &bob}).Match(ev))
}
