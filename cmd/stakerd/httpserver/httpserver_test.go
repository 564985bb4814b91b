// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vechain/stakeledger/api/admin/health"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

// verifyNoLeaks checks for leaked goroutines once every cleanup registered after it has run.
func verifyNoLeaks(t *testing.T) {
	opts := []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("github.com/syndtr/goleveldb/leveldb.(*DB).mpoolDrain"),
	}
	t.Cleanup(func() { goleak.VerifyNone(t, opts...) })
}

func TestAPIServerBodyLimit(t *testing.T) {
	verifyNoLeaks(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	url, closeFunc, err := StartAPIServer("localhost:0", handler)
	require.NoError(t, err)
	defer closeFunc()

	res, err := http.Post(url, "text/plain", bytes.NewReader(make([]byte, maxRequestBody))) //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Post(url, "text/plain", bytes.NewReader(make([]byte, maxRequestBody+1))) //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode)
}

func TestAdminServer(t *testing.T) {
	verifyNoLeaks(t)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store := state.NewStore(db, 1)
	gene := genesis.NewDevnet(1_700_000_000)
	_, err = gene.Apply(store)
	require.NoError(t, err)

	rt := runtime.New(store, xenv.NewManualClock(1_700_000_100), runtime.Options{})
	defer rt.Close()
	h := health.New(store, rt, gene.ID())
	defer h.Close()

	var (
		level   slog.LevelVar
		apiLogs atomic.Bool
	)
	url, closeFunc, err := StartAdminServer("localhost:0", &level, h, &apiLogs)
	require.NoError(t, err)
	defer closeFunc()
	assert.True(t, strings.HasSuffix(url, "/admin"))

	res, err := http.Get(url + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestMetricsServer(t *testing.T) {
	verifyNoLeaks(t)

	metrics.InitializePrometheusMetrics()

	url, closeFunc, err := StartMetricsServer("localhost:0")
	require.NoError(t, err)
	defer closeFunc()

	res, err := http.Get(url)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
