// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/vechain/stakeledger/metrics"

var (
	metricCalls    = metrics.LazyLoadCounterVec("runtime_calls_count", []string{"op", "result"})
	metricDuration = metrics.LazyLoadHistogramVec("runtime_call_duration_ms", []string{"op"}, metrics.Bucket10s)
	metricLockWait = metrics.LazyLoadHistogramVec("runtime_lock_wait_ms", []string{"op"}, metrics.BucketLockWait)
)
