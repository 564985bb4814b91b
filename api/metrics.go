// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/metrics"
)

var (
	metricHTTPReqCounter       = metrics.LazyLoadCounterVec("api_request_count", []string{"name", "code", "method"})
	metricHTTPReqDuration      = metrics.LazyLoadHistogramVec("api_duration_ms", []string{"name", "code", "method"}, metrics.BucketHTTPReqs)
	metricActiveWebsocketCount = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
)

// routeLabel turns a route name like "GET /staker/tiers/{id}" into "get_staker_tiers_id".
func routeLabel(name string) string {
	var b strings.Builder
	underscore := false
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
			underscore = false
		} else if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// metricsMiddleware records count and duration per route. Websocket routes are tracked by
// the number of open connections instead.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			name    = "unknown"
			subject string
		)
		if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
			rt := route.GetName()
			if strings.HasPrefix(rt, "WS ") {
				subject = rt[strings.LastIndex(rt, "/")+1:]
			}
			name = routeLabel(rt)
		}

		if subject != "" {
			labels := map[string]string{"subject": subject}
			metricActiveWebsocketCount().AddWithLabel(1, labels)
			defer metricActiveWebsocketCount().AddWithLabel(-1, labels)
			next.ServeHTTP(w, r)
			return
		}

		m := httpsnoop.CaptureMetrics(next, w, r)
		labels := map[string]string{"name": name, "code": strconv.Itoa(m.Code), "method": r.Method}
		metricHTTPReqCounter().AddWithLabel(1, labels)
		metricHTTPReqDuration().ObserveWithLabels(m.Duration.Milliseconds(), labels)
	})
}
