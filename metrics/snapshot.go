// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "github.com/prometheus/client_golang/prometheus"

// snapshotCollector turns a SnapshotFunc into gauges computed at scrape time.
// Its sample set is not known up front, so it registers as an unchecked collector.
type snapshotCollector struct {
	subsystem string
	fn        SnapshotFunc
}

func (c *snapshotCollector) Describe(chan<- *prometheus.Desc) {}

func (c *snapshotCollector) Collect(ch chan<- prometheus.Metric) {
	samples, err := c.fn()
	if err != nil {
		logger.Warn("failed to take snapshot", "subsystem", c.subsystem, "err", err)
		return
	}
	for _, s := range samples {
		desc := prometheus.NewDesc(prometheus.BuildFQName(namespace, c.subsystem, s.Name), s.Help, nil, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, s.Value)
		if err != nil {
			logger.Warn("invalid snapshot sample", "name", s.Name, "err", err)
			continue
		}
		ch <- m
	}
}
