// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes gitingestd's Prometheus instrumentation,
// served from /metrics via promhttp the same way the CLI's optional
// metrics endpoint does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the counters and histograms gitingestd records for
// every ingest request handled through pkg/ingest.
type Metrics struct {
	IngestsTotal      *prometheus.CounterVec
	IngestDuration    *prometheus.HistogramVec
	CacheLookupsTotal *prometheus.CounterVec
	CloneDuration     prometheus.Histogram
	RateLimitedTotal  prometheus.Counter
}

// New registers gitingestd's metrics against reg and returns the handle
// used to record them. Pass prometheus.DefaultRegisterer to expose them
// on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		IngestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitingest",
			Name:      "ingests_total",
			Help:      "Total number of ingest requests, labeled by outcome.",
		}, []string{"outcome"}),

		IngestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gitingest",
			Name:      "ingest_duration_seconds",
			Help:      "Wall-clock duration of a full ingest, labeled by source kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source_kind"}),

		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitingest",
			Name:      "cache_lookups_total",
			Help:      "Digest cache lookups, labeled by result (hit, miss, disabled).",
		}, []string{"result"}),

		CloneDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gitingest",
			Name:      "clone_duration_seconds",
			Help:      "Duration of the scoped git clone step.",
			Buckets:   prometheus.DefBuckets,
		}),

		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gitingest",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
}

// ObserveIngest records the outcome and duration of a completed ingest.
func (m *Metrics) ObserveIngest(outcome, sourceKind string, seconds float64) {
	if m == nil {
		return
	}
	m.IngestsTotal.WithLabelValues(outcome).Inc()
	m.IngestDuration.WithLabelValues(sourceKind).Observe(seconds)
}

// ObserveCacheLookup records a single cache Head/Get outcome.
func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}
