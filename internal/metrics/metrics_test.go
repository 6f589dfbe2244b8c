// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveIngest_IncrementsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveIngest("success", "remote", 1.5)

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !containsMetric(mf, "gitingest_ingests_total") {
		t.Error("expected gitingest_ingests_total to be registered")
	}
	if !containsMetric(mf, "gitingest_ingest_duration_seconds") {
		t.Error("expected gitingest_ingest_duration_seconds to be registered")
	}
}

func TestObserveCacheLookup_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCacheLookup("hit")

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !containsMetric(mf, "gitingest_cache_lookups_total") {
		t.Error("expected gitingest_cache_lookups_total to be registered")
	}
}

func TestMetrics_NilReceiverIsNoOp(t *testing.T) {
	var m *Metrics
	m.ObserveIngest("success", "remote", 1.0) // must not panic
	m.ObserveCacheLookup("hit")               // must not panic
}

func containsMetric(families []*dto.MetricFamily, name string) bool {
	for _, f := range families {
		if f.GetName() == name {
			return true
		}
	}
	return false
}
