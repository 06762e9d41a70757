// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry exposes the service's Prometheus metrics. Collectors are
// registered eagerly on the default registry; if no /metrics endpoint is
// exposed the registration is harmless.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	drawsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchgen_draws_total",
		Help: "Total batches drawn across all sessions",
	})
	elementsDrawnTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchgen_elements_drawn_total",
		Help: "Total elements handed out across all batches",
	})
	drawBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "batchgen_draw_batch_size",
		Help:    "Distribution of batch sizes drawn",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
	})
	snapshotSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batchgen_snapshot_saves_total",
		Help: "Snapshots exported, by kind (quick|full)",
	}, []string{"kind"})
	snapshotLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batchgen_snapshot_loads_total",
		Help: "Snapshots imported successfully, by kind (quick|full)",
	}, []string{"kind"})
	snapshotLoadErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchgen_snapshot_load_errors_total",
		Help: "Snapshot imports rejected as malformed",
	})
	rangeMismatchWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchgen_range_mismatch_warnings_total",
		Help: "Operations that reported stale or missing elements",
	})
	autosavesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchgen_autosaves_total",
		Help: "Background snapshot saves performed by the worker",
	})
	sessionsEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchgen_sessions_evicted_total",
		Help: "Idle sessions dropped from memory",
	})
	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batchgen_sessions_active",
		Help: "Sessions currently held in memory",
	})
)

func init() {
	prometheus.MustRegister(
		drawsTotal, elementsDrawnTotal, drawBatchSize,
		snapshotSavesTotal, snapshotLoadsTotal, snapshotLoadErrorsTotal,
		rangeMismatchWarningsTotal, autosavesTotal, sessionsEvictedTotal,
		sessionsActive,
	)
}

// ObserveDraw records one generated batch.
func ObserveDraw(batchSize int) {
	drawsTotal.Inc()
	elementsDrawnTotal.Add(float64(batchSize))
	drawBatchSize.Observe(float64(batchSize))
}

// ObserveSnapshotSave records one exported snapshot of the given kind.
func ObserveSnapshotSave(kind string) { snapshotSavesTotal.WithLabelValues(kind).Inc() }

// ObserveSnapshotLoad records one successful import of the given kind.
func ObserveSnapshotLoad(kind string) { snapshotLoadsTotal.WithLabelValues(kind).Inc() }

// ObserveSnapshotLoadError records one rejected import.
func ObserveSnapshotLoadError() { snapshotLoadErrorsTotal.Inc() }

// ObserveRangeMismatch records one operation whose validation report was not
// clean.
func ObserveRangeMismatch() { rangeMismatchWarningsTotal.Inc() }

// ObserveAutosave records one background save.
func ObserveAutosave() { autosavesTotal.Inc() }

// ObserveEviction records one evicted session.
func ObserveEviction() { sessionsEvictedTotal.Inc() }

// SetActiveSessions publishes the current live-session count.
func SetActiveSessions(n int) { sessionsActive.Set(float64(n)) }

// Handler returns the /metrics handler for mounting on the API server.
func Handler() http.Handler { return promhttp.Handler() }

// StartEndpoint serves /metrics on its own address for deployments that keep
// scraping off the API port. Errors are ignored; metrics must never take the
// service down.
func StartEndpoint(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		_ = srv.ListenAndServe()
	}()
}
