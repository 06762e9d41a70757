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

// Process-level counters for the end-of-run summary. Atomic so the hot path
// pays no lock; the prometheus collectors in internal/batchgen/telemetry
// serve live scraping, these serve the final log line.
package core

import (
	"log/slog"
	"sync/atomic"
)

var (
	draws         atomic.Int64
	elementsDrawn atomic.Int64
	restores      atomic.Int64
	autosaves     atomic.Int64
	evictions     atomic.Int64
)

// RecordDraw counts one generated batch of the given size.
func RecordDraw(batchSize int64) {
	draws.Add(1)
	if batchSize > 0 {
		elementsDrawn.Add(batchSize)
	}
}

// RecordRestore counts one session resumed from a snapshot.
func RecordRestore() { restores.Add(1) }

// RecordAutosave counts one successful background snapshot save.
func RecordAutosave() { autosaves.Add(1) }

// RecordEviction counts one idle session dropped from memory.
func RecordEviction() { evictions.Add(1) }

// LogFinalMetrics emits the end-of-process summary. Call after the worker has
// stopped so the autosave total is final.
func LogFinalMetrics(log *slog.Logger) {
	log.Info("final counters",
		"draws", draws.Load(),
		"elements_drawn", elementsDrawn.Load(),
		"sessions_restored", restores.Load(),
		"autosaves", autosaves.Load(),
		"sessions_evicted", evictions.Load(),
	)
}

// resetMetricsForTests zeroes the counters. Tests only.
func resetMetricsForTests() {
	draws.Store(0)
	elementsDrawn.Store(0)
	restores.Store(0)
	autosaves.Store(0)
	evictions.Store(0)
}
