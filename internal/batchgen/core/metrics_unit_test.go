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

package core

import "testing"

func TestMetrics_Counters(t *testing.T) {
	resetMetricsForTests()

	RecordDraw(3)
	RecordDraw(2)
	RecordDraw(0) // zero batch size counts the draw, not elements
	RecordRestore()
	RecordAutosave()
	RecordEviction()

	if got := draws.Load(); got != 3 {
		t.Fatalf("draws = %d, want 3", got)
	}
	if got := elementsDrawn.Load(); got != 5 {
		t.Fatalf("elementsDrawn = %d, want 5", got)
	}
	if got := restores.Load(); got != 1 {
		t.Fatalf("restores = %d, want 1", got)
	}
	if got := autosaves.Load(); got != 1 {
		t.Fatalf("autosaves = %d, want 1", got)
	}
	if got := evictions.Load(); got != 1 {
		t.Fatalf("evictions = %d, want 1", got)
	}

	LogFinalMetrics(testLogger()) // must not panic

	resetMetricsForTests()
	if draws.Load() != 0 {
		t.Fatal("reset left counters non-zero")
	}
}
