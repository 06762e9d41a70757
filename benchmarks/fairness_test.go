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

package benchmarks

import (
	"fmt"
	"testing"

	"fairdraw"
	"fairdraw/plugin/exposure"
)

// Long-run correctness at benchmark scale: from a fresh store, counts can
// occupy at most two adjacent tiers after any number of draws, so the spread
// between the most and least shown element never exceeds 1.
func TestLongRunFairnessAtScale(t *testing.T) {
	if testing.Short() {
		t.Skip("long-run fairness test skipped in -short mode")
	}
	cases := []struct {
		n, k   int64
		rounds int
	}{
		{10, 3, 2000},
		{97, 13, 2000},
		{1000, 50, 500},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("N%d_K%d", tc.n, tc.k), func(t *testing.T) {
			r := fairdraw.Range{Start: 1, Count: tc.n}
			store := fairdraw.NewCounterStoreForRange(r)
			rng := fairdraw.NewRand(42)
			for round := 0; round < tc.rounds; round++ {
				batch, err := fairdraw.Draw(store, r, tc.k, rng)
				if err != nil {
					t.Fatal(err)
				}
				store.Apply(batch)
			}
			rep := exposure.FromCounts(store.Counts())
			if !rep.Balanced() {
				t.Fatalf("after %d rounds spread = %d (min=%d max=%d)",
					tc.rounds, rep.Spread, rep.Min, rep.Max)
			}
			wantTotal := int64(tc.rounds) * tc.k
			if rep.Total != wantTotal {
				t.Fatalf("total = %d, want %d", rep.Total, wantTotal)
			}
		})
	}
}
