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

package fairdraw

import (
	"math/rand"
	"sort"
)

// Draw selects the next batch of k distinct elements from r, least-shown
// first. Elements are grouped by their current count in store (absent
// elements count as zero, entries outside r are ignored), the groups are
// walked in ascending count order, each group is shuffled once with rng, and
// the batch is filled until it holds k elements. A group is therefore only
// ever split by the shuffle at the batch boundary; no element from a higher
// count group is picked while a lower group still has members left.
//
// Draw is pure: store is not modified, and the caller decides whether the
// batch counts as shown by calling store.Apply afterwards. Given the same
// store contents, range, k, and a rng with the same seed and position, Draw
// returns the same batch.
//
// rng must not be nil; use NewRand for a deterministic source or seed one
// with NewSeed. Errors wrap ErrInvalidConfig when k or r is unusable.
func Draw(store *CounterStore, r Range, k int64, rng *rand.Rand) ([]int64, error) {
	if err := (Config{Range: r, BatchSize: k}).Validate(); err != nil {
		return nil, err
	}

	// Group range elements by count. groups preserves ascending element
	// order within each tier so the shuffle alone decides intra-tier order.
	groups := make(map[int64][]int64)
	tiers := make([]int64, 0, 8)
	for _, e := range r.Elements() {
		c := store.Count(e)
		if _, ok := groups[c]; !ok {
			tiers = append(tiers, c)
		}
		groups[c] = append(groups[c], e)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })

	batch := make([]int64, 0, k)
	for _, c := range tiers {
		if int64(len(batch)) == k {
			break
		}
		tier := groups[c]
		rng.Shuffle(len(tier), func(i, j int) { tier[i], tier[j] = tier[j], tier[i] })
		need := k - int64(len(batch))
		if need > int64(len(tier)) {
			need = int64(len(tier))
		}
		batch = append(batch, tier[:need]...)
	}
	return batch, nil
}
