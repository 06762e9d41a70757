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
	"errors"
	"reflect"
	"testing"
)

// TestConfig_Validate covers the configuration invariants: the range must
// hold at least one element and the batch size must fall in [1, range size].
// Every rejection must classify as ErrInvalidConfig.
func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Valid", Config{Range: Range{Start: 1, Count: 10}, BatchSize: 3}, false},
		{"BatchFillsRange", Config{Range: Range{Start: 1, Count: 5}, BatchSize: 5}, false},
		{"NegativeStartOK", Config{Range: Range{Start: -7, Count: 3}, BatchSize: 1}, false},
		{"EmptyRange", Config{Range: Range{Start: 1, Count: 0}, BatchSize: 1}, true},
		{"NegativeCount", Config{Range: Range{Start: 1, Count: -4}, BatchSize: 1}, true},
		{"ZeroBatch", Config{Range: Range{Start: 1, Count: 5}, BatchSize: 0}, true},
		{"NegativeBatch", Config{Range: Range{Start: 1, Count: 5}, BatchSize: -2}, true},
		{"BatchExceedsRange", Config{Range: Range{Start: 1, Count: 5}, BatchSize: 6}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

// TestRange_Membership checks the element enumeration and bounds helpers that
// everything else leans on.
func TestRange_Membership(t *testing.T) {
	r := Range{Start: 3, Count: 4} // {3,4,5,6}

	want := []int64{3, 4, 5, 6}
	if got := r.Elements(); !reflect.DeepEqual(got, want) {
		t.Errorf("Elements() = %v, want %v", got, want)
	}
	if r.End() != 7 {
		t.Errorf("End() = %d, want 7", r.End())
	}
	for _, e := range want {
		if !r.Contains(e) {
			t.Errorf("Contains(%d) = false, want true", e)
		}
	}
	for _, e := range []int64{2, 7, -1} {
		if r.Contains(e) {
			t.Errorf("Contains(%d) = true, want false", e)
		}
	}
	if got := (Range{Start: 1, Count: 0}).Elements(); got != nil {
		t.Errorf("Elements() on empty range = %v, want nil", got)
	}
}

// TestCounterStore_Basics validates the counting primitives:
//   - NewCounterStoreForRange seeds an explicit zero per element.
//   - Count treats absent elements as zero rather than an error.
//   - Apply adds exactly one appearance per batch member and leaves every
//     other entry untouched.
func TestCounterStore_Basics(t *testing.T) {
	t.Run("InitializeForRange", func(t *testing.T) {
		s := NewCounterStoreForRange(Range{Start: 1, Count: 5})
		if s.Len() != 5 {
			t.Fatalf("Len() = %d, want 5", s.Len())
		}
		for e := int64(1); e <= 5; e++ {
			if c := s.Count(e); c != 0 {
				t.Errorf("Count(%d) = %d, want 0", e, c)
			}
		}
		if s.Total() != 0 {
			t.Errorf("Total() = %d, want 0", s.Total())
		}
	})

	t.Run("AbsentCountsAsZero", func(t *testing.T) {
		s := NewCounterStore()
		if c := s.Count(42); c != 0 {
			t.Fatalf("Count(42) on empty store = %d, want 0", c)
		}
		if s.Len() != 0 {
			t.Fatalf("Len() = %d, want 0 (lookup must not create entries)", s.Len())
		}
	})

	t.Run("ApplyIncrements", func(t *testing.T) {
		s := NewCounterStoreForRange(Range{Start: 1, Count: 5})
		s.Apply([]int64{2, 4})
		s.Apply([]int64{2, 5})

		wantCounts := map[int64]int64{1: 0, 2: 2, 3: 0, 4: 1, 5: 1}
		for e, want := range wantCounts {
			if got := s.Count(e); got != want {
				t.Errorf("Count(%d) = %d, want %d", e, got, want)
			}
		}
		if s.Total() != 4 {
			t.Errorf("Total() = %d, want 4", s.Total())
		}
	})

	t.Run("ApplyCreatesMissingEntries", func(t *testing.T) {
		s := NewCounterStore()
		s.Apply([]int64{7})
		if c := s.Count(7); c != 1 {
			t.Fatalf("Count(7) = %d, want 1", c)
		}
	})
}

// TestCounterStore_Counts verifies the rendered snapshot is ascending by
// element regardless of insertion order.
func TestCounterStore_Counts(t *testing.T) {
	s := NewCounterStore()
	s.Apply([]int64{10, 2, 7, 2})

	want := []ElementCount{{2, 2}, {7, 1}, {10, 1}}
	if got := s.Counts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Counts() = %v, want %v", got, want)
	}
}

// TestCounterStore_ValidateAndClean walks the range-change workflow: counts
// accumulated under one range are checked against a shifted range, the
// mismatch report names stale and missing elements, and only an explicit
// clean removes the stale entries. Cleaning twice changes nothing more.
func TestCounterStore_ValidateAndClean(t *testing.T) {
	s := NewCounterStoreForRange(Range{Start: 1, Count: 5})
	s.Apply([]int64{1, 2, 3})

	// Shift the range to {3..7}: 1 and 2 become stale, 6 and 7 are missing.
	shifted := Range{Start: 3, Count: 5}

	rep := s.Validate(shifted)
	if want := []int64{1, 2}; !reflect.DeepEqual(rep.Stale, want) {
		t.Errorf("Validate() stale = %v, want %v", rep.Stale, want)
	}
	if want := []int64{6, 7}; !reflect.DeepEqual(rep.Missing, want) {
		t.Errorf("Validate() missing = %v, want %v", rep.Missing, want)
	}
	if rep.OK() {
		t.Error("Report.OK() = true, want false")
	}

	// Validation must not mutate.
	if s.Len() != 5 {
		t.Fatalf("Len() after Validate = %d, want 5", s.Len())
	}

	removed := s.Clean(shifted)
	if want := []int64{1, 2}; !reflect.DeepEqual(removed, want) {
		t.Errorf("Clean() removed %v, want %v", removed, want)
	}
	if s.Len() != 3 {
		t.Errorf("Len() after Clean = %d, want 3", s.Len())
	}
	if c := s.Count(3); c != 1 {
		t.Errorf("Count(3) after Clean = %d, want 1 (in-range counts preserved)", c)
	}

	// Idempotent: a second clean removes nothing.
	if removed := s.Clean(shifted); len(removed) != 0 {
		t.Errorf("second Clean() removed %v, want nothing", removed)
	}

	// After cleaning, validation reports no stale entries and only the
	// genuinely absent elements as missing.
	rep = s.Validate(shifted)
	if len(rep.Stale) != 0 {
		t.Errorf("Validate() after Clean stale = %v, want none", rep.Stale)
	}
	if want := []int64{6, 7}; !reflect.DeepEqual(rep.Missing, want) {
		t.Errorf("Validate() after Clean missing = %v, want %v", rep.Missing, want)
	}

	// Clean never fills in missing elements.
	if _, ok := s.counts[6]; ok {
		t.Error("Clean() created an entry for a missing element")
	}
}

// TestCounterStore_Clone checks that clones do not share state.
func TestCounterStore_Clone(t *testing.T) {
	s := NewCounterStore()
	s.Apply([]int64{1, 2})

	dup := s.Clone()
	dup.Apply([]int64{1})

	if got := s.Count(1); got != 1 {
		t.Errorf("original Count(1) = %d, want 1 (clone must not alias)", got)
	}
	if got := dup.Count(1); got != 2 {
		t.Errorf("clone Count(1) = %d, want 2", got)
	}
}
