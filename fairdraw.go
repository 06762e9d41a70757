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

// Package fairdraw implements fair batch selection over a contiguous range of
// integer elements. A CounterStore records how many times each element has
// appeared in past batches; Draw picks the next batch so that the least-shown
// elements always go first, keeping exposure balanced over long sessions.
//
// The package is purely computational: no goroutines, no locks, no I/O. A
// CounterStore belongs to a single session and callers that share one across
// goroutines must serialize access themselves.
package fairdraw

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors. Every failure returned by this package wraps one of these,
// so callers can classify with errors.Is.
var (
	// ErrInvalidConfig reports an unusable range or batch size.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedSnapshot reports snapshot data that cannot be restored:
	// unparseable JSON, non-integer or negative counts, or saved settings
	// that fail validation.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// Range is the contiguous element set {Start .. Start+Count-1}, inclusive on
// both ends. Count must be at least 1 for the range to be usable.
type Range struct {
	Start int64
	Count int64
}

// Validate reports whether the range is usable. Errors wrap ErrInvalidConfig.
func (r Range) Validate() error {
	if r.Count < 1 {
		return fmt.Errorf("%w: range size %d, must be at least 1", ErrInvalidConfig, r.Count)
	}
	return nil
}

// End returns the exclusive upper bound, Start+Count.
func (r Range) End() int64 { return r.Start + r.Count }

// Contains reports whether e falls inside the range.
func (r Range) Contains(e int64) bool { return e >= r.Start && e < r.End() }

// Elements returns the range members in ascending order. An invalid range
// yields nil.
func (r Range) Elements() []int64 {
	if r.Count < 1 {
		return nil
	}
	out := make([]int64, r.Count)
	for i := range out {
		out[i] = r.Start + int64(i)
	}
	return out
}

// Config pairs a range with the batch size drawn from it.
type Config struct {
	Range     Range
	BatchSize int64
}

// DefaultConfig returns the starting configuration for a fresh session:
// elements 1..10, batches of 3.
func DefaultConfig() Config {
	return Config{Range: Range{Start: 1, Count: 10}, BatchSize: 3}
}

// Validate reports whether the configuration is usable: the range must be
// valid and 1 <= BatchSize <= Range.Count. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if err := c.Range.Validate(); err != nil {
		return err
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size %d, must be at least 1", ErrInvalidConfig, c.BatchSize)
	}
	if c.BatchSize > c.Range.Count {
		return fmt.Errorf("%w: batch size %d exceeds range size %d", ErrInvalidConfig, c.BatchSize, c.Range.Count)
	}
	return nil
}

// CounterStore maps elements to the number of batches they have appeared in.
// Elements with no entry count as zero; entries never go negative. The zero
// value is not usable, construct with NewCounterStore or
// NewCounterStoreForRange.
type CounterStore struct {
	counts map[int64]int64
}

// NewCounterStore returns an empty store.
func NewCounterStore() *CounterStore {
	return &CounterStore{counts: make(map[int64]int64)}
}

// NewCounterStoreForRange returns a store holding an explicit zero entry for
// every element of r. Behaviorally identical to an empty store for selection;
// the explicit zeros make the full element set visible when rendered or
// serialized.
func NewCounterStoreForRange(r Range) *CounterStore {
	s := &CounterStore{counts: make(map[int64]int64, r.Count)}
	for _, e := range r.Elements() {
		s.counts[e] = 0
	}
	return s
}

// ElementCount is one (element, count) row of a store snapshot.
type ElementCount struct {
	Element int64
	Count   int64
}

// Count returns the appearance count for e. Absent elements count as zero.
func (s *CounterStore) Count(e int64) int64 { return s.counts[e] }

// Apply records one appearance for every element of batch. Elements absent
// from the store are created at 1.
func (s *CounterStore) Apply(batch []int64) {
	for _, e := range batch {
		s.counts[e]++
	}
}

// Len returns the number of explicit entries, including zero entries.
func (s *CounterStore) Len() int { return len(s.counts) }

// Total returns the sum of all counts, i.e. the number of element appearances
// recorded so far.
func (s *CounterStore) Total() int64 {
	var sum int64
	for _, c := range s.counts {
		sum += c
	}
	return sum
}

// Counts returns all entries ascending by element.
func (s *CounterStore) Counts() []ElementCount {
	out := make([]ElementCount, 0, len(s.counts))
	for e, c := range s.counts {
		out = append(out, ElementCount{Element: e, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Element < out[j].Element })
	return out
}

// Clone returns an independent copy of the store.
func (s *CounterStore) Clone() *CounterStore {
	dup := &CounterStore{counts: make(map[int64]int64, len(s.counts))}
	for e, c := range s.counts {
		dup.counts[e] = c
	}
	return dup
}

// Report is the outcome of validating a store against a range. A mismatch is
// a warning, never an error: stale entries are ignored by selection and
// missing elements count as zero, so drawing proceeds either way.
type Report struct {
	// Stale lists entries present in the store but outside the range,
	// ascending.
	Stale []int64

	// Missing lists range elements with no explicit entry, ascending.
	// They are treated as having count zero.
	Missing []int64
}

// OK reports whether the store and range agree exactly.
func (rep Report) OK() bool { return len(rep.Stale) == 0 && len(rep.Missing) == 0 }

// Validate compares the store against r and reports stale and missing
// elements. The store is not modified.
func (s *CounterStore) Validate(r Range) Report {
	var rep Report
	for e := range s.counts {
		if !r.Contains(e) {
			rep.Stale = append(rep.Stale, e)
		}
	}
	sort.Slice(rep.Stale, func(i, j int) bool { return rep.Stale[i] < rep.Stale[j] })
	for _, e := range r.Elements() {
		if _, ok := s.counts[e]; !ok {
			rep.Missing = append(rep.Missing, e)
		}
	}
	return rep
}

// Clean removes every entry outside r and returns the removed elements
// ascending. Counts inside the range are untouched. Cleaning twice with the
// same range removes nothing the second time. Missing in-range elements are
// not filled in; they keep counting as zero.
func (s *CounterStore) Clean(r Range) []int64 {
	var removed []int64
	for e := range s.counts {
		if !r.Contains(e) {
			removed = append(removed, e)
		}
	}
	for _, e := range removed {
		delete(s.counts, e)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}
