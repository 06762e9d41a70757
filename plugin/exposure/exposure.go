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

// Package exposure analyzes how evenly elements have been handed out. It
// works offline, from a draw journal or a counter table, and produces the
// per-element appearance statistics the balance guarantee is judged by: after
// any number of draws from a fresh store, max and min appearance counts may
// differ by at most the effect of one partially-filled tier.
package exposure

import (
	"fmt"
	"sort"
	"strings"

	"fairdraw"
	"fairdraw/internal/sinks"
)

// ElementStat is one element's share of the total exposure.
type ElementStat struct {
	Element int64
	Count   int64
	// Share is Count divided by the total number of appearances, 0 when
	// nothing has been drawn.
	Share float64
}

// Report summarizes exposure across a set of elements.
type Report struct {
	Elements []ElementStat // ascending by element
	Total    int64         // total appearances
	Min      int64
	Max      int64
	// Spread is Max - Min. A spread of 0 or 1 means exposure is as
	// balanced as integer counts allow.
	Spread int64
}

// Balanced reports whether no element is more than one appearance ahead of
// any other.
func (r Report) Balanced() bool { return r.Spread <= 1 }

// FromCounts builds a report from a counter table.
func FromCounts(counts []fairdraw.ElementCount) Report {
	var rep Report
	if len(counts) == 0 {
		return rep
	}
	for _, ec := range counts {
		rep.Total += ec.Count
	}
	rep.Min = counts[0].Count
	rep.Max = counts[0].Count
	rep.Elements = make([]ElementStat, 0, len(counts))
	for _, ec := range counts {
		if ec.Count < rep.Min {
			rep.Min = ec.Count
		}
		if ec.Count > rep.Max {
			rep.Max = ec.Count
		}
		stat := ElementStat{Element: ec.Element, Count: ec.Count}
		if rep.Total > 0 {
			stat.Share = float64(ec.Count) / float64(rep.Total)
		}
		rep.Elements = append(rep.Elements, stat)
	}
	sort.Slice(rep.Elements, func(i, j int) bool { return rep.Elements[i].Element < rep.Elements[j].Element })
	rep.Spread = rep.Max - rep.Min
	return rep
}

// FromDraws tallies journaled draws into a report. Only elements that appear
// in some batch are counted; pass a store-backed table to FromCounts when
// zero entries matter.
func FromDraws(records []sinks.DrawRecord) Report {
	tally := fairdraw.NewCounterStore()
	for _, rec := range records {
		tally.Apply(rec.Batch)
	}
	return FromCounts(tally.Counts())
}

// FromJournal reads a journal file and reports on its draws.
func FromJournal(path string) (Report, error) {
	records, err := sinks.ReadAllDraws(path)
	if err != nil {
		return Report{}, fmt.Errorf("read draw journal: %w", err)
	}
	return FromDraws(records), nil
}

// String renders the report as a fixed-width table.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "total=%d min=%d max=%d spread=%d\n", r.Total, r.Min, r.Max, r.Spread)
	fmt.Fprintf(&b, "%-10s %-8s %s\n", "element", "count", "share")
	for _, st := range r.Elements {
		fmt.Fprintf(&b, "%-10d %-8d %.4f\n", st.Element, st.Count, st.Share)
	}
	return b.String()
}
