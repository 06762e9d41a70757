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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Snapshot formats. Two JSON layouts cover the two save flavors:
//
// Quick holds counts only, one object keyed by element:
//
//	{
//	  "1": 2,
//	  "5": 0
//	}
//
// Full wraps the counts with the session settings:
//
//	{
//	  "appearance_counts": {
//	    "1": 2
//	  },
//	  "N": 10,
//	  "k": 3,
//	  "start": 1
//	}
//
// Encoding is deterministic: counts appear ascending by element, two-space
// indented. Decoding accepts any valid JSON of the right shape and is
// all-or-nothing: a decoder either returns a complete fresh store or an
// error wrapping ErrMalformedSnapshot, never a partial result.

// EncodeQuick serializes the store's counts.
func EncodeQuick(store *CounterStore) []byte {
	var b bytes.Buffer
	writeCounts(&b, store.Counts(), "")
	return b.Bytes()
}

// DecodeQuick parses a counts-only snapshot into a fresh store. The caller's
// existing state is never touched; on error no store is returned.
func DecodeQuick(data []byte) (*CounterStore, error) {
	var raw map[string]json.Number
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON object of counts", ErrMalformedSnapshot)
	}
	return storeFromRaw(raw)
}

// EncodeFull serializes the counts together with the session settings.
func EncodeFull(store *CounterStore, cfg Config) []byte {
	var b bytes.Buffer
	b.WriteString("{\n  \"appearance_counts\": ")
	writeCounts(&b, store.Counts(), "  ")
	fmt.Fprintf(&b, ",\n  \"N\": %d,\n  \"k\": %d,\n  \"start\": %d\n}",
		cfg.Range.Count, cfg.BatchSize, cfg.Range.Start)
	return b.Bytes()
}

// DecodeFull parses a full snapshot into a fresh store and its settings. All
// four fields must be present and the settings must validate; otherwise the
// whole load fails with ErrMalformedSnapshot and the caller's state is never
// touched.
func DecodeFull(data []byte) (*CounterStore, Config, error) {
	var payload struct {
		Counts *map[string]json.Number `json:"appearance_counts"`
		N      *json.Number            `json:"N"`
		K      *json.Number            `json:"k"`
		Start  *json.Number            `json:"start"`
	}
	if err := decodeStrict(data, &payload); err != nil {
		return nil, Config{}, err
	}
	switch {
	case payload.Counts == nil:
		return nil, Config{}, fmt.Errorf("%w: missing field %q", ErrMalformedSnapshot, "appearance_counts")
	case payload.N == nil:
		return nil, Config{}, fmt.Errorf("%w: missing field %q", ErrMalformedSnapshot, "N")
	case payload.K == nil:
		return nil, Config{}, fmt.Errorf("%w: missing field %q", ErrMalformedSnapshot, "k")
	case payload.Start == nil:
		return nil, Config{}, fmt.Errorf("%w: missing field %q", ErrMalformedSnapshot, "start")
	}

	n, err := payload.N.Int64()
	if err != nil {
		return nil, Config{}, fmt.Errorf("%w: field \"N\": %v", ErrMalformedSnapshot, err)
	}
	k, err := payload.K.Int64()
	if err != nil {
		return nil, Config{}, fmt.Errorf("%w: field \"k\": %v", ErrMalformedSnapshot, err)
	}
	start, err := payload.Start.Int64()
	if err != nil {
		return nil, Config{}, fmt.Errorf("%w: field \"start\": %v", ErrMalformedSnapshot, err)
	}

	cfg := Config{Range: Range{Start: start, Count: n}, BatchSize: k}
	if err := cfg.Validate(); err != nil {
		// The saved settings are part of the snapshot, so a bad pair is a
		// snapshot defect, not a configuration request.
		return nil, Config{}, fmt.Errorf("%w: saved settings: %v", ErrMalformedSnapshot, err)
	}

	store, err := storeFromRaw(*payload.Counts)
	if err != nil {
		return nil, Config{}, err
	}
	return store, cfg, nil
}

// writeCounts appends the entries as an indented JSON object. indent is the
// prefix of the line the object starts on; members sit one level deeper.
func writeCounts(b *bytes.Buffer, entries []ElementCount, indent string) {
	if len(entries) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{")
	for i, ec := range entries {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
		b.WriteString(indent)
		fmt.Fprintf(b, "  \"%d\": %d", ec.Element, ec.Count)
	}
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString("}")
}

// decodeStrict unmarshals exactly one JSON value, keeping numbers unparsed so
// non-integer counts can be rejected. Trailing data is an error.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after snapshot", ErrMalformedSnapshot)
	}
	return nil
}

// storeFromRaw converts string-keyed JSON counts into a store, rejecting
// non-integer elements and negative or non-integer counts.
func storeFromRaw(raw map[string]json.Number) (*CounterStore, error) {
	s := &CounterStore{counts: make(map[int64]int64, len(raw))}
	for key, num := range raw {
		e, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: element %q is not an integer", ErrMalformedSnapshot, key)
		}
		c, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: count for element %d is not an integer: %v", ErrMalformedSnapshot, e, num)
		}
		if c < 0 {
			return nil, fmt.Errorf("%w: count for element %d is negative: %d", ErrMalformedSnapshot, e, c)
		}
		s.counts[e] = c
	}
	return s, nil
}
