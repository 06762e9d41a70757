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

package history

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"fairdraw"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cfg := fairdraw.Config{Range: fairdraw.Range{Start: 1, Count: 5}, BatchSize: 2}

	at := time.Now().Truncate(time.Millisecond)
	for seq := int64(1); seq <= 3; seq++ {
		batch := []int64{seq, seq + 1}
		if err := s.RecordDraw(ctx, "alice", seq, at, batch, cfg); err != nil {
			t.Fatalf("RecordDraw(seq=%d) error = %v", seq, err)
		}
	}
	// Another session must not leak into alice's history.
	if err := s.RecordDraw(ctx, "bob", 1, at, []int64{9}, cfg); err != nil {
		t.Fatal(err)
	}

	recs, err := s.RecentDraws(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("RecentDraws() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	// Newest first.
	if recs[0].Seq != 3 || recs[2].Seq != 1 {
		t.Fatalf("order = [%d %d %d], want newest first", recs[0].Seq, recs[1].Seq, recs[2].Seq)
	}
	if !reflect.DeepEqual(recs[0].Batch, []int64{3, 4}) {
		t.Fatalf("batch = %v, want [3 4]", recs[0].Batch)
	}
	if recs[0].N != 5 || recs[0].K != 2 || recs[0].Start != 1 {
		t.Fatalf("settings = start=%d n=%d k=%d, want 1/5/2", recs[0].Start, recs[0].N, recs[0].K)
	}
	if !recs[0].DrawnAt.Equal(at) {
		t.Fatalf("DrawnAt = %v, want %v", recs[0].DrawnAt, at)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cfg := fairdraw.Config{Range: fairdraw.Range{Start: 1, Count: 3}, BatchSize: 1}

	for seq := int64(1); seq <= 10; seq++ {
		if err := s.RecordDraw(ctx, "alice", seq, time.Now(), []int64{1}, cfg); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := s.RecentDraws(ctx, "alice", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d records with limit 4", len(recs))
	}
	if recs[0].Seq != 10 {
		t.Fatalf("first seq = %d, want 10", recs[0].Seq)
	}
}

func TestStore_UnknownSessionEmpty(t *testing.T) {
	s := openTestStore(t)
	recs, err := s.RecentDraws(context.Background(), "nobody", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records for unknown session", len(recs))
	}
}
