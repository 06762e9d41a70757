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

// Package core manages the in-memory sessions of the batch service. Each
// session owns one engine state (configuration, counter store, selection
// source); the package serializes operations per session, keeps sessions in a
// registry and autosaves them in the background.
package core

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"fairdraw"
)

// Session is one caller's engine state. The engine itself is pure and
// single-writer; the session mutex is the external serialization the engine's
// contract requires, so HTTP handlers and the background worker can touch the
// same session safely.
type Session struct {
	// ID is the caller-chosen session name. Opaque to the service.
	ID string

	mu    sync.Mutex
	cfg   fairdraw.Config
	store *fairdraw.CounterStore
	rng   *rand.Rand

	// seq orders draws within this process. It restarts at zero on
	// restore; the counter store is the durable record.
	seq int64

	created time.Time

	// lastAccessed stores the last access time in UnixNano to allow atomic
	// reads from the worker loops without taking the session mutex.
	lastAccessed int64

	// unsaved counts draws since the last successful snapshot save. The
	// worker autosaves sessions whose count crosses its threshold.
	unsaved atomic.Int64
}

// NewSession returns a session with the given configuration and a zeroed
// counter store. The seed feeds the session's private selection source.
func NewSession(id string, cfg fairdraw.Config, seed int64) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		cfg:          cfg,
		store:        fairdraw.NewCounterStoreForRange(cfg.Range),
		rng:          fairdraw.NewRand(seed),
		created:      now,
		lastAccessed: now.UnixNano(),
	}
}

// newSessionFromSnapshot builds a session directly from restored state.
// Used by the registry when resuming an autosaved session.
func newSessionFromSnapshot(id string, cfg fairdraw.Config, store *fairdraw.CounterStore, seed int64) *Session {
	s := NewSession(id, cfg, seed)
	s.store = store
	return s
}

// touch refreshes the idle clock.
func (s *Session) touch() {
	atomic.StoreInt64(&s.lastAccessed, time.Now().UnixNano())
}

// LastAccessed returns the last access time. Safe without the session mutex.
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, atomic.LoadInt64(&s.lastAccessed))
}

// UnsavedDraws returns the number of draws not yet captured by a snapshot
// save. Safe without the session mutex.
func (s *Session) UnsavedDraws() int64 { return s.unsaved.Load() }

// DrawResult is the outcome of one Generate call.
type DrawResult struct {
	// Batch holds the selected elements in selection order.
	Batch []int64

	// Seq is the 1-based draw number within this process.
	Seq int64

	// Config is the configuration the batch was drawn under.
	Config fairdraw.Config

	// Report flags any store/range mismatch present at draw time. Stale
	// entries were ignored, missing ones counted as zero; the draw
	// succeeded regardless.
	Report fairdraw.Report
}

// Generate draws the next batch and applies its increments. The returned
// report is informational; a mismatched store never blocks generation.
func (s *Session) Generate() (DrawResult, error) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, err := fairdraw.Draw(s.store, s.cfg.Range, s.cfg.BatchSize, s.rng)
	if err != nil {
		return DrawResult{}, err
	}
	s.store.Apply(batch)
	s.seq++
	s.unsaved.Add(1)
	RecordDraw(int64(len(batch)))
	return DrawResult{
		Batch:  batch,
		Seq:    s.seq,
		Config: s.cfg,
		Report: s.store.Validate(s.cfg.Range),
	}, nil
}

// Configure replaces the session settings, keeping the counter store as is.
// Counts outside the new range stay in place until an explicit Clean; the
// returned report lists them so the caller can warn. Fails with
// ErrInvalidConfig without touching anything when cfg is unusable.
func (s *Session) Configure(cfg fairdraw.Config) (fairdraw.Report, error) {
	if err := cfg.Validate(); err != nil {
		return fairdraw.Report{}, err
	}
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return s.store.Validate(cfg.Range), nil
}

// Config returns the current settings.
func (s *Session) Config() fairdraw.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SnapshotQuick serializes the counts alone.
func (s *Session) SnapshotQuick() []byte {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fairdraw.EncodeQuick(s.store)
}

// SnapshotFull serializes the counts together with the settings.
func (s *Session) SnapshotFull() []byte {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fairdraw.EncodeFull(s.store, s.cfg)
}

// RestoreQuick replaces the counts from a counts-only snapshot, keeping the
// current settings. All-or-nothing: on ErrMalformedSnapshot the session is
// untouched.
func (s *Session) RestoreQuick(data []byte) (fairdraw.Report, error) {
	store, err := fairdraw.DecodeQuick(data)
	if err != nil {
		return fairdraw.Report{}, err
	}
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.unsaved.Add(1)
	return store.Validate(s.cfg.Range), nil
}

// RestoreFull replaces both counts and settings from a full snapshot.
// All-or-nothing like RestoreQuick.
func (s *Session) RestoreFull(data []byte) (fairdraw.Report, error) {
	store, cfg, err := fairdraw.DecodeFull(data)
	if err != nil {
		return fairdraw.Report{}, err
	}
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.cfg = cfg
	s.unsaved.Add(1)
	return store.Validate(cfg.Range), nil
}

// Validate compares the counter store against the current range.
func (s *Session) Validate() fairdraw.Report {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Validate(s.cfg.Range)
}

// Clean removes entries outside the current range and returns them. Explicit
// only; nothing in the service cleans automatically.
func (s *Session) Clean() []int64 {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.store.Clean(s.cfg.Range)
	if len(removed) > 0 {
		s.unsaved.Add(1)
	}
	return removed
}

// Reset discards all counts, starting over with a zeroed store for the
// current range.
func (s *Session) Reset() {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = fairdraw.NewCounterStoreForRange(s.cfg.Range)
	s.seq = 0
	s.unsaved.Add(1)
}

// Info is a read-only view of a session for rendering.
type Info struct {
	ID           string                  `json:"id"`
	Start        int64                   `json:"start"`
	N            int64                   `json:"n"`
	K            int64                   `json:"k"`
	Draws        int64                   `json:"draws"`
	TotalShown   int64                   `json:"total_shown"`
	Counts       []fairdraw.ElementCount `json:"-"`
	Report       fairdraw.Report         `json:"-"`
	Created      time.Time               `json:"created"`
	LastAccessed time.Time               `json:"last_accessed"`
}

// Info summarizes the session state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.ID,
		Start:        s.cfg.Range.Start,
		N:            s.cfg.Range.Count,
		K:            s.cfg.BatchSize,
		Draws:        s.seq,
		TotalShown:   s.store.Total(),
		Counts:       s.store.Counts(),
		Report:       s.store.Validate(s.cfg.Range),
		Created:      s.created,
		LastAccessed: s.LastAccessed(),
	}
}

// Counts returns the current counter table ascending by element.
func (s *Session) Counts() []fairdraw.ElementCount {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Counts()
}

// saveState captures a full snapshot plus the unsaved-draw count it covers.
// The worker persists the bytes outside the lock and settles the counter with
// settleSaved afterwards.
func (s *Session) saveState() (data []byte, covered int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fairdraw.EncodeFull(s.store, s.cfg), s.unsaved.Load()
}

// settleSaved subtracts the draws covered by a successful save. Draws that
// landed between capture and save stay counted.
func (s *Session) settleSaved(covered int64) {
	s.unsaved.Add(-covered)
}
