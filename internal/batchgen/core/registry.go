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

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fairdraw"
	"fairdraw/internal/batchgen/persistence"
)

// Registry manages the live sessions of the service. It is safe for
// concurrent use; unrelated sessions never contend with each other.
//
// On first access to an unknown session ID the registry consults the snapshot
// store and, if an autosaved snapshot exists, resumes the session from it, so
// session state survives process restarts with a durable backend.
type Registry struct {
	sessions  sync.Map
	snapshots persistence.Store
	defaults  fairdraw.Config
	log       *slog.Logger
}

// NewRegistry returns a registry resuming from (and later autosaving to) the
// given snapshot store. defaults configure sessions with no saved state.
func NewRegistry(snapshots persistence.Store, defaults fairdraw.Config, log *slog.Logger) *Registry {
	return &Registry{snapshots: snapshots, defaults: defaults, log: log}
}

// GetOrCreate returns the session for id, resuming or creating it on a miss.
//
// Optimization: avoid allocating on the common case where the session already
// exists. We first try a plain Load (no allocation). Only on a miss do we
// consult the snapshot store and build a session, then attempt a LoadOrStore.
// In a race where another goroutine creates the session first, the extra
// allocation is rare and immediately discarded.
func (r *Registry) GetOrCreate(ctx context.Context, id string) *Session {
	// Fast path: session already present.
	if actual, ok := r.sessions.Load(id); ok {
		s := actual.(*Session)
		s.touch()
		return s
	}

	// Miss: build only now, resuming from an autosaved snapshot when one
	// exists and parses.
	candidate := r.build(ctx, id)
	if actual, loaded := r.sessions.LoadOrStore(id, candidate); loaded {
		s := actual.(*Session)
		s.touch()
		return s
	}
	return candidate
}

// Get returns the session and whether it exists, never creating one.
func (r *Registry) Get(id string) (*Session, bool) {
	if actual, ok := r.sessions.Load(id); ok {
		return actual.(*Session), true
	}
	return nil, false
}

// build makes the session for id, preferring restored state.
func (r *Registry) build(ctx context.Context, id string) *Session {
	seed := newSeed()
	data, err := r.snapshots.Get(ctx, id)
	if err == nil {
		store, cfg, derr := fairdraw.DecodeFull(data)
		if derr == nil {
			RecordRestore()
			r.log.Info("session resumed from snapshot", "session", id,
				"entries", store.Len(), "n", cfg.Range.Count, "k", cfg.BatchSize)
			return newSessionFromSnapshot(id, cfg, store, seed)
		}
		// A corrupt autosave must not make the session unusable.
		r.log.Warn("ignoring unreadable session snapshot", "session", id, "err", derr)
	} else if !errors.Is(err, persistence.ErrNotFound) {
		r.log.Warn("snapshot lookup failed, starting fresh", "session", id, "err", err)
	}
	return NewSession(id, r.defaults, seed)
}

// ForEach visits every live session.
func (r *Registry) ForEach(f func(s *Session)) {
	r.sessions.Range(func(_, value any) bool {
		f(value.(*Session))
		return true
	})
}

// Delete drops the session from memory. Its snapshot, if any, stays in the
// store so the session can resume later.
func (r *Registry) Delete(id string) {
	r.sessions.Delete(id)
}

// Len counts the live sessions.
func (r *Registry) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool { n++; return true })
	return n
}

// newSeed returns a crypto-strength seed, falling back to the clock if the
// system entropy source fails.
func newSeed() int64 {
	seed, err := fairdraw.NewSeed()
	if err != nil {
		return time.Now().UnixNano()
	}
	return seed
}
