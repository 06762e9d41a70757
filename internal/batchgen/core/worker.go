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
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fairdraw/internal/batchgen/persistence"
	"fairdraw/internal/batchgen/telemetry"
)

// WorkerConfig tunes the background loops.
type WorkerConfig struct {
	// SaveThreshold autosaves a session once it has this many unsaved
	// draws. Minimum 1.
	SaveThreshold int64

	// SaveInterval is how often the autosave loop scans sessions.
	SaveInterval time.Duration

	// SaveMaxAge autosaves a sub-threshold remainder once the session has
	// been idle this long. Zero disables the max-age rule.
	SaveMaxAge time.Duration

	// EvictionAge drops sessions idle longer than this from memory, after
	// a final save. Their snapshots remain for later resumption.
	EvictionAge time.Duration

	// EvictionInterval is how often the eviction loop scans sessions.
	EvictionInterval time.Duration
}

// DefaultWorkerConfig returns conservative production settings.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		SaveThreshold:    10,
		SaveInterval:     5 * time.Second,
		SaveMaxAge:       time.Minute,
		EvictionAge:      30 * time.Minute,
		EvictionInterval: time.Minute,
	}
}

// Worker runs the background tasks of the service: autosaving dirty sessions
// to the snapshot store and evicting idle ones from memory. Stop performs a
// final flush so no draws are lost on a clean shutdown.
type Worker struct {
	registry  *Registry
	snapshots persistence.Store
	cfg       WorkerConfig
	log       *slog.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
	stopped   uint32
}

// NewWorker creates a worker; call Start to launch its loops.
func NewWorker(registry *Registry, snapshots persistence.Store, cfg WorkerConfig, log *slog.Logger) *Worker {
	if cfg.SaveThreshold < 1 {
		cfg.SaveThreshold = 1
	}
	return &Worker{
		registry:  registry,
		snapshots: snapshots,
		cfg:       cfg,
		log:       log,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the autosave and eviction loops.
func (w *Worker) Start() {
	w.log.Info("starting background worker",
		"save_threshold", w.cfg.SaveThreshold,
		"save_interval", w.cfg.SaveInterval,
		"eviction_age", w.cfg.EvictionAge)
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.saveLoop()
	}()
	go func() {
		defer w.wg.Done()
		w.evictionLoop()
	}()
}

// Stop shuts the loops down and flushes every dirty session. Idempotent.
func (w *Worker) Stop() {
	if !atomic.CompareAndSwapUint32(&w.stopped, 0, 1) {
		return
	}
	w.log.Info("stopping background worker")
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) saveLoop() {
	ticker := time.NewTicker(w.cfg.SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runSaveCycle()
		case <-w.stopChan:
			// Final flush: save every session with unsaved draws,
			// regardless of threshold.
			w.runFinalFlush()
			return
		}
	}
}

// runSaveCycle saves sessions that crossed the draw threshold, plus idle
// sessions holding a sub-threshold remainder when SaveMaxAge is set.
func (w *Worker) runSaveCycle() {
	now := time.Now()
	w.registry.ForEach(func(s *Session) {
		unsaved := s.UnsavedDraws()
		if unsaved <= 0 {
			return
		}
		byThreshold := unsaved >= w.cfg.SaveThreshold
		byMaxAge := w.cfg.SaveMaxAge > 0 && now.Sub(s.LastAccessed()) >= w.cfg.SaveMaxAge
		if byThreshold || byMaxAge {
			w.save(s)
		}
	})
}

func (w *Worker) runFinalFlush() {
	w.registry.ForEach(func(s *Session) {
		if s.UnsavedDraws() > 0 {
			w.save(s)
		}
	})
}

// save persists one session's full snapshot. The snapshot is captured under
// the session lock but written outside it, so a slow backend never stalls
// draws.
func (w *Worker) save(s *Session) {
	data, covered := s.saveState()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.snapshots.Put(ctx, s.ID, data); err != nil {
		// Keep the unsaved count; the next cycle retries.
		w.log.Error("autosave failed", "session", s.ID, "err", err)
		return
	}
	s.settleSaved(covered)
	RecordAutosave()
	telemetry.ObserveAutosave()
	w.log.Debug("session autosaved", "session", s.ID, "draws_covered", covered)
}

func (w *Worker) evictionLoop() {
	ticker := time.NewTicker(w.cfg.EvictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runEvictionCycle()
		case <-w.stopChan:
			return
		}
	}
}

// runEvictionCycle saves and drops sessions idle beyond EvictionAge. A
// session touched between the scan and the drop is skipped; it will come up
// again next cycle if still idle.
func (w *Worker) runEvictionCycle() {
	var idle []*Session
	now := time.Now()
	w.registry.ForEach(func(s *Session) {
		if now.Sub(s.LastAccessed()) > w.cfg.EvictionAge {
			idle = append(idle, s)
		}
	})
	if len(idle) == 0 {
		return
	}

	w.log.Info("evicting idle sessions", "count", len(idle))
	for _, s := range idle {
		if time.Since(s.LastAccessed()) <= w.cfg.EvictionAge {
			// Touched since the scan; keep it.
			continue
		}
		if s.UnsavedDraws() > 0 {
			data, covered := s.saveState()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := w.snapshots.Put(ctx, s.ID, data)
			cancel()
			if err != nil {
				// Unsaved draws would be lost; keep the session.
				w.log.Error("final save before eviction failed, keeping session",
					"session", s.ID, "err", err)
				continue
			}
			s.settleSaved(covered)
			RecordAutosave()
			telemetry.ObserveAutosave()
		}
		w.registry.Delete(s.ID)
		RecordEviction()
		telemetry.ObserveEviction()
	}
}
