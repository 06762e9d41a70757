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

// Package sinks provides append-only JSONL outputs for the batch service.
package sinks

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// DrawRecord is one journaled draw. The journal is the replayable record of
// what was handed out; plugin/exposure consumes it for offline analysis.
type DrawRecord struct {
	Session string    `json:"session"`
	Seq     int64     `json:"seq"`
	Time    time.Time `json:"time"`
	Batch   []int64   `json:"batch"`
	Start   int64     `json:"start"`
	N       int64     `json:"n"`
	K       int64     `json:"k"`
}

// DrawJournal is a buffered JSONL sink for draw records. It is safe for
// concurrent use and optimized for append-only workloads.
type DrawJournal struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string

	lastFlush time.Time
}

// NewDrawJournal opens (or creates) the file at path in append mode with a
// buffered writer. Call Close when done.
func NewDrawJournal(path string) (*DrawJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &DrawJournal{
		f:         f,
		w:         bufio.NewWriterSize(f, 1<<20 /*1MiB*/),
		path:      path,
		lastFlush: time.Now(),
	}, nil
}

// Append writes the record as one JSON line.
func (j *DrawJournal) Append(rec DrawRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	enc := json.NewEncoder(j.w)
	if err := enc.Encode(&rec); err != nil {
		// best effort: on error, try to flush and retry once
		_ = j.w.Flush()
		_ = enc.Encode(&rec)
	}
	// Flush periodically to bound data loss on crash.
	if time.Since(j.lastFlush) > 100*time.Millisecond {
		_ = j.w.Flush()
		j.lastFlush = time.Now()
	}
}

// Flush forces buffered data to be written to disk.
func (j *DrawJournal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastFlush = time.Now()
	return j.w.Flush()
}

// Close flushes and closes the underlying file.
func (j *DrawJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.w.Flush()
	return j.f.Close()
}

// ReadAllDraws reads an entire journal file as a slice. Intended for replay
// and offline analysis; malformed lines are skipped.
func ReadAllDraws(path string) ([]DrawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []DrawRecord
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1<<20)
	scanner.Buffer(buf, 1<<26)
	for scanner.Scan() {
		var rec DrawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err == nil {
			out = append(out, rec)
		}
	}
	return out, scanner.Err()
}
