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

// Package persistence provides snapshot stores for session state. A store
// keeps one opaque snapshot blob per session, last write wins. Backends:
// local files, Redis, SQLite, and an in-process map for tests and demos.
//
// Snapshots are produced and parsed by the engine; stores never inspect the
// bytes, so every backend behaves identically with respect to the snapshot
// format.
package persistence

import (
	"context"
	"errors"
)

// ErrNotFound reports that no snapshot exists for the session.
var ErrNotFound = errors.New("snapshot not found")

// Store is the minimal surface the session layer needs from a snapshot
// backend. Put overwrites any previous snapshot for the session. Get returns
// ErrNotFound when the session has never been saved. Delete is a no-op for
// unknown sessions.
type Store interface {
	Put(ctx context.Context, sessionID string, snapshot []byte) error
	Get(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
