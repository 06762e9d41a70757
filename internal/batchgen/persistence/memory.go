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

package persistence

import (
	"context"
	"sync"
)

// MemStore is an in-process snapshot store. It backs tests and the
// dependency-free demo mode; snapshots do not survive the process.
type MemStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{snapshots: make(map[string][]byte)}
}

func (m *MemStore) Put(ctx context.Context, sessionID string, snapshot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dup := make([]byte, len(snapshot))
	copy(dup, snapshot)
	m.mu.Lock()
	m.snapshots[sessionID] = dup
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b, ok := m.snapshots[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	dup := make([]byte, len(b))
	copy(dup, b)
	return dup, nil
}

func (m *MemStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.snapshots, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Close() error { return nil }

// Len reports the number of stored snapshots; test helper.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}
