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
	"fmt"
	"io"
	"time"
)

// RedisClient abstracts the minimal surface we need from a Redis client.
// Implementations wrap github.com/redis/go-redis/v9 or any equivalent; a
// missing key must surface as ErrNotFound so the store never imports client
// error types.
type RedisClient interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// RedisStore keeps snapshots in Redis under one key per session. An optional
// TTL lets deployments expire snapshots of abandoned sessions; zero keeps
// them forever.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisStore returns a store writing through the given client.
func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// RedisSnapshotKey is the key layout, public for interoperability with other
// tooling inspecting the same Redis.
func RedisSnapshotKey(sessionID string) string {
	return fmt.Sprintf("batchgen:snapshot:%s", sessionID)
}

// Put stores the snapshot, refreshing the TTL.
func (r *RedisStore) Put(ctx context.Context, sessionID string, snapshot []byte) error {
	if err := r.client.Set(ctx, RedisSnapshotKey(sessionID), snapshot, r.ttl); err != nil {
		return fmt.Errorf("redis set session=%s: %w", sessionID, err)
	}
	return nil
}

// Get fetches the snapshot, passing ErrNotFound through untouched.
func (r *RedisStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	b, err := r.client.Get(ctx, RedisSnapshotKey(sessionID))
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get session=%s: %w", sessionID, err)
	}
	return b, nil
}

// Delete drops the snapshot key.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, RedisSnapshotKey(sessionID)); err != nil {
		return fmt.Errorf("redis del session=%s: %w", sessionID, err)
	}
	return nil
}

// Close releases the wrapped client's connections when it supports closing.
func (r *RedisStore) Close() error {
	if c, ok := r.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
