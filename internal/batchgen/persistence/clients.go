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
	"time"

	redis "github.com/redis/go-redis/v9"
)

// GoRedisClient is the production RedisClient backed by
// github.com/redis/go-redis/v9. Use NewGoRedisClient with an address like
// "127.0.0.1:6379".
type GoRedisClient struct{ c *redis.Client }

func NewGoRedisClient(addr string) *GoRedisClient {
	opt := &redis.Options{Addr: addr}
	return &GoRedisClient{c: redis.NewClient(opt)}
}

func (g *GoRedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.c.Set(ctx, key, value, ttl).Err()
}

// Get maps the client's missing-key error to ErrNotFound so callers never
// depend on go-redis error values.
func (g *GoRedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := g.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return b, err
}

func (g *GoRedisClient) Del(ctx context.Context, key string) error {
	return g.c.Del(ctx, key).Err()
}

func (g *GoRedisClient) Close() error { return g.c.Close() }
