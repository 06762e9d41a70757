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
	"errors"
	"fmt"
	"time"
)

// Options selects and configures a snapshot backend.
type Options struct {
	// Backend is one of "memory", "file", "redis", "sqlite". Empty selects
	// memory.
	Backend string

	// Dir is the data directory for the file backend.
	Dir string

	// RedisAddr is the server address for the redis backend, e.g.
	// "127.0.0.1:6379". RedisTTL expires idle snapshots; zero keeps them.
	RedisAddr string
	RedisTTL  time.Duration

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string
}

// Build constructs the snapshot store named by opts.Backend.
//
// The memory backend needs no infrastructure and is the default, so the
// service always starts; the durable backends each require their one setting.
func Build(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemStore(), nil
	case "file":
		return NewFileStore(opts.Dir)
	case "redis":
		if opts.RedisAddr == "" {
			return nil, errors.New("redis backend requires an address")
		}
		return NewRedisStore(NewGoRedisClient(opts.RedisAddr), opts.RedisTTL), nil
	case "sqlite":
		return OpenSQLite(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", opts.Backend)
	}
}
