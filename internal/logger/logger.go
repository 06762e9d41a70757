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

// Package logger configures the process-wide structured logger and carries
// request-scoped loggers through contexts.
package logger

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"
)

var (
	rootLogger *slog.Logger
	setup      sync.Once
)

// Setup initializes the default slog logger once and returns it. Subsequent
// calls return the same logger. BATCHGEN_DEBUG=1 lowers the level to debug.
func Setup() *slog.Logger {
	setup.Do(func() {
		programLevel := new(slog.LevelVar) // Info by default
		if len(os.Getenv("BATCHGEN_DEBUG")) > 0 {
			programLevel.Set(slog.LevelDebug)
		}

		logOptions := &slog.HandlerOptions{Level: programLevel}

		if len(os.Getenv("INVOCATION_ID")) > 0 {
			// systemd adds its own timestamps
			log.Default().SetFlags(0)
			logOptions.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					a.Key = ""
					a.Value = slog.AnyValue(nil)
				}
				return a
			}
		}

		l := slog.New(slog.NewTextHandler(os.Stderr, logOptions))
		slog.SetDefault(l)
		rootLogger = l
	})

	return rootLogger
}

type loggerKey struct{}

// NewContext adds the logger to the context.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext retrieves a logger from the context. If there is none, it
// returns the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return Setup()
}
