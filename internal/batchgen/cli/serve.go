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

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"fairdraw"
	"fairdraw/internal/batchgen/api"
	"fairdraw/internal/batchgen/core"
	"fairdraw/internal/batchgen/history"
	"fairdraw/internal/batchgen/persistence"
	"fairdraw/internal/batchgen/telemetry"
	"fairdraw/internal/logger"
	"fairdraw/internal/sinks"
)

// ServeConfig carries the service settings. Environment variables supply
// deployment defaults; command-line flags override them.
type ServeConfig struct {
	Listen      string        `env:"BATCHGEN_LISTEN" envDefault:":8080"`
	MetricsAddr string        `env:"BATCHGEN_METRICS_ADDR"`
	Backend     string        `env:"BATCHGEN_BACKEND" envDefault:"memory"`
	DataDir     string        `env:"BATCHGEN_DATA_DIR" envDefault:"./data"`
	RedisAddr   string        `env:"BATCHGEN_REDIS_ADDR"`
	RedisTTL    time.Duration `env:"BATCHGEN_REDIS_TTL"`
	SQLitePath  string        `env:"BATCHGEN_SQLITE_PATH" envDefault:"./data/snapshots.db"`
	HistoryPath string        `env:"BATCHGEN_HISTORY_PATH"`
	JournalPath string        `env:"BATCHGEN_JOURNAL_PATH"`

	DefaultStart int64 `env:"BATCHGEN_DEFAULT_START" envDefault:"1"`
	DefaultN     int64 `env:"BATCHGEN_DEFAULT_N" envDefault:"10"`
	DefaultK     int64 `env:"BATCHGEN_DEFAULT_K" envDefault:"3"`

	SaveThreshold    int64         `env:"BATCHGEN_SAVE_THRESHOLD" envDefault:"10"`
	SaveInterval     time.Duration `env:"BATCHGEN_SAVE_INTERVAL" envDefault:"5s"`
	SaveMaxAge       time.Duration `env:"BATCHGEN_SAVE_MAX_AGE" envDefault:"1m"`
	EvictionAge      time.Duration `env:"BATCHGEN_EVICTION_AGE" envDefault:"30m"`
	EvictionInterval time.Duration `env:"BATCHGEN_EVICTION_INTERVAL" envDefault:"1m"`
}

// ServeCmd runs the HTTP batch service until interrupted.
type ServeCmd struct {
	Listen      string `help:"Listen address, e.g. :8080." placeholder:"ADDR"`
	Backend     string `help:"Snapshot backend: memory|file|redis|sqlite." placeholder:"NAME"`
	DataDir     string `help:"Data directory for the file backend." placeholder:"DIR"`
	RedisAddr   string `help:"Redis address for the redis backend." placeholder:"ADDR"`
	SQLitePath  string `help:"Database file for the sqlite backend." placeholder:"PATH"`
	HistoryPath string `help:"SQLite file for draw history; empty disables." placeholder:"PATH"`
	JournalPath string `help:"JSONL draw journal; empty disables." placeholder:"PATH"`
	MetricsAddr string `help:"Standalone /metrics address; empty serves on the API port only." placeholder:"ADDR"`
}

// merge applies the non-empty flag values over the env config.
func (cmd *ServeCmd) merge(cfg *ServeConfig) {
	if cmd.Listen != "" {
		cfg.Listen = cmd.Listen
	}
	if cmd.Backend != "" {
		cfg.Backend = cmd.Backend
	}
	if cmd.DataDir != "" {
		cfg.DataDir = cmd.DataDir
	}
	if cmd.RedisAddr != "" {
		cfg.RedisAddr = cmd.RedisAddr
	}
	if cmd.SQLitePath != "" {
		cfg.SQLitePath = cmd.SQLitePath
	}
	if cmd.HistoryPath != "" {
		cfg.HistoryPath = cmd.HistoryPath
	}
	if cmd.JournalPath != "" {
		cfg.JournalPath = cmd.JournalPath
	}
	if cmd.MetricsAddr != "" {
		cfg.MetricsAddr = cmd.MetricsAddr
	}
}

func (cmd *ServeCmd) Run(ctx context.Context) error {
	log := logger.Setup()

	var cfg ServeConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env config: %w", err)
	}
	cmd.merge(&cfg)

	defaults := fairdraw.Config{
		Range:     fairdraw.Range{Start: cfg.DefaultStart, Count: cfg.DefaultN},
		BatchSize: cfg.DefaultK,
	}
	if err := defaults.Validate(); err != nil {
		return fmt.Errorf("default session settings: %w", err)
	}

	snapshots, err := persistence.Build(persistence.Options{
		Backend:    cfg.Backend,
		Dir:        cfg.DataDir,
		RedisAddr:  cfg.RedisAddr,
		RedisTTL:   cfg.RedisTTL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("build snapshot store: %w", err)
	}
	defer snapshots.Close()

	var hist *history.Store
	if cfg.HistoryPath != "" {
		hist, err = history.Open(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer hist.Close()
	}

	var journal *sinks.DrawJournal
	if cfg.JournalPath != "" {
		journal, err = sinks.NewDrawJournal(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("open draw journal: %w", err)
		}
		defer journal.Close()
	}

	if cfg.MetricsAddr != "" {
		telemetry.StartEndpoint(cfg.MetricsAddr)
	}

	registry := core.NewRegistry(snapshots, defaults, log)
	worker := core.NewWorker(registry, snapshots, core.WorkerConfig{
		SaveThreshold:    cfg.SaveThreshold,
		SaveInterval:     cfg.SaveInterval,
		SaveMaxAge:       cfg.SaveMaxAge,
		EvictionAge:      cfg.EvictionAge,
		EvictionInterval: cfg.EvictionInterval,
	}, log)
	worker.Start()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(log))
	e.Use(middleware.Recover())
	api.NewServer(registry, hist, journal, log).Register(e)

	errCh := make(chan error, 1)
	go func() {
		log.Info("batch service listening", "addr", cfg.Listen, "backend", cfg.Backend)
		errCh <- e.Start(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		worker.Stop()
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	// Shutdown order matters: stop the worker first so the final autosave
	// flush runs while sessions are quiescing, then drain HTTP.
	worker.Stop()
	core.LogFinalMetrics(log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("batch service stopped")
	return nil
}
