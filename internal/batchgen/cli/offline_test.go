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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fairdraw"
)

func TestLoadSnapshot_FullAndQuick(t *testing.T) {
	dir := t.TempDir()
	cfg := fairdraw.Config{Range: fairdraw.Range{Start: 1, Count: 5}, BatchSize: 2}
	store := fairdraw.NewCounterStoreForRange(cfg.Range)
	store.Apply([]int64{1, 3})

	fullPath := filepath.Join(dir, "full.json")
	if err := os.WriteFile(fullPath, fairdraw.EncodeFull(store, cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	quickPath := filepath.Join(dir, "quick.json")
	if err := os.WriteFile(quickPath, fairdraw.EncodeQuick(store), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, loadedCfg, hasCfg, err := loadSnapshot(fullPath)
	if err != nil {
		t.Fatalf("loadSnapshot(full) error = %v", err)
	}
	if !hasCfg || loadedCfg != cfg {
		t.Fatalf("full snapshot cfg = %+v hasCfg=%v, want %+v", loadedCfg, hasCfg, cfg)
	}
	if loaded.Count(1) != 1 || loaded.Count(2) != 0 {
		t.Fatalf("full snapshot counts wrong: %v", loaded.Counts())
	}

	loaded, _, hasCfg, err = loadSnapshot(quickPath)
	if err != nil {
		t.Fatalf("loadSnapshot(quick) error = %v", err)
	}
	if hasCfg {
		t.Fatal("quick snapshot reported settings")
	}
	if loaded.Count(3) != 1 {
		t.Fatalf("quick snapshot counts wrong: %v", loaded.Counts())
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"1": -1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := loadSnapshot(badPath); !errors.Is(err, fairdraw.ErrMalformedSnapshot) {
		t.Fatalf("loadSnapshot(bad) error = %v, want ErrMalformedSnapshot", err)
	}
}

func TestDrawCmd_WritesUpdatedSnapshot(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "state.json")

	cmd := &DrawCmd{
		rangeFlags: rangeFlags{Start: 1, N: 5, K: 2},
		Seed:       7,
		Write:      out,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	store, cfg, hasCfg, err := loadSnapshot(out)
	if err != nil {
		t.Fatalf("written snapshot unreadable: %v", err)
	}
	if !hasCfg || cfg.Range.Count != 5 || cfg.BatchSize != 2 {
		t.Fatalf("written cfg = %+v", cfg)
	}
	if store.Total() != 2 {
		t.Fatalf("total after one draw = %d, want 2", store.Total())
	}

	// A second run resumes from the written state.
	cmd2 := &DrawCmd{Snapshot: out, Seed: 8, Write: out}
	if err := cmd2.Run(); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	store, _, _, err = loadSnapshot(out)
	if err != nil {
		t.Fatal(err)
	}
	if store.Total() != 4 {
		t.Fatalf("total after two draws = %d, want 4", store.Total())
	}
}

func TestSimulateCmd_Balanced(t *testing.T) {
	cmd := &SimulateCmd{
		rangeFlags: rangeFlags{Start: 1, N: 6, K: 2},
		Rounds:     60,
		Seed:       5,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestServeCmd_MergeOverridesEnvConfig(t *testing.T) {
	cfg := ServeConfig{Listen: ":8080", Backend: "memory", DataDir: "./data"}
	cmd := &ServeCmd{Listen: ":9999", Backend: "file"}
	cmd.merge(&cfg)
	if cfg.Listen != ":9999" || cfg.Backend != "file" {
		t.Fatalf("merged cfg = %+v", cfg)
	}
	if cfg.DataDir != "./data" {
		t.Fatalf("unset flag overwrote DataDir: %q", cfg.DataDir)
	}
}
