//go:build e2e

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

// Package e2e launches the real batchgen binary and exercises the service
// over HTTP: drawing, counting, snapshot round-trips, and session resumption
// across a restart with a durable backend.
package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

type runningServer struct {
	cmd     *exec.Cmd
	baseURL string
}

// buildBinary builds cmd/batchgen once per test into a temp dir.
func buildBinary(t *testing.T) string {
	t.Helper()
	exe := filepath.Join(t.TempDir(), exeName("batchgen"))
	build := exec.Command("go", "build", "-o", exe, "fairdraw/cmd/batchgen")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	return exe
}

// startServer launches the binary on a random free port and waits until it
// accepts HTTP requests.
func startServer(t *testing.T, exe string, extraArgs ...string) *runningServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	_, port, _ := net.SplitHostPort(addr)

	args := append([]string{"serve", "--listen=127.0.0.1:" + port}, extraArgs...)
	cmd := exec.Command(exe, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.Fatalf("StderrPipe: %v", err)
	}
	go drainLines(stderr)
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	base := fmt.Sprintf("http://127.0.0.1:%s", port)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ready := false
	for ctx.Err() == nil {
		resp, err := client.Get(base + "/healthz")
		if err == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !ready {
		_ = cmd.Process.Kill()
		t.Fatal("server did not become ready")
	}

	rs := &runningServer{cmd: cmd, baseURL: base}
	t.Cleanup(func() { rs.stop() })
	return rs
}

// stop terminates the server, preferring SIGINT so the final autosave flush
// runs.
func (rs *runningServer) stop() {
	if rs.cmd.Process == nil {
		return
	}
	if runtime.GOOS == "windows" {
		_ = rs.cmd.Process.Kill()
	} else {
		_ = rs.cmd.Process.Signal(os.Interrupt)
	}
	done := make(chan struct{})
	go func() {
		_, _ = rs.cmd.Process.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = rs.cmd.Process.Kill()
		<-done
	}
}

func drainLines(r io.ReadCloser) {
	s := bufio.NewScanner(r)
	for s.Scan() {
	}
}

func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func postJSON(t *testing.T, client *http.Client, url, body string) map[string]any {
	t.Helper()
	resp, err := client.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: status %d, body %s", url, resp.StatusCode, raw)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("POST %s: bad JSON %s", url, raw)
	}
	return payload
}

func getBody(t *testing.T, client *http.Client, url string) []byte {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d, body %s", url, resp.StatusCode, raw)
	}
	return raw
}

func TestE2E_DrawAndCounts(t *testing.T) {
	exe := buildBinary(t)
	rs := startServer(t, exe, "--backend=memory")
	client := &http.Client{Timeout: 2 * time.Second}

	payload := postJSON(t, client, rs.baseURL+"/v1/sessions/alice/draw", `{"start":1,"N":5,"k":2}`)
	batch := payload["batch"].([]any)
	if len(batch) != 2 {
		t.Fatalf("batch = %v, want 2 elements", batch)
	}

	var rows []struct {
		Element int64 `json:"element"`
		Count   int64 `json:"count"`
	}
	if err := json.Unmarshal(getBody(t, client, rs.baseURL+"/v1/sessions/alice/counts"), &rows); err != nil {
		t.Fatal(err)
	}
	var total int64
	for _, r := range rows {
		total += r.Count
	}
	if total != 2 {
		t.Fatalf("total count = %d, want 2", total)
	}
}

func TestE2E_SnapshotRoundTrip(t *testing.T) {
	exe := buildBinary(t)
	rs := startServer(t, exe, "--backend=memory")
	client := &http.Client{Timeout: 2 * time.Second}

	for i := 0; i < 3; i++ {
		postJSON(t, client, rs.baseURL+"/v1/sessions/alice/draw", `{"start":1,"N":6,"k":2}`)
	}
	snapshot := getBody(t, client, rs.baseURL+"/v1/sessions/alice/snapshot?kind=full")

	req, err := http.NewRequest(http.MethodPut, rs.baseURL+"/v1/sessions/bob/snapshot?kind=full", bytes.NewReader(snapshot))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot put status = %d", resp.StatusCode)
	}

	alice := getBody(t, client, rs.baseURL+"/v1/sessions/alice/counts")
	bob := getBody(t, client, rs.baseURL+"/v1/sessions/bob/counts")
	if !bytes.Equal(alice, bob) {
		t.Fatalf("counts differ after round-trip:\n%s\n%s", alice, bob)
	}
}

func TestE2E_RestartResumesSessions(t *testing.T) {
	exe := buildBinary(t)
	dataDir := t.TempDir()
	client := &http.Client{Timeout: 2 * time.Second}

	rs := startServer(t, exe, "--backend=file", "--data-dir="+dataDir)
	for i := 0; i < 4; i++ {
		postJSON(t, client, rs.baseURL+"/v1/sessions/alice/draw", `{"start":1,"N":5,"k":3}`)
	}
	before := getBody(t, client, rs.baseURL+"/v1/sessions/alice/counts")
	rs.stop() // graceful: final autosave flush writes the snapshot

	rs2 := startServer(t, exe, "--backend=file", "--data-dir="+dataDir)
	after := getBody(t, client, rs2.baseURL+"/v1/sessions/alice/counts")
	if !bytes.Equal(before, after) {
		t.Fatalf("counts not resumed across restart:\nbefore %s\nafter  %s", before, after)
	}
}
