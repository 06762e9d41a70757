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

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"fairdraw"
	"fairdraw/internal/batchgen/core"
	"fairdraw/internal/batchgen/telemetry"
	"fairdraw/internal/sinks"
)

// configBody carries session settings in requests and responses, using the
// snapshot field names so API payloads and snapshot files read alike.
type configBody struct {
	Start int64 `json:"start"`
	N     int64 `json:"N"`
	K     int64 `json:"k"`
}

func (b configBody) config() fairdraw.Config {
	return fairdraw.Config{
		Range:     fairdraw.Range{Start: b.Start, Count: b.N},
		BatchSize: b.K,
	}
}

func configOf(cfg fairdraw.Config) configBody {
	return configBody{Start: cfg.Range.Start, N: cfg.Range.Count, K: cfg.BatchSize}
}

func (s *Server) session(c echo.Context) *core.Session {
	sess := s.registry.GetOrCreate(c.Request().Context(), c.Param("id"))
	telemetry.SetActiveSessions(s.registry.Len())
	return sess
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Len(),
	})
}

func (s *Server) handleInfo(c echo.Context) error {
	info := s.session(c).Info()
	return c.JSON(http.StatusOK, map[string]any{
		"id":          info.ID,
		"config":      configBody{Start: info.Start, N: info.N, K: info.K},
		"draws":       info.Draws,
		"total_shown": info.TotalShown,
		"created":     info.Created,
		"warning":     warning(info.Report),
	})
}

func (s *Server) handleConfigure(c echo.Context) error {
	var body configBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: errInvalidConfiguration, Detail: "body must be JSON with start, N, k"})
	}
	rep, err := s.session(c).Configure(body.config())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"config":  body,
		"warning": warning(rep),
	})
}

type drawResponse struct {
	Batch   []int64     `json:"batch"`
	Seq     int64       `json:"seq"`
	Config  configBody  `json:"config"`
	Warning *reportBody `json:"warning,omitempty"`
}

func (s *Server) handleDraw(c echo.Context) error {
	sess := s.session(c)

	// An optional body reconfigures the session before drawing, so one
	// request covers the common "set range then generate" flow.
	if c.Request().ContentLength > 0 {
		var body configBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: errInvalidConfiguration, Detail: "body must be JSON with start, N, k"})
		}
		if _, err := sess.Configure(body.config()); err != nil {
			return s.fail(c, err)
		}
	}

	res, err := sess.Generate()
	if err != nil {
		return s.fail(c, err)
	}
	telemetry.ObserveDraw(len(res.Batch))
	s.archiveDraw(c.Request().Context(), sess.ID, res)

	return c.JSON(http.StatusOK, drawResponse{
		Batch:   res.Batch,
		Seq:     res.Seq,
		Config:  configOf(res.Config),
		Warning: warning(res.Report),
	})
}

// archiveDraw records the draw in history and the journal. Both are best
// effort; archival problems never fail the draw that already happened.
func (s *Server) archiveDraw(ctx context.Context, id string, res core.DrawResult) {
	now := time.Now()
	if s.history != nil {
		if err := s.history.RecordDraw(ctx, id, res.Seq, now, res.Batch, res.Config); err != nil {
			s.log.Error("history record failed", "session", id, "err", err)
		}
	}
	if s.journal != nil {
		s.journal.Append(sinks.DrawRecord{
			Session: id,
			Seq:     res.Seq,
			Time:    now,
			Batch:   res.Batch,
			Start:   res.Config.Range.Start,
			N:       res.Config.Range.Count,
			K:       res.Config.BatchSize,
		})
	}
}

type countRow struct {
	Element int64 `json:"element"`
	Count   int64 `json:"count"`
}

func (s *Server) handleCounts(c echo.Context) error {
	counts := s.session(c).Counts()
	rows := make([]countRow, 0, len(counts))
	for _, ec := range counts {
		rows = append(rows, countRow{Element: ec.Element, Count: ec.Count})
	}
	return c.JSON(http.StatusOK, rows)
}

// snapshotKind parses the ?kind= query, defaulting to full.
func snapshotKind(c echo.Context) (string, error) {
	kind := c.QueryParam("kind")
	switch kind {
	case "", "full":
		return "full", nil
	case "quick":
		return "quick", nil
	default:
		return "", fmt.Errorf("unknown snapshot kind %q", kind)
	}
}

func (s *Server) handleSnapshotGet(c echo.Context) error {
	kind, err := snapshotKind(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: errInvalidConfiguration, Detail: err.Error()})
	}
	sess := s.session(c)

	var data []byte
	if kind == "quick" {
		data = sess.SnapshotQuick()
	} else {
		data = sess.SnapshotFull()
	}
	telemetry.ObserveSnapshotSave(kind)

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s-%s.json", sess.ID, kind))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (s *Server) handleSnapshotPut(c echo.Context) error {
	kind, err := snapshotKind(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: errInvalidConfiguration, Detail: err.Error()})
	}
	data, err := snapshotPayload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: errMalformedSnapshot, Detail: err.Error()})
	}
	sess := s.session(c)

	var rep fairdraw.Report
	if kind == "quick" {
		rep, err = sess.RestoreQuick(data)
	} else {
		rep, err = sess.RestoreFull(data)
	}
	if err != nil {
		return s.fail(c, err)
	}
	telemetry.ObserveSnapshotLoad(kind)

	return c.JSON(http.StatusOK, map[string]any{
		"config":  configOf(sess.Config()),
		"warning": warning(rep),
	})
}

// snapshotPayload reads the snapshot from a multipart "file" field when the
// request is a form upload, or from the raw body otherwise.
func snapshotPayload(c echo.Context) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty snapshot payload")
	}
	return data, nil
}

func (s *Server) handleClean(c echo.Context) error {
	sess := s.session(c)
	removed := sess.Clean()
	if removed == nil {
		removed = []int64{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"removed": removed,
		"warning": warning(sess.Validate()),
	})
}

func (s *Server) handleReset(c echo.Context) error {
	sess := s.session(c)
	sess.Reset()
	return c.JSON(http.StatusOK, map[string]any{
		"config": configOf(sess.Config()),
	})
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusNotImplemented, errorBody{Error: "history_disabled"})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Error: errInvalidConfiguration, Detail: "limit must be an integer"})
		}
		limit = n
	}
	recs, err := s.history.RecentDraws(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}
