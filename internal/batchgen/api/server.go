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

// Package api implements the HTTP surface of the batch service. Every engine
// operation is exposed under /v1/sessions/:id; configuration and snapshot
// problems map to 400 with a taxonomy string, range mismatches ride along in
// 200 responses as warnings.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"fairdraw"
	"fairdraw/internal/batchgen/core"
	"fairdraw/internal/batchgen/history"
	"fairdraw/internal/batchgen/telemetry"
	"fairdraw/internal/sinks"
)

// Error taxonomy strings, stable across releases for API clients.
const (
	errInvalidConfiguration = "invalid_configuration"
	errMalformedSnapshot    = "malformed_snapshot"
	errInternal             = "internal_error"
)

// Server handles the HTTP requests of the batch service. History and journal
// are optional; nil disables the feature without changing any other route.
type Server struct {
	registry *core.Registry
	history  *history.Store
	journal  *sinks.DrawJournal
	log      *slog.Logger
}

// NewServer creates an API server over the given registry.
func NewServer(registry *core.Registry, hist *history.Store, journal *sinks.DrawJournal, log *slog.Logger) *Server {
	return &Server{registry: registry, history: hist, journal: journal, log: log}
}

// Register mounts all routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(telemetry.Handler()))

	g := e.Group("/v1/sessions/:id")
	g.GET("", s.handleInfo)
	g.PUT("/config", s.handleConfigure)
	g.POST("/draw", s.handleDraw)
	g.GET("/counts", s.handleCounts)
	g.GET("/snapshot", s.handleSnapshotGet)
	g.PUT("/snapshot", s.handleSnapshotPut)
	g.POST("/clean", s.handleClean)
	g.POST("/reset", s.handleReset)
	g.GET("/history", s.handleHistory)
}

// errorBody is the uniform failure payload.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// fail maps an engine error to its HTTP response.
func (s *Server) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, fairdraw.ErrInvalidConfig):
		return c.JSON(http.StatusBadRequest, errorBody{Error: errInvalidConfiguration, Detail: err.Error()})
	case errors.Is(err, fairdraw.ErrMalformedSnapshot):
		telemetry.ObserveSnapshotLoadError()
		return c.JSON(http.StatusBadRequest, errorBody{Error: errMalformedSnapshot, Detail: err.Error()})
	default:
		s.log.Error("request failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, errorBody{Error: errInternal})
	}
}

// warning converts a non-clean report into the response payload, counting it.
// A clean report yields nil so the field is omitted.
func warning(rep fairdraw.Report) *reportBody {
	if rep.OK() {
		return nil
	}
	telemetry.ObserveRangeMismatch()
	return &reportBody{Stale: rep.Stale, Missing: rep.Missing}
}

// reportBody is the JSON shape of a validation report.
type reportBody struct {
	Stale   []int64 `json:"stale,omitempty"`
	Missing []int64 `json:"missing,omitempty"`
}
