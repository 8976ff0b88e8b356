/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package httpapi exposes the read-only API, the exposition endpoint and the
// live trace stream.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carverauto/pulse/pkg/core"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

// API serves the HTTP surface over an assembled pipeline.
type API struct {
	config models.HTTPConfig
	server *core.Server
	logger logger.Logger
	hub    *traceHub
}

// New creates the API and hooks the live trace stream into the recorder.
func New(config models.HTTPConfig, server *core.Server, log logger.Logger) *API {
	api := &API{
		config: config,
		server: server,
		logger: log,
		hub:    newTraceHub(log),
	}

	server.Recorder.Subscribe(api.hub.broadcast)

	return api
}

// Router builds the route tree.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/metrics", a.handleMetrics)
	r.Get("/healthz", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(a.apiKeyMiddleware)

		r.Get("/summary", a.handleSummary)
		r.Get("/analysis", a.handleAnalysis)
		r.Get("/bottlenecks", a.handleBottlenecks)
		r.Get("/anomalies", a.handleAnomalies)
		r.Get("/slow-queries", a.handleSlowQueries)

		r.Route("/traces", func(r chi.Router) {
			r.Get("/", a.handleListTraces)
			r.Get("/{traceID}", a.handleGetTrace)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", a.handleListAlerts)
			r.Get("/{alertID}", a.handleGetAlert)
			r.Post("/{alertID}/resolve", a.handleResolveAlert)
		})
	})

	r.Get("/ws/traces", a.handleTraceStream)

	return r
}

// HTTPServer wraps the router in a server bound to the configured address.
func (a *API) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              a.config.ListenAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
