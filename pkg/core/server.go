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

// Package core wires the capture, analysis and alerting components together
// and runs the scheduled background jobs.
package core

import (
	"context"
	"fmt"

	"github.com/carverauto/pulse/pkg/alerts"
	"github.com/carverauto/pulse/pkg/analyzer"
	"github.com/carverauto/pulse/pkg/config"
	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/events"
	"github.com/carverauto/pulse/pkg/exporter"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/querylog"
	"github.com/carverauto/pulse/pkg/tracer"
)

// Server owns the assembled pipeline and its background jobs.
type Server struct {
	config *config.Config
	logger logger.Logger

	DB              db.Service
	Publisher       events.Publisher
	Collector       *querylog.Collector
	Recorder        *tracer.Recorder
	Performance     *analyzer.PerformanceAnalyzer
	AnomalyDetector *analyzer.AnomalyDetector
	SlowQueries     *analyzer.SlowQueryAnalyzer
	AlertManager    *alerts.Manager
	Exporter        *exporter.Exporter

	jobs *jobRunner
}

// NewServer assembles the pipeline from config. It connects to the database,
// runs migrations and optionally connects the event publisher.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	database, err := db.New(ctx, &cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if migrator, ok := database.(interface{ Migrate(context.Context) error }); ok {
		if err := migrator.Migrate(ctx); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}

	if cfg.Events.URL != "" {
		js, err := events.Connect(ctx, &cfg.Events)
		if err != nil {
			// Event publication is optional; capture keeps working.
			log.Warn().Err(err).Str("url", cfg.Events.URL).Msg("Event publisher unavailable")
		} else {
			publisher = js
		}
	}

	return NewServerFromComponents(cfg, database, publisher, log), nil
}

// NewServerFromComponents assembles a pipeline around an existing store and
// publisher. Used when embedding the pipeline into a host application that
// owns its own database connection.
func NewServerFromComponents(cfg *config.Config, database db.Service, publisher events.Publisher, log logger.Logger) *Server {
	collector := querylog.NewCollector(cfg.Queries, database, log)

	// The global kill switch overrides the per-component flag, so a recorder
	// handed to an embedder stays inert when the pipeline is disabled.
	tracingCfg := cfg.Tracing
	tracingCfg.Enabled = cfg.Enabled && cfg.Tracing.Enabled

	s := &Server{
		config:          cfg,
		logger:          log,
		DB:              database,
		Publisher:       publisher,
		Collector:       collector,
		Recorder:        tracer.NewRecorder(tracingCfg, database, collector, publisher, log),
		Performance:     analyzer.NewPerformanceAnalyzer(cfg.Performance, cfg.Cache, database, publisher, log),
		AnomalyDetector: analyzer.NewAnomalyDetector(cfg.AnomalyDetection, database, publisher, log),
		SlowQueries:     analyzer.NewSlowQueryAnalyzer(cfg.Queries, database, log),
		AlertManager:    alerts.NewManager(cfg.Notifications, database, buildNotifiers(cfg, log), log),
		Exporter:        exporter.New(cfg.Exporter, database, log),
	}

	s.jobs = newJobRunner(s)

	return s
}

func buildNotifiers(cfg *config.Config, log logger.Logger) []alerts.Notifier {
	var notifiers []alerts.Notifier

	for _, webhook := range cfg.Notifications.Webhooks {
		notifiers = append(notifiers, alerts.NewWebhookAlerter(webhook, log))
	}

	notifiers = append(notifiers, alerts.NewTelegramAlerter(cfg.Notifications.Telegram, log))

	return notifiers
}

// Start launches the async trace worker and the scheduled jobs, then sends
// the startup notification.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Pipeline disabled, nothing to start")
		return nil
	}

	s.Recorder.Start(ctx)
	s.jobs.start(ctx)
	s.sendStartupNotification(ctx)

	s.logger.Info().Msg("Pipeline started")

	return nil
}

// Stop drains in-flight work and closes the database.
func (s *Server) Stop(ctx context.Context) error {
	s.sendShutdownNotification(ctx)
	s.jobs.stop()
	s.Recorder.Close()

	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	s.logger.Info().Msg("Pipeline stopped")

	return nil
}
