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

package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/pulse/pkg/analyzer"
	"github.com/carverauto/pulse/pkg/models"
)

const (
	analysisInterval = time.Hour
	rollupInterval   = time.Hour
	pruneInterval    = 24 * time.Hour

	analysisWindowDays = 1
)

// job is one scheduled task. The running flag keeps a slow run from
// overlapping the next tick; the skipped tick is simply dropped.
type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
	running  atomic.Bool
}

// jobRunner drives the periodic analysis, rollup, pruning and notification
// sweeps. One run at a time per job type.
type jobRunner struct {
	server *Server
	jobs   []*job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newJobRunner(s *Server) *jobRunner {
	r := &jobRunner{server: s}

	if s.config.Performance.Enabled {
		r.jobs = append(r.jobs,
			&job{name: "analysis", interval: analysisInterval, run: s.runAnalysis},
			&job{name: "rollup", interval: rollupInterval, run: s.runRollup},
		)
	}

	if s.config.AnomalyDetection.Enabled {
		r.jobs = append(r.jobs,
			&job{name: "anomaly_sweep", interval: analysisInterval, run: s.runAnomalySweep},
		)
	}

	sweep := s.config.Notifications.PendingSweep
	if sweep <= 0 {
		sweep = time.Minute
	}

	r.jobs = append(r.jobs,
		&job{name: "notify_pending", interval: sweep, run: s.runNotifyPending},
		&job{name: "prune", interval: pruneInterval, run: s.runPrune},
	)

	return r
}

func (r *jobRunner) start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	for _, j := range r.jobs {
		r.wg.Add(1)

		go r.loop(ctx, j)
	}
}

func (r *jobRunner) stop() {
	if r.cancel == nil {
		return
	}

	r.cancel()
	r.wg.Wait()
}

func (r *jobRunner) loop(ctx context.Context, j *job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !j.running.CompareAndSwap(false, true) {
				r.server.logger.Warn().Str("job", j.name).Msg("Previous run still in flight, skipping tick")
				continue
			}

			j.run(ctx)
			j.running.Store(false)
		}
	}
}

func (s *Server) runAnalysis(ctx context.Context) {
	report, err := s.Performance.Analyze(ctx, analysisWindowDays)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled analysis failed")
		return
	}

	s.logger.Info().
		Int("total_requests", report.Overall.TotalRequests).
		Int("bottlenecks", len(report.Bottlenecks)).
		Msg("Scheduled analysis complete")

	insights, err := s.SlowQueries.Analyze(ctx, 0)
	if err != nil {
		s.logger.Error().Err(err).Msg("Slow query analysis failed")
		return
	}

	if insights.TotalSlowQueries > 0 {
		s.logger.Info().
			Int("slow_queries", insights.TotalSlowQueries).
			Str("most_affected_table", insights.MostAffectedTable).
			Msg("Slow query analysis complete")
	}
}

func (s *Server) runRollup(ctx context.Context) {
	if err := s.Performance.StoreAggregatedMetrics(ctx, models.PeriodHour); err != nil {
		s.logger.Error().Err(err).Msg("Metric rollup failed")
	}
}

func (s *Server) runAnomalySweep(ctx context.Context) {
	for _, metricType := range s.config.AnomalyDetection.MonitoredMetrics {
		result, err := s.AnomalyDetector.DetectAnomalies(ctx, metricType)
		if err != nil {
			s.logger.Error().Err(err).Str("metric_type", metricType).Msg("Anomaly detection failed")
			continue
		}

		if result.Status == analyzer.StatusInsufficientData {
			s.logger.Debug().
				Str("metric_type", metricType).
				Int("current_count", result.CurrentCount).
				Msg("Insufficient baseline for anomaly detection")

			continue
		}

		if result.AnomaliesDetected > 0 {
			s.logger.Warn().
				Str("metric_type", metricType).
				Int("anomalies", result.AnomaliesDetected).
				Msg("Anomalies detected")
		}
	}
}

func (s *Server) runNotifyPending(ctx context.Context) {
	if err := s.AlertManager.NotifyPending(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Pending notification sweep failed")
	}
}

func (s *Server) runPrune(ctx context.Context) {
	deleted, err := s.DB.CleanOldData(ctx, s.config.Retention)
	if err != nil {
		s.logger.Error().Err(err).Msg("Retention pruning failed")
		return
	}

	for entity, count := range deleted {
		if count > 0 {
			s.logger.Info().Str("entity", entity).Int64("deleted", count).Msg("Pruned old data")
		}
	}
}
