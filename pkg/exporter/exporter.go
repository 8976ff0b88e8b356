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

// Package exporter renders a pull-based exposition of the trailing hour of
// trace and query data. Rendering is a pure read; nothing is mutated.
package exporter

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

const defaultNamespace = "pulse"

// Buckets in milliseconds, matching the response-time thresholds the
// detectors care about.
var durationBucketsMs = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Test hook for a deterministic clock.
var nowFn = time.Now

// Summary is the compact numeric snapshot of the trailing hour.
type Summary struct {
	TotalRequests   int     `json:"total_requests"`
	AvgResponseTime float64 `json:"avg_response_time"`
	ErrorCount      int     `json:"error_count"`
	AvgMemoryMB     float64 `json:"avg_memory_mb"`
	ProcessRSSMB    float64 `json:"process_rss_mb"`
}

// Exporter renders trace and query snapshots in Prometheus text exposition
// format.
type Exporter struct {
	config models.ExporterConfig
	db     db.Service
	logger logger.Logger
}

// New creates an exporter backed by the given store.
func New(config models.ExporterConfig, database db.Service, log logger.Logger) *Exporter {
	if config.Namespace == "" {
		config.Namespace = defaultNamespace
	}

	return &Exporter{
		config: config,
		db:     database,
		logger: log,
	}
}

// ExportText renders the trailing hour as Prometheus text exposition. Returns
// an empty string when exporting is disabled. Each call builds a fresh
// registry; the output reflects stored data only, never process state carried
// between calls.
func (e *Exporter) ExportText(ctx context.Context) (string, error) {
	if !e.config.Enabled {
		return "", nil
	}

	since := nowFn().UTC().Add(-time.Hour)

	traces, err := e.db.GetTracesSince(ctx, since)
	if err != nil {
		return "", fmt.Errorf("export traces: %w", err)
	}

	queries, err := e.db.GetQueryLogsSince(ctx, since)
	if err != nil {
		return "", fmt.Errorf("export queries: %w", err)
	}

	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: e.config.Namespace,
		Name:      "http_requests_total",
		Help:      "Requests captured in the trailing hour, by method and status.",
	}, []string{"method", "status"})

	requestDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: e.config.Namespace,
		Name:      "http_request_duration_ms",
		Help:      "Request duration in milliseconds over the trailing hour.",
		Buckets:   durationBucketsMs,
	})

	requestMemory := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: e.config.Namespace,
		Name:      "http_request_memory_avg_bytes",
		Help:      "Average memory delta per request over the trailing hour.",
	})

	queryDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: e.config.Namespace,
		Name:      "sql_query_duration_ms",
		Help:      "SQL query duration in milliseconds over the trailing hour.",
		Buckets:   durationBucketsMs,
	})

	slowQueries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: e.config.Namespace,
		Name:      "sql_slow_queries_total",
		Help:      "Slow queries captured in the trailing hour.",
	})

	registry.MustRegister(requestsTotal, requestDuration, requestMemory, queryDuration, slowQueries)

	var totalMemory float64

	for _, t := range traces {
		requestsTotal.WithLabelValues(t.Method, strconv.Itoa(t.StatusCode)).Inc()
		requestDuration.Observe(t.DurationMs)
		totalMemory += float64(t.MemoryUsage)
	}

	if len(traces) > 0 {
		requestMemory.Set(totalMemory / float64(len(traces)))
	}

	for _, q := range queries {
		queryDuration.Observe(q.DurationMs)

		if q.IsSlow {
			slowQueries.Inc()
		}
	}

	families, err := registry.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var sb strings.Builder

	encoder := expfmt.NewEncoder(&sb, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return "", fmt.Errorf("encode metric family: %w", err)
		}
	}

	return sb.String(), nil
}

// ExportSummary returns the compact numeric snapshot of the trailing hour,
// plus the resident set size of this process. RSS lookup failures degrade to
// zero rather than failing the summary.
func (e *Exporter) ExportSummary(ctx context.Context) (*Summary, error) {
	since := nowFn().UTC().Add(-time.Hour)

	traces, err := e.db.GetTracesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("export summary: %w", err)
	}

	summary := &Summary{TotalRequests: len(traces)}

	var (
		totalDuration float64
		totalMemory   float64
	)

	for _, t := range traces {
		totalDuration += t.DurationMs
		totalMemory += float64(t.MemoryUsage)

		if t.IsError() {
			summary.ErrorCount++
		}
	}

	if len(traces) > 0 {
		n := float64(len(traces))
		summary.AvgResponseTime = round2(totalDuration / n)
		summary.AvgMemoryMB = round2(totalMemory / n / (1024 * 1024))
	}

	summary.ProcessRSSMB = e.processRSSMB(ctx)

	return summary, nil
}

func (e *Exporter) processRSSMB(ctx context.Context) float64 {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		e.logger.Debug().Err(err).Msg("Failed to look up own process")
		return 0
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		e.logger.Debug().Err(err).Msg("Failed to read process memory info")
		return 0
	}

	return round2(float64(mem.RSS) / (1024 * 1024))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
