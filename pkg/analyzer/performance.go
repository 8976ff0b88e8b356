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

// Package analyzer computes performance statistics over stored traces and
// queries: rollups, percentiles, bottleneck findings, statistical anomalies
// and slow-query recommendations.
package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/events"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

const (
	topRoutesLimit = 20

	bytesPerMB = 1024 * 1024
)

// Test hook for a deterministic clock.
var nowFn = time.Now

// OverallMetrics summarizes all traces in the analysis window.
type OverallMetrics struct {
	TotalRequests   int     `json:"total_requests"`
	AvgResponseTime float64 `json:"avg_response_time"`
	P50ResponseTime float64 `json:"p50_response_time"`
	P95ResponseTime float64 `json:"p95_response_time"`
	P99ResponseTime float64 `json:"p99_response_time"`
	AvgMemoryMB     float64 `json:"avg_memory_mb"`
	AvgQueryCount   float64 `json:"avg_query_count"`
	AvgQueryTimeMs  float64 `json:"avg_query_time_ms"`
	ErrorRate       float64 `json:"error_rate"`
}

// RouteMetrics summarizes one route within the analysis window.
type RouteMetrics struct {
	Route         string  `json:"route"`
	RequestCount  int     `json:"request_count"`
	AvgDuration   float64 `json:"avg_duration"`
	MaxDuration   float64 `json:"max_duration"`
	AvgMemoryMB   float64 `json:"avg_memory_mb"`
	AvgQueryCount float64 `json:"avg_query_count"`
	ErrorRate     float64 `json:"error_rate"`
}

// ErrorBreakdown groups error responses by status code and route.
type ErrorBreakdown struct {
	TotalErrors  int            `json:"total_errors"`
	ByStatusCode map[int]int    `json:"by_status_code"`
	ByRoute      map[string]int `json:"by_route"`
}

// HourlyPoint is one hour of the trend series.
type HourlyPoint struct {
	Hour         time.Time `json:"hour"`
	RequestCount int       `json:"request_count"`
	AvgDuration  float64   `json:"avg_duration"`
	ErrorCount   int       `json:"error_count"`
}

// Report is the full output of one analysis run.
type Report struct {
	WindowDays  int            `json:"window_days"`
	GeneratedAt time.Time      `json:"generated_at"`
	Overall     OverallMetrics `json:"overall"`
	Routes      []RouteMetrics `json:"routes"`
	Errors      ErrorBreakdown `json:"errors"`
	HourlyTrend []HourlyPoint  `json:"hourly_trend"`
	Bottlenecks []Finding      `json:"bottlenecks"`
}

type cacheEntry struct {
	report  *Report
	expires time.Time
}

// PerformanceAnalyzer computes aggregate statistics over stored traces.
// Analysis results are cached per window size for the configured TTL; the
// cache is an optimization only and never changes results.
type PerformanceAnalyzer struct {
	config    models.PerformanceConfig
	cacheCfg  models.CacheConfig
	db        db.Service
	publisher events.Publisher
	logger    logger.Logger

	mu    sync.Mutex
	cache map[int]cacheEntry
}

// NewPerformanceAnalyzer creates an analyzer backed by the given store.
func NewPerformanceAnalyzer(
	config models.PerformanceConfig,
	cacheCfg models.CacheConfig,
	database db.Service,
	publisher events.Publisher,
	log logger.Logger,
) *PerformanceAnalyzer {
	return &PerformanceAnalyzer{
		config:    config,
		cacheCfg:  cacheCfg,
		db:        database,
		publisher: publisher,
		logger:    log,
		cache:     make(map[int]cacheEntry),
	}
}

// Analyze produces a full report over the trailing windowDays of traces.
func (a *PerformanceAnalyzer) Analyze(ctx context.Context, windowDays int) (*Report, error) {
	if windowDays <= 0 {
		windowDays = 1
	}

	if report := a.cached(windowDays); report != nil {
		return report, nil
	}

	now := nowFn().UTC()
	since := now.AddDate(0, 0, -windowDays)

	traces, err := a.db.GetTracesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("analyze window %dd: %w", windowDays, err)
	}

	report := &Report{
		WindowDays:  windowDays,
		GeneratedAt: now,
		Overall:     overallMetrics(traces),
		Routes:      routeMetrics(traces),
		Errors:      errorBreakdown(traces),
		HourlyTrend: hourlyTrend(traces),
		Bottlenecks: a.findBottlenecks(ctx, traces),
	}

	a.storeCached(windowDays, report)

	return report, nil
}

func (a *PerformanceAnalyzer) cached(windowDays int) *Report {
	if !a.cacheCfg.Enabled {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.cache[windowDays]
	if !ok || nowFn().After(entry.expires) {
		return nil
	}

	return entry.report
}

func (a *PerformanceAnalyzer) storeCached(windowDays int, report *Report) {
	if !a.cacheCfg.Enabled {
		return
	}

	ttl := time.Duration(a.cacheCfg.TTLSeconds) * time.Second

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache[windowDays] = cacheEntry{report: report, expires: nowFn().Add(ttl)}
}

func overallMetrics(traces []*models.Trace) OverallMetrics {
	if len(traces) == 0 {
		return OverallMetrics{}
	}

	durations := make([]float64, 0, len(traces))

	var (
		totalDuration float64
		totalMemory   float64
		totalQueries  float64
		totalQueryMs  float64
		errorCount    int
	)

	for _, t := range traces {
		durations = append(durations, t.DurationMs)
		totalDuration += t.DurationMs
		totalMemory += float64(t.MemoryUsage)
		totalQueries += float64(t.QueryCount)
		totalQueryMs += t.QueryTimeMs

		if t.IsError() {
			errorCount++
		}
	}

	n := float64(len(traces))

	return OverallMetrics{
		TotalRequests:   len(traces),
		AvgResponseTime: round2(totalDuration / n),
		P50ResponseTime: Percentile(durations, 50),
		P95ResponseTime: Percentile(durations, 95),
		P99ResponseTime: Percentile(durations, 99),
		AvgMemoryMB:     round2(totalMemory / n / bytesPerMB),
		AvgQueryCount:   round2(totalQueries / n),
		AvgQueryTimeMs:  round2(totalQueryMs / n),
		ErrorRate:       round2(float64(errorCount) / n * 100),
	}
}

// Percentile returns the p-th percentile of values using the nearest-rank
// method: index = ceil(n*p/100)-1 over the ascending sort, clamped to the
// valid range. An empty input yields 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Ceil(float64(len(sorted))*p/100)) - 1
	if idx < 0 {
		idx = 0
	}

	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return round2(sorted[idx])
}

type routeAccum struct {
	count       int
	totalDur    float64
	maxDur      float64
	totalMemory float64
	totalQuery  float64
	errors      int
}

func routeMetrics(traces []*models.Trace) []RouteMetrics {
	byRoute := make(map[string]*routeAccum)

	for _, t := range traces {
		if t.RouteName == nil || *t.RouteName == "" {
			continue
		}

		acc, ok := byRoute[*t.RouteName]
		if !ok {
			acc = &routeAccum{}
			byRoute[*t.RouteName] = acc
		}

		acc.count++
		acc.totalDur += t.DurationMs
		acc.totalMemory += float64(t.MemoryUsage)
		acc.totalQuery += float64(t.QueryCount)

		if t.DurationMs > acc.maxDur {
			acc.maxDur = t.DurationMs
		}

		if t.IsError() {
			acc.errors++
		}
	}

	routes := make([]RouteMetrics, 0, len(byRoute))

	for name, acc := range byRoute {
		n := float64(acc.count)

		routes = append(routes, RouteMetrics{
			Route:         name,
			RequestCount:  acc.count,
			AvgDuration:   round2(acc.totalDur / n),
			MaxDuration:   round2(acc.maxDur),
			AvgMemoryMB:   round2(acc.totalMemory / n / bytesPerMB),
			AvgQueryCount: round2(acc.totalQuery / n),
			ErrorRate:     round2(float64(acc.errors) / n * 100),
		})
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].RequestCount != routes[j].RequestCount {
			return routes[i].RequestCount > routes[j].RequestCount
		}

		return routes[i].Route < routes[j].Route
	})

	if len(routes) > topRoutesLimit {
		routes = routes[:topRoutesLimit]
	}

	return routes
}

func errorBreakdown(traces []*models.Trace) ErrorBreakdown {
	breakdown := ErrorBreakdown{
		ByStatusCode: make(map[int]int),
		ByRoute:      make(map[string]int),
	}

	for _, t := range traces {
		if !t.IsError() {
			continue
		}

		breakdown.TotalErrors++
		breakdown.ByStatusCode[t.StatusCode]++
		breakdown.ByRoute[t.Route()]++
	}

	return breakdown
}

func hourlyTrend(traces []*models.Trace) []HourlyPoint {
	type hourAccum struct {
		count    int
		totalDur float64
		errors   int
	}

	byHour := make(map[time.Time]*hourAccum)

	for _, t := range traces {
		hour := t.CreatedAt.Truncate(time.Hour)

		acc, ok := byHour[hour]
		if !ok {
			acc = &hourAccum{}
			byHour[hour] = acc
		}

		acc.count++
		acc.totalDur += t.DurationMs

		if t.IsError() {
			acc.errors++
		}
	}

	points := make([]HourlyPoint, 0, len(byHour))

	for hour, acc := range byHour {
		points = append(points, HourlyPoint{
			Hour:         hour,
			RequestCount: acc.count,
			AvgDuration:  round2(acc.totalDur / float64(acc.count)),
			ErrorCount:   acc.errors,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Hour.Before(points[j].Hour) })

	return points
}

// StoreAggregatedMetrics computes and persists global and per-route average
// response-time points for one period bucket. The rollup feeds the anomaly
// detector's baseline.
func (a *PerformanceAnalyzer) StoreAggregatedMetrics(ctx context.Context, period string) error {
	window, err := periodWindow(period)
	if err != nil {
		return err
	}

	now := nowFn().UTC()
	start := now.Add(-window)

	traces, err := a.db.GetTracesBetween(ctx, start, now)
	if err != nil {
		return fmt.Errorf("rollup %s: %w", period, err)
	}

	if len(traces) == 0 {
		return nil
	}

	var total float64

	byRoute := make(map[string]*routeAccum)

	for _, t := range traces {
		total += t.DurationMs

		route := t.Route()

		acc, ok := byRoute[route]
		if !ok {
			acc = &routeAccum{}
			byRoute[route] = acc
		}

		acc.count++
		acc.totalDur += t.DurationMs
	}

	points := []*models.MetricPoint{{
		MetricType:        models.MetricResponseTime,
		MetricName:        "global",
		Value:             round2(total / float64(len(traces))),
		AggregationPeriod: period,
		PeriodStart:       start,
		PeriodEnd:         now,
	}}

	for route, acc := range byRoute {
		points = append(points, &models.MetricPoint{
			MetricType:        models.MetricResponseTime,
			MetricName:        route,
			Value:             round2(acc.totalDur / float64(acc.count)),
			AggregationPeriod: period,
			PeriodStart:       start,
			PeriodEnd:         now,
			Metadata:          map[string]any{"request_count": acc.count},
		})
	}

	for _, point := range points {
		if err := a.db.StoreMetricPoint(ctx, point); err != nil {
			return fmt.Errorf("rollup %s: %w", period, err)
		}
	}

	return nil
}

func periodWindow(period string) (time.Duration, error) {
	switch period {
	case models.PeriodHour:
		return time.Hour, nil
	case models.PeriodDay:
		return 24 * time.Hour, nil
	case models.PeriodWeek:
		return 7 * 24 * time.Hour, nil
	case models.PeriodMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown aggregation period %q", period)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
