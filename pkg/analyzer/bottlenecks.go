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

package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/carverauto/pulse/pkg/models"
)

// Finding is one bottleneck detected by a threshold check.
type Finding struct {
	Type     string          `json:"type"`
	Severity models.Severity `json:"severity"`
	Message  string          `json:"message"`
	Routes   []string        `json:"routes"`
}

// IdentifyBottlenecks runs the three fixed threshold checks over the trailing
// windowDays of traces. Every non-empty finding is also published as a
// threshold-exceeded event; deduplication is the alert manager's concern, not
// this detector's.
func (a *PerformanceAnalyzer) IdentifyBottlenecks(ctx context.Context, windowDays int) ([]Finding, error) {
	if windowDays <= 0 {
		windowDays = 1
	}

	since := nowFn().UTC().AddDate(0, 0, -windowDays)

	traces, err := a.db.GetTracesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("identify bottlenecks %dd: %w", windowDays, err)
	}

	return a.findBottlenecks(ctx, traces), nil
}

func (a *PerformanceAnalyzer) findBottlenecks(ctx context.Context, traces []*models.Trace) []Finding {
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
	}

	thresholds := a.config.Thresholds

	var (
		slowRoutes   []string
		memoryRoutes []string
		queryRoutes  []string
	)

	for route, acc := range byRoute {
		n := float64(acc.count)

		if acc.totalDur/n > thresholds.ResponseTimeMs {
			slowRoutes = append(slowRoutes, route)
		}

		if acc.totalMemory/n/bytesPerMB > thresholds.MemoryUsageMB {
			memoryRoutes = append(memoryRoutes, route)
		}

		if acc.totalQuery/n > thresholds.QueryCount {
			queryRoutes = append(queryRoutes, route)
		}
	}

	var findings []Finding

	if len(slowRoutes) > 0 {
		sort.Strings(slowRoutes)
		findings = append(findings, Finding{
			Type:     models.AlertTypeSlowRoutes,
			Severity: models.SeverityWarning,
			Message: fmt.Sprintf("%d route(s) with average response time above %.0fms",
				len(slowRoutes), thresholds.ResponseTimeMs),
			Routes: slowRoutes,
		})
	}

	if len(memoryRoutes) > 0 {
		sort.Strings(memoryRoutes)
		findings = append(findings, Finding{
			Type:     models.AlertTypeHighMemory,
			Severity: models.SeverityError,
			Message: fmt.Sprintf("%d route(s) with average memory usage above %.0fMB",
				len(memoryRoutes), thresholds.MemoryUsageMB),
			Routes: memoryRoutes,
		})
	}

	if len(queryRoutes) > 0 {
		sort.Strings(queryRoutes)
		findings = append(findings, Finding{
			Type:     models.AlertTypeExcessiveQueries,
			Severity: models.SeverityWarning,
			Message: fmt.Sprintf("%d route(s) with average query count above %.0f",
				len(queryRoutes), thresholds.QueryCount),
			Routes: queryRoutes,
		})
	}

	for _, finding := range findings {
		err := a.publisher.PublishThresholdExceeded(ctx, models.ThresholdExceededData{
			Type:      finding.Type,
			Severity:  finding.Severity,
			Message:   finding.Message,
			Routes:    finding.Routes,
			Timestamp: nowFn().UTC(),
		})
		if err != nil {
			a.logger.Warn().Err(err).Str("type", finding.Type).Msg("Failed to publish threshold event")
		}
	}

	return findings
}
