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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

// capturingPublisher records every published event for assertions.
type capturingPublisher struct {
	thresholds []models.ThresholdExceededData
}

func (p *capturingPublisher) PublishTraceRecorded(_ context.Context, _ models.TraceRecordedData) error {
	return nil
}

func (p *capturingPublisher) PublishThresholdExceeded(_ context.Context, data models.ThresholdExceededData) error {
	p.thresholds = append(p.thresholds, data)
	return nil
}

func (p *capturingPublisher) PublishAnomalyDetected(_ context.Context, _ models.AnomalyDetectedData) error {
	return nil
}

func newBottleneckAnalyzer(t *testing.T) (*PerformanceAnalyzer, *db.MockService, *capturingPublisher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockDB := db.NewMockService(ctrl)
	publisher := &capturingPublisher{}
	analyzer := NewPerformanceAnalyzer(defaultThresholds(), models.CacheConfig{}, mockDB, publisher, logger.NewTestLogger())

	return analyzer, mockDB, publisher
}

func heavyTrace(route string, durationMs float64, memoryBytes int64, queryCount int) *models.Trace {
	return &models.Trace{
		Method:      "GET",
		URL:         "/" + route,
		RouteName:   &route,
		StatusCode:  200,
		DurationMs:  durationMs,
		MemoryUsage: memoryBytes,
		QueryCount:  queryCount,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestIdentifyBottlenecksPerThreshold(t *testing.T) {
	cases := []struct {
		name         string
		traces       []*models.Trace
		wantType     string
		wantSeverity models.Severity
		wantRoutes   []string
	}{
		{
			name: "slow routes at warning",
			traces: []*models.Trace{
				heavyTrace("reports.generate", 5000, 0, 0),
				heavyTrace("reports.generate", 4000, 0, 0),
				heavyTrace("users.index", 100, 0, 0),
			},
			wantType:     models.AlertTypeSlowRoutes,
			wantSeverity: models.SeverityWarning,
			wantRoutes:   []string{"reports.generate"},
		},
		{
			name: "high memory at error",
			traces: []*models.Trace{
				heavyTrace("exports.csv", 100, 512*1024*1024, 0),
				heavyTrace("users.index", 100, 1024, 0),
			},
			wantType:     models.AlertTypeHighMemory,
			wantSeverity: models.SeverityError,
			wantRoutes:   []string{"exports.csv"},
		},
		{
			name: "excessive queries at warning",
			traces: []*models.Trace{
				heavyTrace("orders.index", 100, 0, 80),
				heavyTrace("users.index", 100, 0, 2),
			},
			wantType:     models.AlertTypeExcessiveQueries,
			wantSeverity: models.SeverityWarning,
			wantRoutes:   []string{"orders.index"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analyzer, mockDB, publisher := newBottleneckAnalyzer(t)

			mockDB.EXPECT().GetTracesSince(gomock.Any(), gomock.Any()).Return(tc.traces, nil)

			findings, err := analyzer.IdentifyBottlenecks(context.Background(), 1)
			require.NoError(t, err)
			require.Len(t, findings, 1)

			assert.Equal(t, tc.wantType, findings[0].Type)
			assert.Equal(t, tc.wantSeverity, findings[0].Severity)
			assert.Equal(t, tc.wantRoutes, findings[0].Routes)
			assert.NotEmpty(t, findings[0].Message)

			require.Len(t, publisher.thresholds, 1)
			assert.Equal(t, tc.wantType, publisher.thresholds[0].Type)
			assert.Equal(t, tc.wantSeverity, publisher.thresholds[0].Severity)
			assert.Equal(t, tc.wantRoutes, publisher.thresholds[0].Routes)
		})
	}
}

func TestIdentifyBottlenecksAllThreeWithSortedRoutes(t *testing.T) {
	analyzer, mockDB, publisher := newBottleneckAnalyzer(t)

	traces := []*models.Trace{
		heavyTrace("zeta.slow", 9000, 0, 0),
		heavyTrace("alpha.slow", 8000, 0, 0),
		heavyTrace("exports.csv", 100, 512*1024*1024, 0),
		heavyTrace("orders.index", 100, 0, 80),
	}

	mockDB.EXPECT().GetTracesSince(gomock.Any(), gomock.Any()).Return(traces, nil)

	findings, err := analyzer.IdentifyBottlenecks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, findings, 3)

	assert.Equal(t, models.AlertTypeSlowRoutes, findings[0].Type)
	assert.Equal(t, []string{"alpha.slow", "zeta.slow"}, findings[0].Routes)
	assert.Equal(t, models.AlertTypeHighMemory, findings[1].Type)
	assert.Equal(t, models.AlertTypeExcessiveQueries, findings[2].Type)

	// One event per finding per call.
	assert.Len(t, publisher.thresholds, 3)
}
