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

package exporter

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

func newTestExporter(t *testing.T, enabled bool) (*Exporter, *db.MockService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockDB := db.NewMockService(ctrl)

	return New(models.ExporterConfig{Enabled: enabled, Namespace: "pulse"}, mockDB, logger.NewTestLogger()), mockDB
}

func TestExportTextDisabled(t *testing.T) {
	exporter, _ := newTestExporter(t, false)

	text, err := exporter.ExportText(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExportTextRendersMetrics(t *testing.T) {
	exporter, mockDB := newTestExporter(t, true)

	now := time.Now().UTC()

	traces := []*models.Trace{
		{Method: "GET", StatusCode: 200, DurationMs: 120, MemoryUsage: 1024, CreatedAt: now},
		{Method: "POST", StatusCode: 500, DurationMs: 800, MemoryUsage: 2048, CreatedAt: now},
	}

	queries := []*models.QueryLog{
		{SQL: "SELECT 1", DurationMs: 5},
		{SQL: "SELECT slow", DurationMs: 1500, IsSlow: true},
	}

	mockDB.EXPECT().GetTracesSince(gomock.Any(), gomock.Any()).Return(traces, nil)
	mockDB.EXPECT().GetQueryLogsSince(gomock.Any(), gomock.Any()).Return(queries, nil)

	text, err := exporter.ExportText(context.Background())
	require.NoError(t, err)

	assert.Contains(t, text, "pulse_http_requests_total")
	assert.Contains(t, text, `method="GET"`)
	assert.Contains(t, text, `status="500"`)
	assert.Contains(t, text, "pulse_http_request_duration_ms_bucket")
	assert.Contains(t, text, "pulse_sql_query_duration_ms_bucket")
	assert.Contains(t, text, "pulse_sql_slow_queries_total 1")
}

func TestExportSummary(t *testing.T) {
	exporter, mockDB := newTestExporter(t, true)

	now := time.Now().UTC()

	traces := []*models.Trace{
		{Method: "GET", StatusCode: 200, DurationMs: 100, MemoryUsage: 1024 * 1024, CreatedAt: now},
		{Method: "GET", StatusCode: 500, DurationMs: 300, MemoryUsage: 3 * 1024 * 1024, CreatedAt: now},
	}

	mockDB.EXPECT().GetTracesSince(gomock.Any(), gomock.Any()).Return(traces, nil)

	summary, err := exporter.ExportSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalRequests)
	assert.InDelta(t, 200.0, summary.AvgResponseTime, 0.001)
	assert.Equal(t, 1, summary.ErrorCount)
	assert.InDelta(t, 2.0, summary.AvgMemoryMB, 0.001)
}

func TestExportSummaryEmpty(t *testing.T) {
	exporter, mockDB := newTestExporter(t, true)

	mockDB.EXPECT().GetTracesSince(gomock.Any(), gomock.Any()).Return(nil, nil)

	summary, err := exporter.ExportSummary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.TotalRequests)
	assert.Zero(t, summary.AvgResponseTime)
	assert.Zero(t, summary.ErrorCount)
}
