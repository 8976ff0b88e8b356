/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package db provides the relational storage collaborator for traces, query
// logs, metric points and alerts.
package db

import (
	"context"
	"time"

	"github.com/carverauto/pulse/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/carverauto/pulse/pkg/db Service

// TraceFilter narrows trace listings for the read API.
type TraceFilter struct {
	Route      string
	Since      time.Time
	Until      time.Time
	StatusCode int
	ErrorsOnly bool
	Limit      int
	Offset     int
}

// AlertFilter narrows alert listings for the read API.
type AlertFilter struct {
	AlertType  string
	Severity   models.Severity
	Unresolved bool
	Since      time.Time
	Limit      int
	Offset     int
}

// Service represents all storage operations used by the pipeline. Each insert
// is independent; no cross-entity transactional guarantees are provided.
type Service interface {
	Close() error

	// Trace operations.

	StoreTrace(ctx context.Context, trace *models.Trace) error
	GetTraceByID(ctx context.Context, traceID string) (*models.Trace, error)
	GetTracesSince(ctx context.Context, since time.Time) ([]*models.Trace, error)
	GetTracesBetween(ctx context.Context, start, end time.Time) ([]*models.Trace, error)
	ListTraces(ctx context.Context, filter TraceFilter) ([]*models.Trace, error)

	// Query log operations.

	StoreQueryLogs(ctx context.Context, logs []*models.QueryLog) error
	GetQueriesForTrace(ctx context.Context, traceID string) ([]*models.QueryLog, error)
	GetQueryLogsSince(ctx context.Context, since time.Time) ([]*models.QueryLog, error)
	GetSlowQueries(ctx context.Context, since time.Time, thresholdMs float64, limit int) ([]*models.QueryLog, error)

	// Metric point operations.

	StoreMetricPoint(ctx context.Context, point *models.MetricPoint) error
	GetMetricPointsSince(ctx context.Context, metricType string, since time.Time) ([]*models.MetricPoint, error)

	// Alert operations.

	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlertByID(ctx context.Context, id int64) (*models.Alert, error)
	GetRecentAlertByFingerprint(ctx context.Context, fingerprint, alertType string, since time.Time) (*models.Alert, error)
	CountNotifiedAlertsSince(ctx context.Context, fingerprint string, since time.Time) (int, error)
	ListPendingAlerts(ctx context.Context) ([]*models.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, error)
	MarkAlertNotified(ctx context.Context, id int64, channels []string, at time.Time) error
	MarkAlertResolved(ctx context.Context, id int64, at time.Time) error

	// Maintenance operations.

	CleanOldData(ctx context.Context, retention models.RetentionConfig) (map[string]int64, error)
}
