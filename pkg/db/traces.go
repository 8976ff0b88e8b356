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

package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/pulse/pkg/models"
)

const insertTraceSQL = `
INSERT INTO traces (
	trace_id,
	parent_trace_id,
	route_name,
	route_action,
	method,
	url,
	status_code,
	duration_ms,
	memory_usage,
	query_count,
	query_time_ms,
	ip_address,
	user_agent,
	user_id,
	headers,
	request_payload,
	metadata,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,
	$6,$7,$8,$9,$10,
	$11,$12,$13,$14,$15,
	$16,$17,$18
)`

const selectTraceSQL = `
SELECT
	trace_id,
	parent_trace_id,
	route_name,
	route_action,
	method,
	url,
	status_code,
	duration_ms,
	memory_usage,
	query_count,
	query_time_ms,
	ip_address,
	user_agent,
	user_id,
	headers,
	request_payload,
	metadata,
	created_at
FROM traces`

// StoreTrace persists one completed trace.
func (db *DB) StoreTrace(ctx context.Context, trace *models.Trace) error {
	headers, err := marshalJSON(trace.Headers)
	if err != nil {
		return fmt.Errorf("%w: headers: %w", ErrFailedToInsert, err)
	}

	payload, err := marshalJSON(trace.RequestPayload)
	if err != nil {
		return fmt.Errorf("%w: request payload: %w", ErrFailedToInsert, err)
	}

	metadata, err := marshalJSON(trace.Metadata)
	if err != nil {
		return fmt.Errorf("%w: metadata: %w", ErrFailedToInsert, err)
	}

	createdAt := trace.CreatedAt
	if createdAt.IsZero() {
		createdAt = nowUTC()
	}

	_, err = db.pool.Exec(ctx, insertTraceSQL,
		trace.TraceID,
		trace.ParentTraceID,
		trace.RouteName,
		trace.RouteAction,
		trace.Method,
		trace.URL,
		trace.StatusCode,
		trace.DurationMs,
		trace.MemoryUsage,
		trace.QueryCount,
		trace.QueryTimeMs,
		trace.IPAddress,
		trace.UserAgent,
		trace.UserID,
		headers,
		payload,
		metadata,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("%w: traces: %w", ErrFailedToInsert, err)
	}

	return nil
}

// GetTraceByID fetches one trace by its id.
func (db *DB) GetTraceByID(ctx context.Context, traceID string) (*models.Trace, error) {
	rows, err := db.pool.Query(ctx, selectTraceSQL+" WHERE trace_id = $1", traceID)
	if err != nil {
		return nil, fmt.Errorf("%w: traces: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	traces, err := scanTraces(rows)
	if err != nil {
		return nil, err
	}

	if len(traces) == 0 {
		return nil, ErrNotFound
	}

	return traces[0], nil
}

// GetTracesSince returns all traces created at or after since.
func (db *DB) GetTracesSince(ctx context.Context, since time.Time) ([]*models.Trace, error) {
	rows, err := db.pool.Query(ctx, selectTraceSQL+" WHERE created_at >= $1 ORDER BY created_at", since.UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: traces: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanTraces(rows)
}

// GetTracesBetween returns traces created in [start, end).
func (db *DB) GetTracesBetween(ctx context.Context, start, end time.Time) ([]*models.Trace, error) {
	rows, err := db.pool.Query(ctx,
		selectTraceSQL+" WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at",
		start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: traces: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanTraces(rows)
}

// ListTraces returns traces matching the filter, newest first.
func (db *DB) ListTraces(ctx context.Context, filter TraceFilter) ([]*models.Trace, error) {
	var (
		conds  []string
		params []any
	)

	addCond := func(expr string, value any) {
		params = append(params, value)
		conds = append(conds, strings.Replace(expr, "?", "$"+strconv.Itoa(len(params)), 1))
	}

	if filter.Route != "" {
		addCond("route_name = ?", filter.Route)
	}

	if !filter.Since.IsZero() {
		addCond("created_at >= ?", filter.Since.UTC())
	}

	if !filter.Until.IsZero() {
		addCond("created_at < ?", filter.Until.UTC())
	}

	if filter.StatusCode != 0 {
		addCond("status_code = ?", filter.StatusCode)
	}

	if filter.ErrorsOnly {
		conds = append(conds, "status_code >= 400")
	}

	query := selectTraceSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	params = append(params, limit)
	query += " LIMIT $" + strconv.Itoa(len(params))

	if filter.Offset > 0 {
		params = append(params, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(params))
	}

	rows, err := db.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: traces: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanTraces(rows)
}

func scanTraces(rows pgx.Rows) ([]*models.Trace, error) {
	var traces []*models.Trace

	for rows.Next() {
		var (
			t        models.Trace
			headers  []byte
			payload  []byte
			metadata []byte
		)

		err := rows.Scan(
			&t.TraceID,
			&t.ParentTraceID,
			&t.RouteName,
			&t.RouteAction,
			&t.Method,
			&t.URL,
			&t.StatusCode,
			&t.DurationMs,
			&t.MemoryUsage,
			&t.QueryCount,
			&t.QueryTimeMs,
			&t.IPAddress,
			&t.UserAgent,
			&t.UserID,
			&headers,
			&payload,
			&metadata,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: trace: %w", ErrFailedToScan, err)
		}

		if err := unmarshalJSON(headers, &t.Headers); err != nil {
			return nil, fmt.Errorf("%w: trace headers: %w", ErrFailedToScan, err)
		}

		if err := unmarshalJSON(payload, &t.RequestPayload); err != nil {
			return nil, fmt.Errorf("%w: trace payload: %w", ErrFailedToScan, err)
		}

		if err := unmarshalJSON(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("%w: trace metadata: %w", ErrFailedToScan, err)
		}

		traces = append(traces, &t)
	}

	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: traces: %w", ErrFailedToQuery, err)
	}

	return traces, nil
}
