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
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/pulse/pkg/models"
)

const insertQueryLogSQL = `
INSERT INTO query_logs (
	trace_id,
	sql_text,
	bindings,
	duration_ms,
	connection_name,
	is_slow,
	is_duplicate,
	query_type,
	table_name,
	stack_trace,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,
	$6,$7,$8,$9,$10,$11
)`

const selectQueryLogSQL = `
SELECT
	id,
	trace_id,
	sql_text,
	bindings,
	duration_ms,
	connection_name,
	is_slow,
	is_duplicate,
	query_type,
	table_name,
	stack_trace,
	created_at
FROM query_logs`

// StoreQueryLogs persists a batch of query logs for one trace.
func (db *DB) StoreQueryLogs(ctx context.Context, logs []*models.QueryLog) error {
	if len(logs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, q := range logs {
		bindings, err := marshalJSON(q.Bindings)
		if err != nil {
			return fmt.Errorf("%w: query bindings: %w", ErrFailedToInsert, err)
		}

		createdAt := q.CreatedAt
		if createdAt.IsZero() {
			createdAt = nowUTC()
		}

		batch.Queue(insertQueryLogSQL,
			q.TraceID,
			q.SQL,
			bindings,
			q.DurationMs,
			q.ConnectionName,
			q.IsSlow,
			q.IsDuplicate,
			q.QueryType,
			q.TableName,
			q.StackTrace,
			createdAt,
		)
	}

	return db.sendBatch(ctx, batch, "query_logs")
}

func (db *DB) sendBatch(ctx context.Context, batch *pgx.Batch, name string) (err error) {
	results := db.pool.SendBatch(ctx, batch)

	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %s batch close: %w", ErrFailedToInsert, name, closeErr)
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("%w: %s batch item %d: %w", ErrFailedToInsert, name, i, execErr)
		}
	}

	return nil
}

// GetQueriesForTrace returns the query logs recorded for one trace, in
// execution order.
func (db *DB) GetQueriesForTrace(ctx context.Context, traceID string) ([]*models.QueryLog, error) {
	rows, err := db.pool.Query(ctx, selectQueryLogSQL+" WHERE trace_id = $1 ORDER BY id", traceID)
	if err != nil {
		return nil, fmt.Errorf("%w: query_logs: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanQueryLogs(rows)
}

// GetQueryLogsSince returns all query logs created at or after since.
func (db *DB) GetQueryLogsSince(ctx context.Context, since time.Time) ([]*models.QueryLog, error) {
	rows, err := db.pool.Query(ctx, selectQueryLogSQL+" WHERE created_at >= $1 ORDER BY created_at", since.UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: query_logs: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanQueryLogs(rows)
}

// GetSlowQueries returns the slowest queries since the given time that meet
// the threshold, ordered by duration descending.
func (db *DB) GetSlowQueries(
	ctx context.Context, since time.Time, thresholdMs float64, limit int) ([]*models.QueryLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx,
		selectQueryLogSQL+` WHERE created_at >= $1 AND (is_slow OR duration_ms >= $2)
ORDER BY duration_ms DESC LIMIT $3`,
		since.UTC(), thresholdMs, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query_logs: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	return scanQueryLogs(rows)
}

func scanQueryLogs(rows pgx.Rows) ([]*models.QueryLog, error) {
	var logs []*models.QueryLog

	for rows.Next() {
		var (
			q        models.QueryLog
			bindings []byte
		)

		err := rows.Scan(
			&q.ID,
			&q.TraceID,
			&q.SQL,
			&bindings,
			&q.DurationMs,
			&q.ConnectionName,
			&q.IsSlow,
			&q.IsDuplicate,
			&q.QueryType,
			&q.TableName,
			&q.StackTrace,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: query log: %w", ErrFailedToScan, err)
		}

		if err := unmarshalJSON(bindings, &q.Bindings); err != nil {
			return nil, fmt.Errorf("%w: query bindings: %w", ErrFailedToScan, err)
		}

		logs = append(logs, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query_logs: %w", ErrFailedToQuery, err)
	}

	return logs, nil
}
