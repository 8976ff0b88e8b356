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
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS traces (
		trace_id        TEXT PRIMARY KEY,
		parent_trace_id TEXT,
		route_name      TEXT,
		route_action    TEXT,
		method          TEXT NOT NULL,
		url             TEXT NOT NULL,
		status_code     INT NOT NULL,
		duration_ms     DOUBLE PRECISION NOT NULL,
		memory_usage    BIGINT NOT NULL DEFAULT 0,
		query_count     INT NOT NULL DEFAULT 0,
		query_time_ms   DOUBLE PRECISION NOT NULL DEFAULT 0,
		ip_address      TEXT,
		user_agent      TEXT,
		user_id         TEXT,
		headers         JSONB,
		request_payload JSONB,
		metadata        JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS traces_created_at_idx ON traces (created_at)`,
	`CREATE INDEX IF NOT EXISTS traces_route_name_idx ON traces (route_name)`,
	`CREATE TABLE IF NOT EXISTS query_logs (
		id              BIGSERIAL PRIMARY KEY,
		trace_id        TEXT NOT NULL,
		sql_text        TEXT NOT NULL,
		bindings        JSONB,
		duration_ms     DOUBLE PRECISION NOT NULL,
		connection_name TEXT,
		is_slow         BOOLEAN NOT NULL DEFAULT false,
		is_duplicate    BOOLEAN NOT NULL DEFAULT false,
		query_type      TEXT NOT NULL DEFAULT 'OTHER',
		table_name      TEXT,
		stack_trace     TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS query_logs_trace_id_idx ON query_logs (trace_id)`,
	`CREATE INDEX IF NOT EXISTS query_logs_created_at_idx ON query_logs (created_at)`,
	`CREATE TABLE IF NOT EXISTS metric_points (
		id                 BIGSERIAL PRIMARY KEY,
		metric_type        TEXT NOT NULL,
		metric_name        TEXT NOT NULL,
		value              DOUBLE PRECISION NOT NULL,
		baseline           DOUBLE PRECISION,
		z_score            DOUBLE PRECISION,
		is_anomaly         BOOLEAN NOT NULL DEFAULT false,
		aggregation_period TEXT NOT NULL,
		period_start       TIMESTAMPTZ NOT NULL,
		period_end         TIMESTAMPTZ NOT NULL,
		metadata           JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS metric_points_type_idx ON metric_points (metric_type, created_at)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id                    BIGSERIAL PRIMARY KEY,
		alert_type            TEXT NOT NULL,
		severity              TEXT NOT NULL,
		title                 TEXT NOT NULL,
		description           TEXT NOT NULL,
		source                TEXT,
		context               JSONB,
		fingerprint           TEXT NOT NULL,
		notified              BOOLEAN NOT NULL DEFAULT false,
		notified_at           TIMESTAMPTZ,
		notification_channels TEXT,
		resolved              BOOLEAN NOT NULL DEFAULT false,
		resolved_at           TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS alerts_fingerprint_idx ON alerts (fingerprint, created_at)`,
}

// Migrate creates the pipeline tables when they do not yet exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migration: %w", ErrFailedOpenDB, err)
		}
	}

	return nil
}
