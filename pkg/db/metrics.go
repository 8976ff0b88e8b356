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

	"github.com/carverauto/pulse/pkg/models"
)

const insertMetricPointSQL = `
INSERT INTO metric_points (
	metric_type,
	metric_name,
	value,
	baseline,
	z_score,
	is_anomaly,
	aggregation_period,
	period_start,
	period_end,
	metadata,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,
	$6,$7,$8,$9,$10,$11
)`

const selectMetricPointSQL = `
SELECT
	id,
	metric_type,
	metric_name,
	value,
	baseline,
	z_score,
	is_anomaly,
	aggregation_period,
	period_start,
	period_end,
	metadata,
	created_at
FROM metric_points`

// StoreMetricPoint appends one aggregated or derived measurement.
func (db *DB) StoreMetricPoint(ctx context.Context, point *models.MetricPoint) error {
	metadata, err := marshalJSON(point.Metadata)
	if err != nil {
		return fmt.Errorf("%w: metric metadata: %w", ErrFailedToInsert, err)
	}

	createdAt := point.CreatedAt
	if createdAt.IsZero() {
		createdAt = nowUTC()
	}

	_, err = db.pool.Exec(ctx, insertMetricPointSQL,
		point.MetricType,
		point.MetricName,
		point.Value,
		point.Baseline,
		point.ZScore,
		point.IsAnomaly,
		point.AggregationPeriod,
		point.PeriodStart,
		point.PeriodEnd,
		metadata,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("%w: metric_points: %w", ErrFailedToInsert, err)
	}

	return nil
}

// GetMetricPointsSince returns metric points of one type created at or after
// since, oldest first.
func (db *DB) GetMetricPointsSince(
	ctx context.Context, metricType string, since time.Time) ([]*models.MetricPoint, error) {
	rows, err := db.pool.Query(ctx,
		selectMetricPointSQL+" WHERE metric_type = $1 AND created_at >= $2 ORDER BY created_at",
		metricType, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: metric_points: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var points []*models.MetricPoint

	for rows.Next() {
		var (
			p        models.MetricPoint
			metadata []byte
		)

		err := rows.Scan(
			&p.ID,
			&p.MetricType,
			&p.MetricName,
			&p.Value,
			&p.Baseline,
			&p.ZScore,
			&p.IsAnomaly,
			&p.AggregationPeriod,
			&p.PeriodStart,
			&p.PeriodEnd,
			&metadata,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: metric point: %w", ErrFailedToScan, err)
		}

		if err := unmarshalJSON(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metric metadata: %w", ErrFailedToScan, err)
		}

		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: metric_points: %w", ErrFailedToQuery, err)
	}

	return points, nil
}
