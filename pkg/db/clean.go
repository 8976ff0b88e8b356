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

// CleanOldData prunes each entity past its retention horizon and reports the
// number of rows deleted per table.
func (db *DB) CleanOldData(ctx context.Context, retention models.RetentionConfig) (map[string]int64, error) {
	now := nowUTC()

	horizons := []struct {
		table string
		days  int
	}{
		{"traces", retention.TracesDays},
		{"query_logs", retention.QueriesDays},
		{"metric_points", retention.MetricsDays},
		{"alerts", retention.AlertsDays},
	}

	deleted := make(map[string]int64, len(horizons))

	for _, h := range horizons {
		if h.days <= 0 {
			continue
		}

		cutoff := now.Add(-time.Duration(h.days) * 24 * time.Hour)

		tag, err := db.pool.Exec(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE created_at < $1", h.table), cutoff)
		if err != nil {
			return deleted, fmt.Errorf("%w %s: %w", ErrFailedToClean, h.table, err)
		}

		deleted[h.table] = tag.RowsAffected()
	}

	return deleted, nil
}
