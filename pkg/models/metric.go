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

package models

import "time"

// Metric types tracked by the aggregation and anomaly pipelines.
const (
	MetricResponseTime = "response_time"
	MetricMemoryUsage  = "memory_usage"
	MetricErrorRate    = "error_rate"
	MetricQueryTime    = "query_time"
)

// Aggregation period buckets.
const (
	PeriodHour  = "1h"
	PeriodDay   = "1d"
	PeriodWeek  = "7d"
	PeriodMonth = "30d"
)

// MetricPoint is one aggregated or derived measurement. Points are append
// only; rollups and anomaly evaluations both produce them.
type MetricPoint struct {
	ID                int64          `json:"id,omitempty"`
	MetricType        string         `json:"metric_type"`
	MetricName        string         `json:"metric_name"`
	Value             float64        `json:"value"`
	Baseline          *float64       `json:"baseline,omitempty"`
	ZScore            *float64       `json:"z_score,omitempty"`
	IsAnomaly         bool           `json:"is_anomaly"`
	AggregationPeriod string         `json:"aggregation_period"`
	PeriodStart       time.Time      `json:"period_start"`
	PeriodEnd         time.Time      `json:"period_end"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}
