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

// CloudEvent is a CloudEvents v1.0 envelope for events published to the
// message bus.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// TraceRecordedData is the payload of a trace.recorded event.
type TraceRecordedData struct {
	TraceID    string    `json:"trace_id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	DurationMs float64   `json:"duration_ms"`
	QueryCount int       `json:"query_count"`
	RouteName  *string   `json:"route_name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ThresholdExceededData is the payload of a performance.threshold event.
type ThresholdExceededData struct {
	Type      string   `json:"type"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Routes    []string `json:"routes"`
	Timestamp time.Time `json:"timestamp"`
}

// AnomalyDetectedData is the payload of an anomaly.detected event.
type AnomalyDetectedData struct {
	MetricType       string    `json:"metric_type"`
	MetricName       string    `json:"metric_name"`
	Value            float64   `json:"value"`
	Baseline         float64   `json:"baseline"`
	ZScore           float64   `json:"z_score"`
	DeviationPercent float64   `json:"deviation_percent"`
	Timestamp        time.Time `json:"timestamp"`
}
