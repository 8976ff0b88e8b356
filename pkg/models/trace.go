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

// Package models defines the shared data types for the pulse APM pipeline.
package models

import "time"

// Trace is one captured request. A trace is created once, at request
// completion, and never mutated afterwards; only retention pruning removes it.
type Trace struct {
	TraceID        string              `json:"trace_id"`
	ParentTraceID  *string             `json:"parent_trace_id,omitempty"`
	RouteName      *string             `json:"route_name,omitempty"`
	RouteAction    *string             `json:"route_action,omitempty"`
	Method         string              `json:"method"`
	URL            string              `json:"url"`
	StatusCode     int                 `json:"status_code"`
	DurationMs     float64             `json:"duration_ms"`
	MemoryUsage    int64               `json:"memory_usage"`
	QueryCount     int                 `json:"query_count"`
	QueryTimeMs    float64             `json:"query_time_ms"`
	IPAddress      string              `json:"ip_address,omitempty"`
	UserAgent      string              `json:"user_agent,omitempty"`
	UserID         *string             `json:"user_id,omitempty"`
	Headers        map[string][]string `json:"headers,omitempty"`
	RequestPayload map[string]any      `json:"request_payload,omitempty"`
	Metadata       map[string]any      `json:"metadata,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// IsError reports whether the trace completed with a 4xx or 5xx status.
func (t *Trace) IsError() bool {
	return t.StatusCode >= 400
}

// Route returns the route name, or "global" when the request did not resolve
// to a named route.
func (t *Trace) Route() string {
	if t.RouteName == nil || *t.RouteName == "" {
		return "global"
	}

	return *t.RouteName
}
