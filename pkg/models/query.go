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

// Query type constants extracted from the leading SQL verb.
const (
	QueryTypeSelect = "SELECT"
	QueryTypeInsert = "INSERT"
	QueryTypeUpdate = "UPDATE"
	QueryTypeDelete = "DELETE"
	QueryTypeCreate = "CREATE"
	QueryTypeAlter  = "ALTER"
	QueryTypeDrop   = "DROP"
	QueryTypeOther  = "OTHER"
)

// QueryLog is one SQL execution correlated to a trace. Logs are written in a
// batch when the owning trace completes and are immutable afterwards.
type QueryLog struct {
	ID             int64     `json:"id,omitempty"`
	TraceID        string    `json:"trace_id"`
	SQL            string    `json:"sql"`
	Bindings       []any     `json:"bindings,omitempty"`
	DurationMs     float64   `json:"duration_ms"`
	ConnectionName string    `json:"connection_name,omitempty"`
	IsSlow         bool      `json:"is_slow"`
	IsDuplicate    bool      `json:"is_duplicate"`
	QueryType      string    `json:"query_type"`
	TableName      *string   `json:"table_name,omitempty"`
	StackTrace     *string   `json:"stack_trace,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Table returns the extracted table name, or "unknown" when the SQL could not
// be parsed.
func (q *QueryLog) Table() string {
	if q.TableName == nil || *q.TableName == "" {
		return "unknown"
	}

	return *q.TableName
}
