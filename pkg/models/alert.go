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

// Severity is an alert severity level.
type Severity string

// Severity levels, ordered info < warning < error < critical.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Alert types produced by the built-in detectors.
const (
	AlertTypeSlowQuery        = "slow_query"
	AlertTypeHighMemory       = "high_memory"
	AlertTypeExcessiveQueries = "excessive_queries"
	AlertTypeSlowRoutes       = "slow_routes"
	AlertTypeAnomaly          = "anomaly"
)

// Alert is a detected condition requiring attention. Detectors create alerts;
// only the alert manager mutates them (mark-notified, mark-resolved).
type Alert struct {
	ID                   int64          `json:"id,omitempty"`
	AlertType            string         `json:"alert_type"`
	Severity             Severity       `json:"severity"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Source               string         `json:"source,omitempty"`
	Context              map[string]any `json:"context,omitempty"`
	Fingerprint          string         `json:"fingerprint"`
	Notified             bool           `json:"notified"`
	NotifiedAt           *time.Time     `json:"notified_at,omitempty"`
	NotificationChannels []string       `json:"notification_channels,omitempty"`
	Resolved             bool           `json:"resolved"`
	ResolvedAt           *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}
