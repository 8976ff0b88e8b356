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

// DatabaseConfig holds connection settings for the relational store.
type DatabaseConfig struct {
	Host               string            `json:"host" validate:"required"`
	Port               int               `json:"port"`
	Database           string            `json:"database" validate:"required"`
	Username           string            `json:"username"`
	Password           string            `json:"password"`
	SSLMode            string            `json:"ssl_mode"`
	ApplicationName    string            `json:"application_name"`
	MaxConnections     int32             `json:"max_connections"`
	MinConnections     int32             `json:"min_connections"`
	MaxConnLifetime    time.Duration     `json:"max_conn_lifetime"`
	ExtraRuntimeParams map[string]string `json:"extra_runtime_params,omitempty"`
}

// TracingConfig controls request trace capture.
type TracingConfig struct {
	Enabled        bool     `json:"enabled"`
	CaptureHeaders bool     `json:"capture_headers"`
	CapturePayload bool     `json:"capture_payload"`
	MaxPayloadSize int      `json:"max_payload_size"`
	ExcludedRoutes []string `json:"excluded_routes,omitempty"`
	ExcludedPaths  []string `json:"excluded_paths,omitempty"`
	SampleRate     float64  `json:"sample_rate" validate:"gte=0,lte=1"`
	AsyncStore     bool     `json:"async_store"`
	QueueSize      int      `json:"queue_size"`
}

// QueriesConfig controls SQL query logging.
type QueriesConfig struct {
	Enabled              bool    `json:"enabled"`
	LogAll               bool    `json:"log_all"`
	SlowThresholdMs      float64 `json:"slow_threshold_ms" validate:"gte=0"`
	CaptureStackTrace    bool    `json:"capture_stack_trace"`
	DetectDuplicates     bool    `json:"detect_duplicates"`
	MaxQueriesPerRequest int     `json:"max_queries_per_request" validate:"gte=0"`
}

// PerformanceThresholds are the fixed bottleneck-detection limits.
type PerformanceThresholds struct {
	ResponseTimeMs   float64 `json:"response_time_ms"`
	MemoryUsageMB    float64 `json:"memory_usage_mb"`
	QueryCount       float64 `json:"query_count"`
	ErrorRatePercent float64 `json:"error_rate_percent"`
}

// PerformanceConfig controls aggregation and bottleneck detection.
type PerformanceConfig struct {
	Enabled    bool                  `json:"enabled"`
	Thresholds PerformanceThresholds `json:"thresholds"`
}

// AnomalyDetectionConfig controls the statistical anomaly detector.
type AnomalyDetectionConfig struct {
	Enabled            bool     `json:"enabled"`
	ZScoreThreshold    float64  `json:"z_score_threshold" validate:"gt=0"`
	MinDataPoints      int      `json:"min_data_points" validate:"gt=0"`
	BaselineWindowDays int      `json:"baseline_window_days" validate:"gt=0"`
	MonitoredMetrics   []string `json:"monitored_metrics,omitempty"`
}

// WebhookConfig configures one chat-webhook notification channel.
type WebhookConfig struct {
	Enabled   bool          `json:"enabled"`
	URL       string        `json:"url" validate:"omitempty,url"`
	Channel   string        `json:"channel,omitempty"`
	Username  string        `json:"username,omitempty"`
	IconEmoji string        `json:"icon_emoji,omitempty"`
	Cooldown  time.Duration `json:"cooldown,omitempty"`
}

// TelegramConfig configures the bot-API notification channel.
type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
}

// ThrottleConfig bounds repeat notifications per fingerprint.
type ThrottleConfig struct {
	Enabled            bool `json:"enabled"`
	WindowMinutes      int  `json:"window_minutes" validate:"gt=0"`
	MaxAlertsPerWindow int  `json:"max_alerts_per_window" validate:"gt=0"`
}

// NotificationsConfig groups all notification channels and throttling.
type NotificationsConfig struct {
	Webhooks       []WebhookConfig `json:"webhooks,omitempty"`
	Telegram       TelegramConfig  `json:"telegram"`
	Throttle       ThrottleConfig  `json:"throttle"`
	SendTimeout    time.Duration   `json:"send_timeout"`
	PendingSweep   time.Duration   `json:"pending_sweep"`
}

// RetentionConfig holds per-entity pruning horizons in days.
type RetentionConfig struct {
	TracesDays  int `json:"traces_days" validate:"gt=0"`
	QueriesDays int `json:"queries_days" validate:"gt=0"`
	MetricsDays int `json:"metrics_days" validate:"gt=0"`
	AlertsDays  int `json:"alerts_days" validate:"gt=0"`
}

// CacheConfig controls analysis result caching.
type CacheConfig struct {
	Enabled    bool `json:"enabled"`
	TTLSeconds int  `json:"ttl_seconds" validate:"gte=0"`
}

// EventsConfig configures CloudEvents publication over NATS JetStream.
// Leave URL empty to disable publication.
type EventsConfig struct {
	URL        string `json:"url,omitempty"`
	StreamName string `json:"stream_name,omitempty"`
	Subject    string `json:"subject,omitempty"`
}

// ExporterConfig controls the Prometheus exposition endpoint.
type ExporterConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
}

// HTTPConfig configures the read-only API and exposition surface.
type HTTPConfig struct {
	ListenAddr string `json:"listen_addr"`
	APIKey     string `json:"api_key,omitempty"`
}
